package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe returning service status plus the database and token signer checks
//	@Description	Returns 503 while the credential store is unreachable or no signing key is loaded
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	km *jwtx.KeyManager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Store errors are not echoed; they may carry connection strings.
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "unavailable"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if km == nil || !km.IsReady() || km.GetSigner() == nil {
			checks.Signer = "no signing key loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
