package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// JWKSHandler exposes the public keys that verify access and session
// tokens. Only asymmetric keys are published, so the route is registered
// only when km.Publishes().
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify JWTs. Served only when tokens are signed with EdDSA.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(km *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(km.KeySet.PublicJWKS()))
	}
}
