package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	c := NewClaims(ClaimsParams{
		Subject:   "user-1",
		Role:      "user",
		Name:      "Alice",
		Email:     "a@x.com",
		SessionID: "sid",
		Use:       UseAccess,
		Issuer:    "gatehouse",
		TTL:       15 * time.Minute,
	}, now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "user", c.Role)
	require.Equal(t, now.Add(15*time.Minute), c.ExpiresAt.Time)
	require.Equal(t, now, c.IssuedAt.Time)
	require.NotEmpty(t, c.ID)
	require.NoError(t, c.Validate())

	require.Equal(t, 10*time.Minute, c.ExpiresIn(now.Add(5*time.Minute)))
	require.Zero(t, c.ExpiresIn(now.Add(time.Hour)))
}

func TestClaimsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		claims  Claims
		wantErr bool
	}{
		{"complete", Claims{Role: "user", Use: UseAccess}, false},
		{"missing role", Claims{Use: UseAccess}, true},
		{"missing use", Claims{Role: "user"}, true},
		{"unknown use", Claims{Role: "user", Use: "refresh"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.claims.Subject = "user-1"
			err := tt.claims.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidClaim)
				return
			}
			require.NoError(t, err)
		})
	}

	require.ErrorIs(t, Claims{Role: "user", Use: UseAccess}.Validate(), ErrInvalidClaim)
}

func TestNewJTI(t *testing.T) {
	t.Parallel()
	require.NotEqual(t, NewJTI(), NewJTI())
}
