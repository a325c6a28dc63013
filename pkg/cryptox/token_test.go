package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"jwt-shaped token", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1LTEifQ.sig"},
		{"short token", "t"},
		{"empty token", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp1 := FingerprintToken(tt.token)
			fp2 := FingerprintToken(tt.token)

			require.Equal(t, fp1, fp2, "fingerprint must be deterministic")
			require.Len(t, fp1, 43, "base64url SHA-256 without padding")
		})
	}
}

func TestFingerprintToken_DistinctInputs(t *testing.T) {
	fps := map[string]bool{}
	for _, token := range []string{"token-a", "token-b", "token-a ", "Token-a"} {
		fps[FingerprintToken(token)] = true
	}
	require.Len(t, fps, 4, "distinct inputs must fingerprint differently")
}
