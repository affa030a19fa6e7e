package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-at-least-32-bytes"

func signToken(t *testing.T, secret string, method jwtlib.SigningMethod, claims reportClaims) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() reportClaims {
	return reportClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "analyst",
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().UTC().Add(time.Hour)),
		},
		Role: "viewer",
	}
}

func TestTokenVerifierParsesValidToken(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	actor, err := verifier.ParseToken(signToken(t, testSecret, jwtlib.SigningMethodHS256, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "analyst", actor.Subject)
	assert.Equal(t, "viewer", actor.Role)
}

func TestTokenVerifierRejectsBadTokens(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	expired := validClaims()
	expired.ExpiresAt = jwtlib.NewNumericDate(time.Now().UTC().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"wrong secret": signToken(t, "another-secret-another-secret-1234", jwtlib.SigningMethodHS256, validClaims()),
		"wrong alg":    signToken(t, testSecret, jwtlib.SigningMethodHS512, validClaims()),
		"expired":      signToken(t, testSecret, jwtlib.SigningMethodHS256, expired),
		"no subject":   signToken(t, testSecret, jwtlib.SigningMethodHS256, noSubject),
		"garbage":      "not-a-jwt",
	}
	for name, token := range cases {
		_, err := verifier.ParseToken(token)
		assert.Error(t, err, name)
	}
}

func TestReportsOpenWhenSecretUnset(t *testing.T) {
	handler := newTestAPI(t, "").Handler()

	rec := do(t, handler, http.MethodGet, "/api/reports")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportsRequireBearerWhenSecretSet(t *testing.T) {
	handler := newTestAPI(t, testSecret).Handler()

	rec := do(t, handler, http.MethodGet, "/api/reports")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/generate", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwtlib.SigningMethodHS256, validClaims()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")
}
