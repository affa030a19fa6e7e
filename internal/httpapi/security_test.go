package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeadersPresent(t *testing.T) {
	handler := newTestAPI(t, "").Handler()

	rec := do(t, handler, http.MethodGet, "/healthz")
	expected := map[string]string{
		"X-Content-Type-Options":     "nosniff",
		"X-Frame-Options":            "DENY",
		"Referrer-Policy":            "strict-origin-when-cross-origin",
		"Cross-Origin-Opener-Policy": "same-origin",
	}
	for header, want := range expected {
		assert.Equal(t, want, rec.Header().Get(header), header)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestAPI(t, "").Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/reports/generate", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, rec.Code)
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusInternalServerError, errTest("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, "{\"error\":\"internal server error\"}\n", rec.Body.String())
}

type errTest string

func (e errTest) Error() string { return string(e) }
