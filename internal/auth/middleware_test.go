package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-bazaar/internal/common"
)

var testSecret = []byte("unit-test-secret")

func testNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Issuer("bazaar-api").
		Subject("2e9b9f3c-4d1a-4b6e-9a57-0f0c2f6f2a01").
		IssuedAt(testNow().Add(-time.Minute)).
		Expiration(testNow().Add(time.Hour))
	if role != "" {
		builder = builder.Claim("role", role)
	}
	tok, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	require.NoError(t, err)
	return string(signed)
}

func newTestMiddleware() Middleware {
	return Middleware{Verifier: Verifier{
		Secret: testSecret,
		Issuer: "bazaar-api",
		Now:    testNow,
	}}
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	mw := newTestMiddleware()
	var gotUser, gotRole string
	handler := mw.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		gotRole, _ = common.Role(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/discounts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "2e9b9f3c-4d1a-4b6e-9a57-0f0c2f6f2a01", gotUser)
	require.Equal(t, "admin", gotRole)
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	mw := newTestMiddleware()
	handler := mw.RequireRole("admin")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, role := range []string{"buyer", ""} {
		req := httptest.NewRequest(http.MethodGet, "/admin/discounts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, "role=%q", role)
	}
}

func TestRequireRoleRejectsMissingToken(t *testing.T) {
	mw := newTestMiddleware()
	handler := mw.RequireRole("admin")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/discounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseRejectsBadSignature(t *testing.T) {
	v := Verifier{Secret: []byte("other-secret"), Issuer: "bazaar-api", Now: testNow}
	_, err := v.Parse(signToken(t, "admin"))
	require.ErrorIs(t, err, ErrInvalidToken)
}
