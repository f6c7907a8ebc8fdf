package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTMiddlewareSetsIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-42",
		"role":    "owner",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, c := runJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-42", c.Get("user_id"))
	assert.Equal(t, "owner", c.Get("role"))
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	rec, _ := runJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = runJWT(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signed with the wrong secret
	bad := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": "u-42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	rec, _ = runJWT(t, "Bearer "+bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired
	expired := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-42",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	rec, _ = runJWT(t, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid signature but no user_id claim
	anonymous := signToken(t, "test-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rec, _ = runJWT(t, "Bearer "+anonymous)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
