package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "middleware-test-secret"

func authTestRouter(cfg JWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWTAuthMiddleware(cfg), func(c *gin.Context) {
		userID, ok := AuthenticatedUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "authenticated": ok})
	})
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	token, err := GenerateToken(JWTConfig{SecretKey: testSecret, TokenTTL: time.Hour}, "user-123", "anna@example.com")
	require.NoError(t, err)

	router := authTestRouter(JWTConfig{SecretKey: testSecret, Logger: zap.NewNop()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-123")
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	router := authTestRouter(JWTConfig{SecretKey: testSecret, Logger: zap.NewNop()})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	token, err := GenerateToken(JWTConfig{SecretKey: testSecret, TokenTTL: -time.Hour}, "user-123", "anna@example.com")
	require.NoError(t, err)

	router := authTestRouter(JWTConfig{SecretKey: testSecret, Logger: zap.NewNop()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_WrongSecret(t *testing.T) {
	token, err := GenerateToken(JWTConfig{SecretKey: "other-secret", TokenTTL: time.Hour}, "user-123", "anna@example.com")
	require.NoError(t, err)

	router := authTestRouter(JWTConfig{SecretKey: testSecret, Logger: zap.NewNop()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_OptionalModeServesGuests(t *testing.T) {
	router := authTestRouter(JWTConfig{SecretKey: testSecret, Logger: zap.NewNop(), Optional: true})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"authenticated":false`)
		})
	}
}

func TestAuthenticatedUserID_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := AuthenticatedUserID(c)
	assert.False(t, ok)
}
