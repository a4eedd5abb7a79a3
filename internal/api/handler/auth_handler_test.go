package handler_test

import (
	"customer-manager/internal/api/handler"
	"customer-manager/internal/api/handler/dto"
	"customer-manager/internal/config"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_GenerateBearerToken(t *testing.T) {
	const secret = "test-secret"
	h := handler.NewAuthHandler(config.AuthConfig{Enabled: true, JWTSecret: secret, TokenTTL: time.Hour}, testLogger)

	t.Run("Issues a signed token", func(t *testing.T) {
		rec := doRequest(t, http.HandlerFunc(h.GenerateBearerToken), http.MethodPost, "/auth/token", `{"username":"ana"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[dto.TokenResponse](t, rec)
		require.True(t, strings.HasPrefix(resp.Token, "Bearer "))
		assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(resp.Token, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, "ana", claims["username"])
		assert.NotEmpty(t, claims["jti"])
	})

	t.Run("Each token has its own id", func(t *testing.T) {
		first := decodeBody[dto.TokenResponse](t, doRequest(t, http.HandlerFunc(h.GenerateBearerToken), http.MethodPost, "/auth/token", `{"username":"ana"}`))
		second := decodeBody[dto.TokenResponse](t, doRequest(t, http.HandlerFunc(h.GenerateBearerToken), http.MethodPost, "/auth/token", `{"username":"ana"}`))
		assert.NotEqual(t, first.Token, second.Token)
	})

	t.Run("Missing username", func(t *testing.T) {
		rec := doRequest(t, http.HandlerFunc(h.GenerateBearerToken), http.MethodPost, "/auth/token", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody[dto.ErrorResponse](t, rec)
		assert.Equal(t, "username", resp.Error.Field)
	})

	t.Run("Malformed body", func(t *testing.T) {
		rec := doRequest(t, http.HandlerFunc(h.GenerateBearerToken), http.MethodPost, "/auth/token", `{"username":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
