package middleware

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-characters"

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	token, issued, err := IssueToken(testSecret, 7, now)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.WithinDuration(t, now.Add(TokenTTL), claims.ExpiresAt, time.Second)
}

func TestParseToken_Rejects(t *testing.T) {
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(1),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
			"jti": "abc",
		}
	}

	tests := []struct {
		name   string
		secret string
		mutate func(jwt.MapClaims)
	}{
		{"wrong secret", "another-secret-key-at-least-32-characters", func(jwt.MapClaims) {}},
		{"expired", testSecret, func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{"missing exp", testSecret, func(c jwt.MapClaims) { delete(c, "exp") }},
		{"wrong issuer", testSecret, func(c jwt.MapClaims) { c["iss"] = "someone-else" }},
		{"wrong audience", testSecret, func(c jwt.MapClaims) { c["aud"] = "someone-else" }},
		{"numeric subject", testSecret, func(c jwt.MapClaims) { c["sub"] = 1 }},
		{"non numeric subject", testSecret, func(c jwt.MapClaims) { c["sub"] = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := valid()
			tt.mutate(claims)
			_, err := ParseToken(testSecret, signClaims(t, tt.secret, claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer", "", false},
		{"Basic abc", "", false},
		{"Bearer abc", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				token, err := BearerToken(c)
				if !tt.ok {
					assert.ErrorIs(t, err, ErrMissingToken)
				} else {
					assert.NoError(t, err)
					assert.Equal(t, tt.want, token)
				}
				return c.SendStatus(fiber.StatusOK)
			})
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := app.Test(req)
			require.NoError(t, err)
		})
	}
}
