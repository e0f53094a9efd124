package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beatbox/internal/config"
	"beatbox/internal/database"
	"beatbox/internal/middleware"
	"beatbox/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret-that-is-long-enough-123456"
	testBaseURL  = "http://testserver"
	testPassword = "CorrectHorse12!"
)

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		Port:          "0",
		JWTSecret:     testSecret,
		DBDriver:      "sqlite",
		DBSQLitePath:  ":memory:",
		CursorSalt:    "test-cursor-salt",
		PublicBaseURL: testBaseURL,
	}
}

// newTestEnv builds a server on a private in-memory database and miniredis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{server: s, app: s.NewApp(), db: db, redis: mr}
}

func (e *testEnv) createUser(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username:  name,
		Email:     name + "@example.com",
		Password:  string(hash),
		FirstName: name,
		LastName:  "Tester",
	}
	require.NoError(t, e.db.Create(u).Error)

	token, _, err := middleware.IssueToken(testSecret, u.ID, time.Now())
	require.NoError(t, err)
	return u, token
}

// do sends a request and returns the response with its body read.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, data
}

func decodeMap(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func (e *testEnv) createSuggestion(t *testing.T, token string, body map[string]any) map[string]any {
	t.Helper()
	resp, data := e.do(t, http.MethodPost, "/api/suggestions/", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decodeMap(t, data)
}
