//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/app"
	"blog-api/internal/config"
	"blog-api/internal/database"
	"blog-api/internal/model"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

// newServer starts the full application handler against DATABASE_URL with
// empty tables.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{URL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE posts, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	cfg := &config.Config{
		ServerPort:         "0",
		RequestTimeout:     10 * time.Second,
		DatabaseURL:        url,
		DBMaxConns:         4,
		DBMinConns:         1,
		JWTSecret:          "integration-secret",
		JWTAccessTTL:       5 * time.Minute,
		JWTRefreshTTL:      time.Hour,
		HashRounds:         bcrypt.MinCost,
		AuthRateLimitRPM:   10000,
		MaxUploadSize:      1000000,
		PublicRoot:         t.TempDir(),
		TempFolder:         "temp",
		PostsImageFolder:   "posts",
		ThumbnailSize:      64,
		MaxThumbnailPixels: 1 << 20,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		application.Close()
	})
	return server
}

func call(t *testing.T, server *httptest.Server, method string, path string, body string, authorization string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func register(t *testing.T, server *httptest.Server, nickname string, email string) model.TokenPair {
	t.Helper()

	status, env := call(t, server, http.MethodPost, "/auth/register/email",
		`{"nickname":"`+nickname+`","email":"`+email+`","password":"pw123"}`, "")
	require.Equal(t, http.StatusCreated, status)

	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	return pair
}
