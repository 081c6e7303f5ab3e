package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/playreply/internal/api/auth"
	"github.com/playreply/internal/generator"
	"github.com/playreply/internal/history"
	"github.com/playreply/internal/reply"
	"github.com/playreply/internal/storefront"
	"github.com/playreply/pkg/models"
)

type fixedModel struct{ reply string }

func (f fixedModel) Call(ctx context.Context, input string, options ...llms.CallOption) (string, error) {
	return f.reply, nil
}

const testReply = "Thanks for the detailed feedback! The team is already looking into the crash you described."

func newTestServer(t *testing.T) (*Server, *storefront.Fake) {
	t.Helper()

	fake := storefront.NewFake(
		models.Review{ID: "gp:1", Rating: 1, Text: "App crashes constantly"},
		models.Review{ID: "gp:2", Rating: 5, Text: "Works great for me"},
	)
	hist, err := history.NewStore(context.Background(), nil)
	require.NoError(t, err)

	orch := reply.New(reply.Deps{
		Store:     fake,
		Generator: generator.New(fixedModel{reply: testReply}),
		History:   hist,
	})

	users, err := auth.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	require.NoError(t, users.Create("dev", "hunter2secret"))

	return NewServer(Options{
		Addr:         ":0",
		Orchestrator: orch,
		Store:        fake,
		Users:        users,
		Tokens:       auth.NewTokenService("test-secret"),
	}), fake
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "dev",
		"password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "dev",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/api/v1/reviews", "/api/v1/stats", "/api/v1/history"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestGetReviews(t *testing.T) {
	s, _ := newTestServer(t)
	token := loginToken(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/reviews?max_results=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reviews []models.Review `json:"reviews"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "gp:1", resp.Reviews[0].ID)
}

func TestStartRunDryRun(t *testing.T) {
	s, fake := newTestServer(t)
	token := loginToken(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs", token, map[string]interface{}{
		"mode":        "dry_run",
		"max_results": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var summary reply.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 0, fake.PostedCount())
}

func TestStartRunRejectsBadMode(t *testing.T) {
	s, _ := newTestServer(t)
	token := loginToken(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs", token, map[string]interface{}{
		"mode": "yolo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	token := loginToken(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/preview", token, map[string]interface{}{
		"review_id": "gp:9",
		"rating":    2,
		"text":      "keeps freezing on startup",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var gen models.GeneratedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gen))
	assert.Equal(t, testReply, gen.Validated)
}

func TestPreviewRejectsBadRating(t *testing.T) {
	s, _ := newTestServer(t)
	token := loginToken(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/preview", token, map[string]interface{}{
		"review_id": "gp:9",
		"rating":    0,
		"text":      "hi",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndHistoryAfterRun(t *testing.T) {
	s, _ := newTestServer(t)
	token := loginToken(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs", token, map[string]interface{}{"mode": "dry_run"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats history.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalReplies)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/history?limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Entries []models.HistoryEntry `json:"entries"`
		Count   int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Equal(t, 1, hist.Count)
}
