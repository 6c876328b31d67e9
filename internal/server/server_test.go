package server_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/optimusx/nl2sql/internal/config"
	"github.com/optimusx/nl2sql/internal/llm"
	"github.com/optimusx/nl2sql/internal/server"
	"github.com/optimusx/nl2sql/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCompleter string

func (c staticCompleter) Complete(context.Context, string) string { return string(c) }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Host:                   "127.0.0.1",
		Port:                   8000,
		APIPrefix:              "/api/v1",
		APIKeyHeader:           "X-API-Key",
		APIKeys:                []string{"k"},
		EnableAuth:             true,
		RateLimitPerMinute:     100,
		LLMProvider:            "gemini",
		GoogleAPIKey:           "g",
		EnablePIIDetection:     true,
		EnablePromptValidation: true,
		EnableDataMasking:      true,
		EnableSQLValidation:    true,
		SensitiveColumns:       config.DefaultSensitiveColumns,
		PIIKeywords:            config.DefaultPIIKeywords,
	}
}

// newTestServer runs the real pipeline against a sqlmock database
func newTestServer(t *testing.T, completion string) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	executor := service.NewPostgresExecutorWithOpener(func(context.Context) (*sql.DB, error) { return db, nil })
	cfg := testConfig()
	pipeline := server.NewPipeline(cfg, staticCompleter(completion), executor)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := server.NewWithDeps(ctx, cfg, server.Deps{Pipeline: pipeline, Executor: executor, Database: okPinger{}})
	return srv.Handler(), mock
}

func do(h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if authed {
		req.Header.Set("X-API-Key", "k")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAnswerEndToEnd(t *testing.T) {
	h, mock := newTestServer(t, "```sql\nSELECT name, manager_email FROM stores;\n```")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, manager_email FROM stores;").
		WillReturnRows(sqlmock.NewRows([]string{"name", "manager_email"}).
			AddRow("A", "ann@example.com").
			AddRow("B", "bob@example.com"))
	mock.ExpectRollback()
	mock.ExpectClose()

	rr := do(h, http.MethodPost, "/api/v1/answer", `{"question":"List all store names"}`, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Status  string           `json:"status"`
		SQL     string           `json:"sql"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "SELECT name, manager_email FROM stores;", body.SQL)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "A", body.Results[0]["name"])
	assert.Equal(t, "an***@***.com", body.Results[0]["manager_email"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerGuardRejectsWithoutTouchingDatabase(t *testing.T) {
	h, mock := newTestServer(t, "SELECT usename FROM pg_user;")

	rr := do(h, http.MethodPost, "/api/v1/answer", `{"question":"List all store names"}`, true)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error_message"], "SQL validation failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutesAuth(t *testing.T) {
	h, _ := newTestServer(t, "")

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/v1/schema", "", false).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/schema", "", true).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", false).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/", "", false).Code)
}

func TestRoutesMisc(t *testing.T) {
	h, _ := newTestServer(t, "")

	rr := do(h, http.MethodGet, "/api/v1/tools", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "nl_to_sql_and_execute")
	assert.Contains(t, rr.Body.String(), "sample_rows")

	rr = do(h, http.MethodPost, "/api/v1/agent", `{"prompt":"list stores"}`, true)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "agent is disabled without a runner")

	rr = do(h, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "nl2sql_http_requests_total")
}

func TestDryRunSkipsDatabase(t *testing.T) {
	h, mock := newTestServer(t, "SELECT name FROM sort;")

	rr := do(h, http.MethodPost, "/api/v1/answer", `{"question":"List sort names","dry_run":true}`, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"translated","sql":"SELECT name FROM sort;","raw_completion":"SELECT name FROM sort;"}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, &llm.Gemini{}, server.NewCompleter(cfg))
	cfg.LLMProvider = "anthropic"
	assert.IsType(t, &llm.Anthropic{}, server.NewCompleter(cfg))
	assert.Nil(t, server.NewAgent(cfg, nil, nil))
	cfg.AnthropicAPIKey = "a"
	assert.NotNil(t, server.NewAgent(cfg, nil, nil))
}
