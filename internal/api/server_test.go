package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelaunch/codelaunch/internal/config"
	"github.com/codelaunch/codelaunch/internal/logger"
	"github.com/codelaunch/codelaunch/internal/projects"
	"github.com/codelaunch/codelaunch/internal/scheduler"
	"github.com/codelaunch/codelaunch/internal/testutil"
	"github.com/codelaunch/codelaunch/internal/websocket"
)

type nopLauncher struct{}

func (nopLauncher) Launch(context.Context, string) error { return nil }

func newTestServer(t *testing.T) (*Server, *projects.Service) {
	t.Helper()

	log := logger.New(logger.Config{Level: "debug", Format: "json", BufferSize: 16})

	root := t.TempDir()
	proj := testutil.MakeProjectDir(t, root, "demo", 1704067200)
	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{"file://" + filepath.ToSlash(proj)})

	reader := projects.NewHistoryReader([]string{store}, log.Logger)
	cache := projects.NewCacheStore(filepath.Join(t.TempDir(), "cache.json"), log.Logger)
	ignores := projects.NewIgnoreList(filepath.Join(t.TempDir(), "ignore.json"), log.Logger)

	hub := websocket.NewHub()
	go hub.Run()

	svc := projects.NewService(reader, cache, ignores, nopLauncher{}, hub, log.Logger)
	svc.Start()
	t.Cleanup(svc.Stop)

	sched, err := scheduler.New(log.Logger)
	require.NoError(t, err)
	require.NoError(t, sched.RegisterTask(scheduler.TaskConfig{
		ID:   "projects-rescan",
		Name: "Project rescan",
		Cron: "*/5 * * * *",
		Func: func(context.Context) error { svc.Refresh(); return nil },
	}))
	t.Cleanup(func() { _ = sched.Stop() })

	return NewServer(svc, sched, hub, log), svc
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func waitForScan(t *testing.T, svc *projects.Service) {
	t.Helper()
	require.Eventually(t, func() bool { return len(svc.List("")) == 1 }, testutil.WaitTimeout, testutil.WaitTick)
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ListProjects(t *testing.T) {
	s, svc := newTestServer(t)
	waitForScan(t, svc)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload projects.UpdatedPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Entries, 1)
	assert.Equal(t, "demo", payload.Entries[0].DisplayName)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/projects?q=nomatch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Entries)
}

func TestServer_RefreshAccepted(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/projects/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestServer_LaunchValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/projects/launch", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/projects/launch", `{"path":"/dev/demo"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_IgnoreFlow(t *testing.T) {
	s, svc := newTestServer(t)
	waitForScan(t, svc)

	entry := svc.List("")[0]
	body, err := json.Marshal(map[string]string{"path": entry.Path})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/ignores", string(body))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/projects", "")
	var payload projects.UpdatedPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Entries)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/ignores", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ignored map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ignored))
	assert.Len(t, ignored["paths"], 1)

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/ignores", string(body))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/projects", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Entries, 1)
}

func TestServer_SystemStatus(t *testing.T) {
	s, svc := newTestServer(t)
	waitForScan(t, svc)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/system/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, config.Version, status["version"])
	assert.Contains(t, status, "projects")
}

func TestServer_Tasks(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/system/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []scheduler.TaskInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "projects-rescan", tasks[0].ID)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/system/tasks/projects-rescan/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/system/tasks/unknown/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RecentLogs(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/logs/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []logger.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
}
