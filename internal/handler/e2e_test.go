package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/service"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := service.NewTaskService(service.Config{}, nil, zap.NewNop())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})
	r.Mount("/api", NewTaskHandler(srv, zap.NewNop()).Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func call(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestE2E_FullWorkflow(t *testing.T) {
	server := setupServer(t)
	api := server.URL + "/api"

	var created model.Task
	code := call(t, http.MethodPost, api+"/tasks",
		map[string]interface{}{"username": "alice", "title": "Write report", "priority": 2}, &created)
	require.Equal(t, http.StatusCreated, code)

	code = call(t, http.MethodPost, fmt.Sprintf("%s/tasks/%d/assign", api, created.ID),
		map[string]string{"from": "alice", "to": "bob"}, nil)
	require.Equal(t, http.StatusOK, code)

	code = call(t, http.MethodPost, fmt.Sprintf("%s/tasks/%d/unassign", api, created.ID),
		map[string]string{"username": "alice"}, nil)
	require.Equal(t, http.StatusNoContent, code)

	var aliceTasks []model.Task
	call(t, http.MethodGet, api+"/users/alice/tasks", nil, &aliceTasks)
	assert.Empty(t, aliceTasks)

	var undone model.HistoryEntry
	code = call(t, http.MethodPost, api+"/users/alice/undo", nil, &undone)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.HistoryEntry{TaskID: created.ID, Op: model.OpUnassign}, undone)

	call(t, http.MethodGet, api+"/users/alice/tasks", nil, &aliceTasks)
	require.Len(t, aliceTasks, 1)
	assert.Equal(t, created.ID, aliceTasks[0].ID)

	var notes []string
	call(t, http.MethodGet, api+"/notifications", nil, &notes)
	assert.Equal(t, []string{
		"Task #1 created by alice: Write report",
		"Task #1 assigned to bob by alice",
		"Task #1 removed by alice",
		"Undo: task #1 re-assigned to alice",
	}, notes)

	var stats model.Stats
	call(t, http.MethodGet, api+"/stats", nil, &stats)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 2, stats.AssignedLinks)
}

func TestE2E_HealthCheck(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConcurrent_AssignAndRead(t *testing.T) {
	server := setupServer(t)
	api := server.URL + "/api"

	const tasks = 10
	for i := 1; i <= tasks; i++ {
		code := call(t, http.MethodPost, api+"/tasks",
			map[string]interface{}{"username": "owner", "title": fmt.Sprintf("Task %d", i), "priority": i}, nil)
		require.Equal(t, http.StatusCreated, code)
	}

	var wg sync.WaitGroup
	const writers = 5
	const readers = 5

	// every writer assigns all tasks to the same user, twice
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 2; round++ {
				for id := 1; id <= tasks; id++ {
					call(t, http.MethodPost, fmt.Sprintf("%s/tasks/%d/assign", api, id),
						map[string]string{"from": "owner", "to": "shared"}, nil)
				}
			}
		}()
	}
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				var list []model.Task
				assert.Equal(t, http.StatusOK, call(t, http.MethodGet, api+"/users/shared/tasks", nil, &list))
			}
		}()
	}
	wg.Wait()

	var shared []model.Task
	call(t, http.MethodGet, api+"/users/shared/tasks", nil, &shared)
	require.Len(t, shared, tasks, "each task appears once")

	seen := make(map[int64]bool)
	for _, task := range shared {
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
	}

	var notes []string
	call(t, http.MethodGet, api+"/notifications", nil, &notes)
	assert.Len(t, notes, 2*tasks, "one create and one assign notification per task")
}
