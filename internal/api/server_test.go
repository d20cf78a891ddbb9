package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type recorder struct {
	puts    []string
	deletes []string
}

func (r *recorder) Put(rec model.Record)           { r.puts = append(r.puts, rec.RecordID()) }
func (r *recorder) Delete(_ model.Kind, id string) { r.deletes = append(r.deletes, id) }

type envelope struct {
	Success bool            `json:"success"`
	Version uint64          `json:"version"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*Server, *store.Store, *recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.New(store.WithClock(func() time.Time { return fixedNow }))
	st.SetProjects([]*model.Project{{ID: "P1", Name: "Home"}})
	st.SetSections([]*model.Section{{ID: "S1", Name: "Kitchen", ProjectID: "P1"}})
	st.SetLabels([]*model.Label{{ID: "L1", Name: "quick"}})
	st.SetItems([]*model.Task{
		{ID: "T1", Content: "Buy milk", ProjectID: "P1", SectionID: "S1"},
		{ID: "T2", Content: "Call mum"},
		{ID: "T3", Content: "Old", Checked: true},
	})
	rec := &recorder{}
	return NewServer(st, rec, WithClock(func() time.Time { return fixedNow })), st, rec
}

func do(t *testing.T, s *Server, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func taskIDs(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(raw, &tasks))
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func TestHandleView(t *testing.T) {
	s, st, _ := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/views/inbox", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, st.Version(), env.Version)
	assert.Equal(t, []string{"T2"}, taskIDs(t, env.Data))
	assert.Equal(t, `"v4"`, w.Header().Get("ETag"))

	_, env = do(t, s, http.MethodGet, "/api/views/completed", nil)
	assert.Equal(t, []string{"T3"}, taskIDs(t, env.Data))

	_, env = do(t, s, http.MethodGet, "/api/views/pinned", nil)
	assert.Equal(t, "[]", string(env.Data))
}

func TestHandleView_Unknown(t *testing.T) {
	s, _, _ := newTestServer(t)
	w, env := do(t, s, http.MethodGet, "/api/views/someday", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestNotModifiedUntilVersionChanges(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/api/views/inbox", nil)
	tag := w.Header().Get("ETag")

	w, _ = do(t, s, http.MethodGet, "/api/views/inbox", nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	do(t, s, http.MethodPost, "/api/tasks", map[string]any{"content": "New"})

	w, _ = do(t, s, http.MethodGet, "/api/views/inbox", nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, tag, w.Header().Get("ETag"))
}

func TestHandleProjectAndSectionTasks(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, env := do(t, s, http.MethodGet, "/api/projects/P1/tasks", nil)
	assert.Equal(t, []string{"T1"}, taskIDs(t, env.Data))

	_, env = do(t, s, http.MethodGet, "/api/sections/S1/tasks", nil)
	assert.Equal(t, []string{"T1"}, taskIDs(t, env.Data))

	w, _ := do(t, s, http.MethodGet, "/api/projects/P9/tasks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreateTask(t *testing.T) {
	s, st, rec := newTestServer(t)
	before := st.Version()

	w, env := do(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"content":    "Fix tap",
		"project_id": "P1",
		"section_id": "S1",
		"labels":     []string{"L1"},
		"priority":   1,
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)

	var got model.Task
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "/api/tasks/"+got.ID, w.Header().Get("Location"))
	assert.Equal(t, before+1, st.Version())
	assert.Len(t, st.ItemsBySection("S1"), 2)
	assert.Equal(t, []string{got.ID}, rec.puts)
}

func TestHandleCreateTask_Rejects(t *testing.T) {
	s, st, rec := newTestServer(t)
	before := st.Version()

	cases := []map[string]any{
		{},
		{"content": "x", "project_id": "P9"},
		{"content": "x", "section_id": "S1"},
		{"content": "x", "labels": []string{"L9"}},
		{"content": "x", "parent_id": "T9"},
	}
	for _, body := range cases {
		w, env := do(t, s, http.MethodPost, "/api/tasks", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.False(t, env.Success)
	}
	assert.Equal(t, before, st.Version())
	assert.Empty(t, rec.puts)
}

func TestHandleUpdateTask(t *testing.T) {
	s, st, rec := newTestServer(t)

	w, env := do(t, s, http.MethodPut, "/api/tasks/T2", map[string]any{"project_id": "P1", "pinned": true})
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	got, _ := st.Item("T2")
	assert.Equal(t, "P1", got.ProjectID)
	assert.Equal(t, "Call mum", got.Content)
	assert.True(t, got.Pinned)
	assert.Len(t, st.ItemsByProject("P1"), 2)
	assert.Equal(t, []string{"T2"}, rec.puts)

	w, _ = do(t, s, http.MethodPut, "/api/tasks/T9", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateTask_RejectsParentLoop(t *testing.T) {
	s, st, _ := newTestServer(t)
	do(t, s, http.MethodPut, "/api/tasks/T2", map[string]any{"parent_id": "T1"})

	w, _ := do(t, s, http.MethodPut, "/api/tasks/T1", map[string]any{"parent_id": "T2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	got, _ := st.Item("T1")
	assert.Empty(t, got.ParentID)
}

func TestHandleCloseAndReopen(t *testing.T) {
	s, st, _ := newTestServer(t)

	w, _ := do(t, s, http.MethodPost, "/api/tasks/T2/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, _ := st.Item("T2")
	assert.True(t, got.Checked)
	require.NotNil(t, got.CompletedAt)

	do(t, s, http.MethodPost, "/api/tasks/T2/reopen", nil)
	got, _ = st.Item("T2")
	assert.False(t, got.Checked)
	assert.Nil(t, got.CompletedAt)
}

func TestHandleClose_RecurringRollsForward(t *testing.T) {
	s, st, rec := newTestServer(t)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	st.UpdateItem(&model.Task{ID: "T4", Content: "Water plants", Due: &model.Due{
		Date: day, Recurring: true, Recurrence: model.RecurrenceDaily, Interval: 2,
	}})
	before := st.Version()

	w, env := do(t, s, http.MethodPost, "/api/tasks/T4/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, env.Version)

	got, _ := st.Item("T4")
	assert.False(t, got.Checked)
	assert.Nil(t, got.CompletedAt)
	require.NotNil(t, got.Due)
	assert.Equal(t, day.AddDate(0, 0, 2), got.Due.Date)
	require.NotEmpty(t, rec.puts)
	assert.Equal(t, "T4", rec.puts[len(rec.puts)-1])

	w, env = do(t, s, http.MethodGet, "/api/views/completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, taskIDs(t, env.Data), "T4")
}

func TestHandleDeleteTask_RemovesSubtasks(t *testing.T) {
	s, st, rec := newTestServer(t)
	do(t, s, http.MethodPut, "/api/tasks/T2", map[string]any{"parent_id": "T1"})
	before := st.Version()

	w, _ := do(t, s, http.MethodDelete, "/api/tasks/T1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, ok := st.Item("T2")
	assert.False(t, ok)
	assert.Equal(t, before+2, st.Version())
	assert.Equal(t, []string{"T1", "T2"}, rec.deletes)
	require.NoError(t, st.CheckConsistency())

	w, _ = do(t, s, http.MethodDelete, "/api/tasks/T1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSearch_NonASCII(t *testing.T) {
	s, st, _ := newTestServer(t)
	st.UpdateItem(&model.Task{ID: "T4", Content: "Teeth", Description: strings.Repeat("Ⱥ", 100) + " dentist"})

	w, env := do(t, s, http.MethodGet, "/api/search?q="+url.QueryEscape("DENTIST"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results []store.SearchResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "T4", results[0].ID)
	assert.True(t, strings.HasSuffix(results[0].Snippet, "Ⱥ dentist"))
	assert.True(t, utf8.ValidString(results[0].Snippet))
}

func TestHandleSearchAndLists(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, env := do(t, s, http.MethodGet, "/api/search?q=milk", nil)
	var results []store.SearchResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "T1", results[0].ID)

	w, _ := do(t, s, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env = do(t, s, http.MethodGet, "/api/projects", nil)
	assert.Contains(t, string(env.Data), `"Home"`)
	_, env = do(t, s, http.MethodGet, "/api/labels", nil)
	assert.Contains(t, string(env.Data), `"quick"`)
	_, env = do(t, s, http.MethodGet, "/api/tasks/T1", nil)
	assert.Contains(t, string(env.Data), `"Buy milk"`)
	_, env = do(t, s, http.MethodGet, "/api/version", nil)
	assert.Equal(t, uint64(4), env.Version)
}
