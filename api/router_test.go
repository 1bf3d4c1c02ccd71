package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mkraemer/weekmaster/internal/models"
	"github.com/mkraemer/weekmaster/internal/repository"
	"github.com/mkraemer/weekmaster/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type refIDs struct {
	user       uint
	priority   uint
	statusOpen uint
	statusDone uint
	tag        uint
}

// newTestRouter wires the full engine against an in-memory sqlite database
// seeded with a minimal vocabulary.
func newTestRouter(t *testing.T) (*gin.Engine, refIDs) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var ids refIDs
	user := models.User{Name: "MS"}
	priority := models.Priority{Name: "Hoch"}
	open := models.Status{Name: models.StatusOpen}
	done := models.Status{Name: models.StatusCompleted}
	tag := models.Tag{Name: "Garten"}
	for _, rec := range []any{&user, &priority, &open, &done, &tag} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed vocabulary: %v", err)
		}
	}
	ids.user, ids.priority = user.ID, priority.ID
	ids.statusOpen, ids.statusDone = open.ID, done.ID
	ids.tag = tag.ID

	return SetupRouter(db), ids
}

func perform(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func validTask(ids refIDs) service.TaskInput {
	return service.TaskInput{
		Description: "Hecke schneiden",
		HasDeadline: true,
		DueDate:     "2025-09-20",
		UserID:      ids.user,
		PriorityID:  ids.priority,
		StatusID:    ids.statusOpen,
		TagIDs:      []uint{ids.tag},
	}
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	w := perform(t, r, http.MethodGet, "/ping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := decode[map[string]string](t, w); body["message"] != "pong" {
		t.Errorf("body = %v", body)
	}
}

func TestTaskLifecycle(t *testing.T) {
	r, ids := newTestRouter(t)

	w := perform(t, r, http.MethodPost, "/tasks", validTask(ids))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := decode[service.TaskRow](t, w)
	if created.Description != "Hecke schneiden" || created.DueDate != "2025-09-20" {
		t.Errorf("created row = %+v", created)
	}
	if created.StatusName != models.StatusOpen || created.Tags != "Garten" {
		t.Errorf("created row = %+v", created)
	}

	w = perform(t, r, http.MethodGet, "/tasks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if rows := decode[[]service.TaskRow](t, w); len(rows) != 1 || rows[0].ID != created.ID {
		t.Errorf("list = %+v", rows)
	}

	patch := map[string]uint{"status_id": ids.statusDone}
	w = perform(t, r, http.MethodPatch, "/tasks/"+strconv.Itoa(int(created.ID))+"/status", patch)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", w.Code, w.Body.String())
	}
	if row := decode[service.TaskRow](t, w); row.StatusName != models.StatusCompleted {
		t.Errorf("patched row = %+v", row)
	}

	w = perform(t, r, http.MethodDelete, "/tasks/"+strconv.Itoa(int(created.ID)), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Task deleted successfully") {
		t.Errorf("delete body = %s", w.Body.String())
	}

	w = perform(t, r, http.MethodGet, "/tasks", nil)
	if rows := decode[[]service.TaskRow](t, w); len(rows) != 0 {
		t.Errorf("tasks left after delete: %+v", rows)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	r, ids := newTestRouter(t)

	cases := []struct {
		name   string
		mutate func(*service.TaskInput)
	}{
		{"blank description", func(in *service.TaskInput) { in.Description = "  " }},
		{"flag without date", func(in *service.TaskInput) { in.DueDate = "" }},
		{"malformed date", func(in *service.TaskInput) { in.DueDate = "20.09.2025" }},
		{"unknown tag", func(in *service.TaskInput) { in.TagIDs = []uint{4242} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validTask(ids)
			tc.mutate(&in)
			w := perform(t, r, http.MethodPost, "/tasks", in)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			if body := decode[map[string]string](t, w); body["error"] == "" {
				t.Errorf("missing error message: %s", w.Body.String())
			}
		})
	}
}

func TestStorageErrorIsOpaque(t *testing.T) {
	r, ids := newTestRouter(t)

	// referencing a missing user trips the foreign key, which must surface
	// as a generic 500 without leaking the driver error
	in := validTask(ids)
	in.UserID = 4242
	w := perform(t, r, http.MethodPost, "/tasks", in)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body := decode[map[string]string](t, w); body["error"] != "Database error" {
		t.Errorf("error = %q, want Database error", body["error"])
	}
}

func TestTaskNotFoundAndBadParams(t *testing.T) {
	r, ids := newTestRouter(t)

	w := perform(t, r, http.MethodPut, "/tasks/4242", validTask(ids))
	if w.Code != http.StatusNotFound {
		t.Errorf("update unknown task: status = %d, body %s", w.Code, w.Body.String())
	}

	w = perform(t, r, http.MethodDelete, "/tasks/4242", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete unknown task: status = %d", w.Code)
	}

	w = perform(t, r, http.MethodGet, "/tasks/user/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric user id: status = %d", w.Code)
	}
}

func TestTagEndpoints(t *testing.T) {
	r, ids := newTestRouter(t)

	w := perform(t, r, http.MethodPost, "/tags", map[string]string{"name": "Werkstatt"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag: status = %d, body %s", w.Code, w.Body.String())
	}

	w = perform(t, r, http.MethodPost, "/tags", map[string]string{"name": "garten"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate tag: status = %d, body %s", w.Code, w.Body.String())
	}

	mustCreateTaskHTTP(t, r, ids)
	w = perform(t, r, http.MethodDelete, "/tags/"+strconv.Itoa(int(ids.tag)), nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete used tag: status = %d, body %s", w.Code, w.Body.String())
	}

	w = perform(t, r, http.MethodGet, "/tags/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search without q: status = %d", w.Code)
	}

	w = perform(t, r, http.MethodGet, "/tags/search?q=gar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: status = %d", w.Code)
	}
	if infos := decode[[]service.TagInfo](t, w); len(infos) != 1 || infos[0].Name != "Garten" {
		t.Errorf("search result = %+v", infos)
	}
}

func mustCreateTaskHTTP(t *testing.T, r *gin.Engine, ids refIDs) {
	t.Helper()
	if w := perform(t, r, http.MethodPost, "/tasks", validTask(ids)); w.Code != http.StatusCreated {
		t.Fatalf("create task: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestDashboardAndReferenceRoutes(t *testing.T) {
	r, ids := newTestRouter(t)
	mustCreateTaskHTTP(t, r, ids)

	w := perform(t, r, http.MethodGet, "/dashboard/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", w.Code)
	}
	if stats := decode[service.DashboardStats](t, w); stats.TotalTasks != 1 || stats.OpenTasks != 1 {
		t.Errorf("stats = %+v", stats)
	}

	w = perform(t, r, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status list: status = %d", w.Code)
	}
	if statuses := decode[[]models.Status](t, w); len(statuses) != 2 {
		t.Errorf("statuses = %+v", statuses)
	}

	w = perform(t, r, http.MethodGet, "/dashboard/priorities", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("priorities: status = %d", w.Code)
	}
	if stats := decode[[]service.PriorityStat](t, w); len(stats) != 1 || stats[0].TaskCount != 1 {
		t.Errorf("priority distribution = %+v", stats)
	}
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := newTestRouter(t)

	w := perform(t, r, http.MethodGet, "/ping", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "test-id-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "test-id-1" {
		t.Errorf("X-Request-ID = %q, want echoed test-id-1", got)
	}
}
