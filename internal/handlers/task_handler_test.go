package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/authz"
	"taskdesk/internal/models"
	"taskdesk/internal/pdf"
	"taskdesk/internal/repositories"
	"taskdesk/internal/services"
)

// ---- in-memory fakes ----

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   int64
	tasks map[int64]*models.TaskRecord
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]*models.TaskRecord{}}
}

func (r *fakeTaskRepo) Store(_ context.Context, task *models.TaskRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	task.ID = r.seq
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id int64) (*models.TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, repositories.ErrNotFound)
	}
	return t.Clone(), nil
}

func (r *fakeTaskRepo) FindAll(_ context.Context) ([]models.TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TaskRecord, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, *t.Clone())
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *models.TaskRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) Create(_ context.Context, _ *models.User) error { return nil }
func (fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id, Name: "User " + strconv.FormatInt(id, 10), Email: "u@example.com"}, nil
}
func (fakeUserRepo) GetByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}
func (fakeUserRepo) List(_ context.Context, _, _ int) ([]*models.User, error) { return nil, nil }
func (fakeUserRepo) NamesByID(_ context.Context) (map[int64]string, error) {
	return map[int64]string{2: "Grace Hopper"}, nil
}
func (fakeUserRepo) GetTelegramSettings(_ context.Context, _ int64) (int64, bool, error) {
	return 0, false, nil
}

// ---- test env ----

type testEnv struct {
	router *gin.Engine
	repo   *fakeTaskRepo
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeTaskRepo()
	users := fakeUserRepo{}
	svc := services.NewTaskService(repo, users)
	files := services.NewFileService(t.TempDir())
	gen := pdf.NewReportGenerator(t.TempDir(), "")
	h := NewTaskHandler(svc, files, gen, nil, nil, users)
	reports := NewReportHandler(svc, 7)

	router := gin.New()
	// auth shortcut: identity comes from headers instead of a JWT
	router.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-User-ID"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			c.Set("user_id", id)
		}
		if v := c.GetHeader("X-Role-ID"); v != "" {
			role, _ := strconv.Atoi(v)
			c.Set("role_id", role)
		}
		c.Next()
	})
	tasks := router.Group("/tasks")
	{
		tasks.POST("/", h.Create)
		tasks.GET("/", h.GetAll)
		tasks.GET("/:id", h.GetByID)
		tasks.DELETE("/:id", h.Delete)
		tasks.PUT("/:id/submit", h.SubmitCompletion)
		tasks.PUT("/:id/complete", h.MarkComplete)
		tasks.PUT("/:id/rework", h.RequestRework)
		tasks.GET("/:id/timeline", h.Timeline)
	}
	router.GET("/reports/summary", reports.GetSummary)

	return &testEnv{router: router, repo: repo}
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any, userID int64, roleID int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	req.Header.Set("X-Role-ID", strconv.Itoa(roleID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) models.TaskRecord {
	t.Helper()
	var task models.TaskRecord
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v (body %s)", err, w.Body.String())
	}
	return task
}

// ---- tests ----

func TestTaskAPILifecycle(t *testing.T) {
	env := setupTestEnv(t)
	tomorrow := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	in3days := time.Now().Add(72 * time.Hour).Format(time.RFC3339)

	// admin creates
	w := doRequest(t, env.router, http.MethodPost, "/tasks/", gin.H{
		"title":       "Spec doc",
		"due_date":    tomorrow,
		"priority":    "high",
		"assigned_to": 2,
	}, 1, authz.RoleAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", w.Code, w.Body.String())
	}
	task := decodeTask(t, w)
	if task.Status != models.StatusPending {
		t.Fatalf("status = %q, want pending", task.Status)
	}
	id := strconv.FormatInt(task.ID, 10)

	// assignee submits
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/submit", gin.H{"feedback": "done"}, 2, authz.RoleAssignee)
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d, body %s", w.Code, w.Body.String())
	}
	task = decodeTask(t, w)
	if task.Status != models.StatusProgress || task.Completion == nil || len(task.ReworkDetails) != 0 {
		t.Fatalf("after submit: %+v", task)
	}

	// reviewer requests rework
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/rework", gin.H{
		"comment":  "Fix formatting",
		"deadline": in3days,
	}, 3, authz.RoleReviewer)
	if w.Code != http.StatusOK {
		t.Fatalf("rework: status %d, body %s", w.Code, w.Body.String())
	}
	task = decodeTask(t, w)
	if task.Status != models.StatusRework || len(task.ReworkDetails) != 1 {
		t.Fatalf("after rework: %+v", task)
	}

	// assignee resubmits, closing the cycle
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/submit", gin.H{"feedback": "fixed"}, 2, authz.RoleAssignee)
	if w.Code != http.StatusOK {
		t.Fatalf("resubmit: status %d, body %s", w.Code, w.Body.String())
	}
	task = decodeTask(t, w)
	if task.Status != models.StatusProgress || task.HasOpenCycle() {
		t.Fatalf("after resubmit: %+v", task)
	}

	// reviewer finalizes
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/complete", nil, 3, authz.RoleReviewer)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status %d, body %s", w.Code, w.Body.String())
	}
	task = decodeTask(t, w)
	if task.Status != models.StatusCompleted {
		t.Fatalf("after complete: %+v", task)
	}

	// terminal: further rework is rejected
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/rework", gin.H{
		"comment":  "one more",
		"deadline": in3days,
	}, 3, authz.RoleReviewer)
	if w.Code != http.StatusConflict {
		t.Fatalf("rework after completion: status %d, want 409", w.Code)
	}

	// timeline shows both submissions
	w = doRequest(t, env.router, http.MethodGet, "/tasks/"+id+"/timeline", nil, 3, authz.RoleReviewer)
	if w.Code != http.StatusOK {
		t.Fatalf("timeline: status %d", w.Code)
	}
	var tl services.Timeline
	if err := json.Unmarshal(w.Body.Bytes(), &tl); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	if tl.Current == nil || tl.Current.Feedback != "fixed" || len(tl.Previous) != 1 {
		t.Fatalf("timeline = %+v", tl)
	}
}

func TestTaskAPIValidation(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("non-admin cannot create", func(t *testing.T) {
		w := doRequest(t, env.router, http.MethodPost, "/tasks/", gin.H{
			"title":    "x",
			"due_date": time.Now().Add(time.Hour).Format(time.RFC3339),
		}, 2, authz.RoleAssignee)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", w.Code)
		}
	})

	t.Run("past due date rejected", func(t *testing.T) {
		w := doRequest(t, env.router, http.MethodPost, "/tasks/", gin.H{
			"title":    "x",
			"due_date": time.Now().Add(-time.Hour).Format(time.RFC3339),
		}, 1, authz.RoleAdmin)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", w.Code)
		}
	})

	t.Run("unknown task is 404", func(t *testing.T) {
		w := doRequest(t, env.router, http.MethodPut, "/tasks/999/complete", nil, 3, authz.RoleReviewer)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", w.Code)
		}
	})

	t.Run("rework without comment rejected", func(t *testing.T) {
		w := doRequest(t, env.router, http.MethodPost, "/tasks/", gin.H{
			"title":    "x",
			"due_date": time.Now().Add(time.Hour).Format(time.RFC3339),
		}, 1, authz.RoleAdmin)
		task := decodeTask(t, w)
		id := strconv.FormatInt(task.ID, 10)
		doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/submit", gin.H{"feedback": "done"}, 2, authz.RoleAssignee)

		w = doRequest(t, env.router, http.MethodPut, "/tasks/"+id+"/rework", gin.H{
			"deadline": time.Now().Add(time.Hour).Format(time.RFC3339),
		}, 3, authz.RoleReviewer)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", w.Code)
		}
	})
}

func TestReportsSummaryEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	w := doRequest(t, env.router, http.MethodPost, "/tasks/", gin.H{
		"title":    "Only task",
		"due_date": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, 1, authz.RoleAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d", w.Code)
	}

	w = doRequest(t, env.router, http.MethodGet, "/reports/summary?window_days=7", nil, 3, authz.RoleReviewer)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: status %d", w.Code)
	}
	var a services.Analytics
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if a.TotalCount != 1 || a.StatusCounts[models.StatusPending] != 1 {
		t.Fatalf("summary = %+v", a)
	}
	if len(a.Trend) != 7 {
		t.Fatalf("trend = %d days, want 7", len(a.Trend))
	}
	if a.CompletionRate != 0 {
		t.Fatalf("completion rate = %v, want 0", a.CompletionRate)
	}
}
