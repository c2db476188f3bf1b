package httpui_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tasksync/internal/httpui"
	"tasksync/internal/report"
	"tasksync/internal/service"
	"tasksync/internal/store"
	"tasksync/internal/testutil"
)

type stateBody struct {
	Tasks   []service.Task    `json:"tasks"`
	Loading bool              `json:"loading"`
	Status  map[string]string `json:"status"`
	Error   string            `json:"error"`
}

func setup(t *testing.T, backend *testutil.FakeBackend) (http.Handler, *store.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := store.New(backend, store.WithReporter(report.Nop{}))
	return httpui.New(ctrl, nil).Handler(), ctrl
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, stateBody) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	var got stateBody
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode %s %s: %v (body %q)", method, path, err, resp.Body.String())
	}
	return resp.Code, got
}

func TestHealthz(t *testing.T) {
	h, _ := setup(t, testutil.NewFakeBackend())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}
}

func TestReloadThenState(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.Seed("a", "older", false, testutil.BaseTime)
	backend.Seed("b", "newer", true, testutil.BaseTime.Add(time.Minute))
	h, _ := setup(t, backend)

	code, got := do(t, h, http.MethodPost, "/api/reload", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].ID != "b" || !got.Tasks[0].IsCompleted {
		t.Errorf("unexpected tasks %+v", got.Tasks)
	}

	code, got = do(t, h, http.MethodGet, "/api/state", "")
	if code != http.StatusOK || len(got.Tasks) != 2 {
		t.Errorf("unexpected state %d %+v", code, got)
	}
}

func TestCreateTask(t *testing.T) {
	backend := testutil.NewFakeBackend()
	h, _ := setup(t, backend)

	code, got := do(t, h, http.MethodPost, "/api/tasks", `{"task":"Write tests"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", code, got.Error)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Task != "Write tests" {
		t.Errorf("unexpected tasks %+v", got.Tasks)
	}
	if backend.Len() != 1 {
		t.Errorf("expected one task on backend, got %d", backend.Len())
	}
}

func TestCreateTask_BlankIsBadRequest(t *testing.T) {
	backend := testutil.NewFakeBackend()
	h, _ := setup(t, backend)

	code, got := do(t, h, http.MethodPost, "/api/tasks", `{"task":"   "}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
	if got.Error == "" {
		t.Error("expected error message")
	}
	if backend.CallCount("create") != 0 {
		t.Errorf("expected no create call, got %d", backend.CallCount("create"))
	}
}

func TestCreateTask_InvalidJSON(t *testing.T) {
	h, _ := setup(t, testutil.NewFakeBackend())

	code, _ := do(t, h, http.MethodPost, "/api/tasks", `{`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestCreateTask_BackendFailure(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.CreateErr = errors.New("insert failed")
	h, _ := setup(t, backend)

	code, got := do(t, h, http.MethodPost, "/api/tasks", `{"task":"x"}`)
	if code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", code)
	}
	if !strings.Contains(got.Error, "insert failed") {
		t.Errorf("expected backend error in body, got %q", got.Error)
	}
}

func TestToggleTask(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.Seed("a", "task", false, testutil.BaseTime)
	h, ctrl := setup(t, backend)
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	code, got := do(t, h, http.MethodPost, "/api/tasks/a/toggle", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", code, got.Error)
	}
	if !got.Tasks[0].IsCompleted {
		t.Error("expected task completed")
	}
	if got.Status["a"] != "idle" {
		t.Errorf("expected idle status, got %q", got.Status["a"])
	}
}

func TestToggleTask_UnknownIDIsNotFound(t *testing.T) {
	backend := testutil.NewFakeBackend()
	h, _ := setup(t, backend)

	code, _ := do(t, h, http.MethodPost, "/api/tasks/missing/toggle", "")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if backend.CallCount("update") != 0 {
		t.Errorf("expected no update call, got %d", backend.CallCount("update"))
	}
}

func TestDeleteTask(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.Seed("a", "keep", false, testutil.BaseTime.Add(time.Minute))
	backend.Seed("b", "drop", false, testutil.BaseTime)
	h, ctrl := setup(t, backend)
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	code, got := do(t, h, http.MethodDelete, "/api/tasks/b", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", code, got.Error)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "a" {
		t.Errorf("unexpected tasks %+v", got.Tasks)
	}
}

func TestDeleteTask_BackendNotFound(t *testing.T) {
	h, _ := setup(t, testutil.NewFakeBackend())

	code, _ := do(t, h, http.MethodDelete, "/api/tasks/nope", "")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}
