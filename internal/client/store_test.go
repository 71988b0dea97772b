package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// storeTestServer はタスクAPIを模擬するテストサーバーと、その上のゲートウェイを返す。
func storeTestServer(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	session, _ := newTestSession(t)
	if err := session.Save(testCredentials()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return NewGateway(server.URL, server.Client(), session)
}

func serverTask(id, title string) Task {
	return Task{
		ID:      id,
		Title:   title,
		Status:  "pending",
		DueDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		UserID:  "user-123",
	}
}

func TestTaskStore_FetchReplacesCollection(t *testing.T) {
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskListBody{
			Tasks: []Task{serverTask("task-1", "買い物"), serverTask("task-2", "掃除")},
			Count: 2,
		})
	})

	store := NewTaskStore()

	if err := store.Fetch(context.Background(), gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := store.State(OpFetch); got != StateFulfilled {
		t.Errorf("state = %q, want %q", got, StateFulfilled)
	}

	tasks := store.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("tasks length = %d, want 2", len(tasks))
	}
	if tasks[0].ID != "task-1" || tasks[1].ID != "task-2" {
		t.Errorf("unexpected order: %q, %q", tasks[0].ID, tasks[1].ID)
	}
}

// 作成成功後、新しいタスクはコレクションの先頭に現れる。
func TestTaskStore_CreatePrependsAtIndexZero(t *testing.T) {
	var counter int32
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(taskListBody{
				Tasks: []Task{serverTask("task-1", "買い物")},
				Count: 1,
			})
		case http.MethodPost:
			n := atomic.AddInt32(&counter, 1)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(serverTask("task-new-"+string(rune('0'+n)), "新しいタスク"))
		}
	})

	store := NewTaskStore()
	ctx := context.Background()

	if err := store.Fetch(ctx, gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if err := store.Create(ctx, gw, TaskInput{Title: "新しいタスク"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tasks := store.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("tasks length = %d, want 2", len(tasks))
	}
	if tasks[0].ID != "task-new-1" {
		t.Errorf("tasks[0].ID = %q, want the newly created task at index 0", tasks[0].ID)
	}
	if tasks[1].ID != "task-1" {
		t.Errorf("tasks[1].ID = %q, want the existing task preserved", tasks[1].ID)
	}
}

func TestTaskStore_UpdateReplacesById(t *testing.T) {
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(taskListBody{
				Tasks: []Task{serverTask("task-1", "買い物"), serverTask("task-2", "掃除")},
				Count: 2,
			})
		case http.MethodPut:
			updated := serverTask("task-2", "掃除")
			updated.Status = "completed"
			json.NewEncoder(w).Encode(updated)
		}
	})

	store := NewTaskStore()
	ctx := context.Background()

	if err := store.Fetch(ctx, gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	completed := "completed"
	if err := store.Update(ctx, gw, "task-2", TaskPatchInput{Status: &completed}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	tasks := store.Tasks()
	if tasks[1].Status != "completed" {
		t.Errorf("tasks[1].status = %q, want %q", tasks[1].Status, "completed")
	}
	// 他のタスクには影響しない
	if tasks[0].Status != "pending" {
		t.Errorf("tasks[0].status = %q, want %q", tasks[0].Status, "pending")
	}
}

// ローカルに存在しないタスクの更新成功は何もしない（クラッシュしない）。
func TestTaskStore_UpdateMissingTaskIsNoop(t *testing.T) {
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(serverTask("task-unknown", "未知"))
	})

	store := NewTaskStore()

	if err := store.Update(context.Background(), gw, "task-unknown", TaskPatchInput{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := store.State(OpUpdate); got != StateFulfilled {
		t.Errorf("state = %q, want %q", got, StateFulfilled)
	}
	if tasks := store.Tasks(); len(tasks) != 0 {
		t.Errorf("tasks length = %d, want 0", len(tasks))
	}
}

// 削除成功後、該当タスクはコレクションから消える。
func TestTaskStore_DeleteRemovesTask(t *testing.T) {
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(taskListBody{
				Tasks: []Task{serverTask("task-1", "買い物"), serverTask("task-2", "掃除")},
				Count: 2,
			})
		case http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})
		}
	})

	store := NewTaskStore()
	ctx := context.Background()

	if err := store.Fetch(ctx, gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if err := store.Delete(ctx, gw, "task-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	tasks := store.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks length = %d, want 1", len(tasks))
	}
	if tasks[0].ID != "task-2" {
		t.Errorf("remaining task = %q, want %q", tasks[0].ID, "task-2")
	}
}

// 取得の失敗は既存のコレクションを壊さず、エラー文字列を記録する。
func TestTaskStore_FetchRejectionKeepsCollection(t *testing.T) {
	var failing atomic.Bool
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			writeTestError(w, http.StatusInternalServerError, model.NewInternalError())
			return
		}
		json.NewEncoder(w).Encode(taskListBody{
			Tasks: []Task{serverTask("task-1", "買い物")},
			Count: 1,
		})
	})

	store := NewTaskStore()
	ctx := context.Background()

	if err := store.Fetch(ctx, gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	failing.Store(true)
	if err := store.Fetch(ctx, gw, "", ""); err == nil {
		t.Fatal("expected error from failing fetch")
	}

	if got := store.State(OpFetch); got != StateRejected {
		t.Errorf("state = %q, want %q", got, StateRejected)
	}
	if msg := store.Err(OpFetch); msg == "" {
		t.Error("expected a human-readable error message")
	}
	// 以前の取得結果はそのまま残る
	if tasks := store.Tasks(); len(tasks) != 1 {
		t.Errorf("tasks length = %d, want 1 (prior collection intact)", len(tasks))
	}
}

// pendingへの遷移は、そのクラスの前回エラーを消去する。
func TestTaskStore_PendingClearsPriorError(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			writeTestError(w, http.StatusInternalServerError, model.NewInternalError())
			return
		}
		json.NewEncoder(w).Encode(taskListBody{Tasks: []Task{}})
	})

	store := NewTaskStore()
	ctx := context.Background()

	if err := store.Fetch(ctx, gw, "", ""); err == nil {
		t.Fatal("expected error from failing fetch")
	}
	if msg := store.Err(OpFetch); msg == "" {
		t.Fatal("expected error message after rejection")
	}

	failing.Store(false)
	if err := store.Fetch(ctx, gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if msg := store.Err(OpFetch); msg != "" {
		t.Errorf("error = %q, want cleared after successful retry", msg)
	}
}

// 操作クラスごとの状態は独立している。
func TestTaskStore_OperationStatesAreIndependent(t *testing.T) {
	gw := storeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(taskListBody{Tasks: []Task{}})
		case http.MethodDelete:
			writeTestError(w, http.StatusNotFound, model.NewTaskNotFoundError())
		}
	})

	store := NewTaskStore()
	ctx := context.Background()

	if err := store.Fetch(ctx, gw, "", ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if err := store.Delete(ctx, gw, "unknown"); err == nil {
		t.Fatal("expected error from failing delete")
	}

	if got := store.State(OpFetch); got != StateFulfilled {
		t.Errorf("fetch state = %q, want %q", got, StateFulfilled)
	}
	if got := store.State(OpDelete); got != StateRejected {
		t.Errorf("delete state = %q, want %q", got, StateRejected)
	}
	if got := store.State(OpCreate); got != StateIdle {
		t.Errorf("create state = %q, want %q", got, StateIdle)
	}
}
