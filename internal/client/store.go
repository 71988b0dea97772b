package client

import (
	"context"
	"sync"
)

// Op はタスクストアの操作クラスを表す。
type Op string

const (
	// OpFetch は一覧取得操作。
	OpFetch Op = "fetch"
	// OpCreate は作成操作。
	OpCreate Op = "create"
	// OpUpdate は更新操作。
	OpUpdate Op = "update"
	// OpDelete は削除操作。
	OpDelete Op = "delete"
)

// OpState は操作クラスごとの進行状態を表す。
// idle → pending → fulfilled または rejected の順に遷移する。
type OpState string

const (
	// StateIdle は未実行の状態。
	StateIdle OpState = "idle"
	// StatePending は実行中の状態。
	StatePending OpState = "pending"
	// StateFulfilled は成功完了の状態。
	StateFulfilled OpState = "fulfilled"
	// StateRejected は失敗完了の状態。
	StateRejected OpState = "rejected"
)

// TaskStore はローカルのタスクコレクションと操作状態を保持する。
// 操作クラスごとに独立した状態機械を持ち、重複実行時は後勝ちで
// コレクションを更新する。排他制御はミューテックスで行う。
type TaskStore struct {
	mu     sync.Mutex
	tasks  []Task
	states map[Op]OpState
	errs   map[Op]string
}

// NewTaskStore はTaskStoreを生成する。全操作クラスはidleから始まる。
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: []Task{},
		states: map[Op]OpState{
			OpFetch:  StateIdle,
			OpCreate: StateIdle,
			OpUpdate: StateIdle,
			OpDelete: StateIdle,
		},
		errs: map[Op]string{},
	}
}

// begin は操作クラスをpendingへ遷移させ、そのクラスの前回エラーを消去する。
func (s *TaskStore) begin(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[op] = StatePending
	delete(s.errs, op)
}

// reject は操作クラスをrejectedへ遷移させ、エラーメッセージを記録する。
// コレクションには触れない。
func (s *TaskStore) reject(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[op] = StateRejected
	s.errs[op] = err.Error()
}

// Fetch は一覧を取得し、成功時にコレクション全体を置き換える。
func (s *TaskStore) Fetch(ctx context.Context, gw *Gateway, status, search string) error {
	s.begin(OpFetch)

	tasks, err := gw.FetchTasks(ctx, status, search)
	if err != nil {
		s.reject(OpFetch, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[OpFetch] = StateFulfilled
	s.tasks = tasks
	return nil
}

// Create はタスクを作成し、成功時にコレクションの先頭へ追加する。
func (s *TaskStore) Create(ctx context.Context, gw *Gateway, in TaskInput) error {
	s.begin(OpCreate)

	created, err := gw.CreateTask(ctx, in)
	if err != nil {
		s.reject(OpCreate, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[OpCreate] = StateFulfilled
	s.tasks = append([]Task{*created}, s.tasks...)
	return nil
}

// Update はタスクを更新し、成功時にID一致のタスクを置き換える。
// ローカルに存在しない場合は何もしない。
func (s *TaskStore) Update(ctx context.Context, gw *Gateway, taskID string, in TaskPatchInput) error {
	s.begin(OpUpdate)

	updated, err := gw.UpdateTask(ctx, taskID, in)
	if err != nil {
		s.reject(OpUpdate, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[OpUpdate] = StateFulfilled
	for i := range s.tasks {
		if s.tasks[i].ID == updated.ID {
			s.tasks[i] = *updated
			break
		}
	}
	return nil
}

// Delete はタスクを削除し、成功時にID一致のタスクをコレクションから除去する。
func (s *TaskStore) Delete(ctx context.Context, gw *Gateway, taskID string) error {
	s.begin(OpDelete)

	if err := gw.DeleteTask(ctx, taskID); err != nil {
		s.reject(OpDelete, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[OpDelete] = StateFulfilled
	remaining := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != taskID {
			remaining = append(remaining, t)
		}
	}
	s.tasks = remaining
	return nil
}

// Tasks は現在のコレクションのコピーを返す。
func (s *TaskStore) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// State は操作クラスの現在の状態を返す。
func (s *TaskStore) State(op Op) OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[op]
}

// Err は操作クラスの最後のエラーメッセージを返す。エラーなしの場合は空文字列を返す。
func (s *TaskStore) Err(op Op) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[op]
}
