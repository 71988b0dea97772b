// Package task はタスク管理のドメインロジックを提供する。
//
// 全ての操作は呼び出しユーザーの所有スコープ内で行われる。
// 存在しないタスクと他ユーザー所有のタスクは呼び出し側から区別できない
// （所有権の不透明性）。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
)

// CreateInput はタスク作成の入力を表す。
// DueDateはRFC 3339または日付のみ（YYYY-MM-DD）の文字列。
type CreateInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string // 省略時はpending
}

// UpdateInput はタスクの部分更新入力を表す。
// nilフィールドは「変更なし」として扱う。
type UpdateInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Status      *string
}

// ListInput はタスク一覧取得のフィルタ条件を表す。
type ListInput struct {
	Status string // pending/completed以外は無視される
	Search string // タイトル・説明文への部分一致
}

// Service はタスク管理のサービス層。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer security.InputSanitizerService) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
	}
}

// Create はタスクを作成する。
// 所有者は呼び出しユーザーに固定され、以降変更されない。
// 同一入力でも呼び出しごとに新しいタスクが作成される（冪等ではない）。
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*model.Task, error) {
	title := s.sanitizer.Sanitize(in.Title)
	description := s.sanitizer.Sanitize(in.Description)

	fields := map[string]string{}
	if title == "" {
		fields["title"] = "タイトルは必須です。"
	}
	if description == "" {
		fields["description"] = "説明文は必須です。"
	}
	dueDate, ok := parseDueDate(in.DueDate)
	if !ok {
		fields["dueDate"] = "期限日時の形式が正しくありません。"
	}
	status := model.TaskStatusPending
	if in.Status != "" {
		if !model.IsValidTaskStatus(in.Status) {
			fields["status"] = "ステータスはpendingまたはcompletedを指定してください。"
		} else {
			status = model.TaskStatus(in.Status)
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	now := time.Now()
	task := &model.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Status:      status,
		DueDate:     dueDate,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	slog.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", ownerID),
	)

	return task, nil
}

// List は呼び出しユーザーのタスク一覧を作成日時の降順で返す。
// 該当なしは空スライスを返す（エラーではない）。
func (s *Service) List(ctx context.Context, ownerID string, in ListInput) ([]*model.Task, error) {
	query := repository.NewTaskQuery(ownerID).
		WithStatus(in.Status).
		WithSearch(in.Search)

	tasks, err := s.taskRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Get は指定IDのタスクを取得する。
// 存在しない場合と所有者が異なる場合は同一のNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError()
	}
	return task, nil
}

// Update はタスクを部分更新し、更新後のタスクを返す。
// 指定されなかったフィールドは変更しない。
// 同一入力を繰り返し適用しても結果の状態は変わらない。
func (s *Service) Update(ctx context.Context, ownerID, taskID string, in UpdateInput) (*model.Task, error) {
	patch := &model.TaskPatch{}
	fields := map[string]string{}

	if in.Title != nil {
		title := s.sanitizer.Sanitize(*in.Title)
		if title == "" {
			fields["title"] = "タイトルを空にすることはできません。"
		} else {
			patch.Title = &title
		}
	}
	if in.Description != nil {
		description := s.sanitizer.Sanitize(*in.Description)
		if description == "" {
			fields["description"] = "説明文を空にすることはできません。"
		} else {
			patch.Description = &description
		}
	}
	if in.DueDate != nil {
		dueDate, ok := parseDueDate(*in.DueDate)
		if !ok {
			fields["dueDate"] = "期限日時の形式が正しくありません。"
		} else {
			patch.DueDate = &dueDate
		}
	}
	if in.Status != nil {
		if !model.IsValidTaskStatus(*in.Status) {
			fields["status"] = "ステータスはpendingまたはcompletedを指定してください。"
		} else {
			status := model.TaskStatus(*in.Status)
			patch.Status = &status
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	task, err := s.taskRepo.UpdateByIDAndOwner(ctx, taskID, ownerID, patch)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError()
	}

	return task, nil
}

// Delete はタスクを完全に削除する（論理削除ではない）。
// 存在しない場合と所有者が異なる場合は同一のNotFoundエラーを返す。
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	deleted, err := s.taskRepo.DeleteByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError()
	}

	slog.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("user_id", ownerID),
	)

	return nil
}

// parseDueDate は期限日時文字列を解析する。
// RFC 3339と日付のみ（YYYY-MM-DD）の両形式を受け付ける。
func parseDueDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
