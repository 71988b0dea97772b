// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/taskman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// 全ての読み書きが所有者スコープで行われる。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// List はクエリビルダーが構築した条件でタスク一覧を取得する。
	// 該当なしの場合は空スライスを返す（エラーではない）。
	List(ctx context.Context, query *TaskQuery) ([]*model.Task, error)

	// FindByIDAndOwner はIDと所有者の両方でタスクを取得する。
	// 存在しない場合と所有者が異なる場合のどちらもnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Task, error)

	// UpdateByIDAndOwner は所有権チェックと更新を単一のUPDATE文で原子的に行い、
	// 更新後のタスクを返す。該当行がない場合はnilを返す。
	// patchのnilフィールドは変更せず、既存の値を維持する部分更新を行う。
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, patch *model.TaskPatch) (*model.Task, error)

	// DeleteByIDAndOwner は所有権チェックと削除を単一のDELETE文で原子的に行う。
	// 削除された場合はtrue、該当行がない場合はfalseを返す。
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)
}
