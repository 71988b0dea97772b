// Package model はドメインモデルを定義する。
package model

import "time"

// Task はユーザーが管理するタスクを表す。
// 所有者（UserID）は作成時に確定し、以降のどの操作でも変更されない。
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	DueDate     time.Time
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskStatus はタスクの状態を表す。
type TaskStatus string

const (
	// TaskStatusPending は未完了のタスク状態。
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusCompleted は完了済みのタスク状態。
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskPatch はタスクの部分更新を表す。
// nilフィールドは「変更なし」を意味する。所有者は含まれない（変更不可のため）。
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	DueDate     *time.Time
}

// IsEmpty は全フィールドがnil（変更なし）かどうかを判定する。
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil
}

// IsValidTaskStatus は文字列が有効なタスク状態かどうかを判定する。
func IsValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusCompleted:
		return true
	}
	return false
}
