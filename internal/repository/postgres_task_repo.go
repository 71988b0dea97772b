package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
//
// 更新・削除は所有権チェックと変更を単一の条件付きSQL文で行い、
// 同一ドキュメントへの並行削除とのcheck-then-act競合を排除する。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, status, due_date, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.Title, task.Description, string(task.Status),
		task.DueDate, task.UserID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// List はクエリビルダーが構築した条件でタスク一覧を取得する。
// 該当なしの場合は空スライスを返す。
func (r *PostgresTaskRepo) List(ctx context.Context, query *TaskQuery) ([]*model.Task, error) {
	where, args := query.Where()
	sqlStr := fmt.Sprintf(
		`SELECT id, title, description, status, due_date, user_id, created_at, updated_at
		 FROM tasks WHERE %s ORDER BY %s`,
		where, query.OrderBy(),
	)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task := &model.Task{}
		var status string
		if err := rows.Scan(
			&task.ID, &task.Title, &task.Description, &status,
			&task.DueDate, &task.UserID, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		task.Status = model.TaskStatus(status)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}

	return tasks, nil
}

// FindByIDAndOwner はIDと所有者の両方でタスクを取得する。
// 存在しない場合と所有者が異なる場合のどちらもnilを返す。
func (r *PostgresTaskRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Task, error) {
	task := &model.Task{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, due_date, user_id, created_at, updated_at
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(
		&task.ID, &task.Title, &task.Description, &status,
		&task.DueDate, &task.UserID, &task.CreatedAt, &task.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}

	task.Status = model.TaskStatus(status)
	return task, nil
}

// UpdateByIDAndOwner は所有権チェックと更新を単一のUPDATE文で原子的に行う。
// patchのnilフィールドはCOALESCEにより既存の値を維持する。
// 該当行がない場合（存在しない・所有者が異なる）はnilを返す。
func (r *PostgresTaskRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, patch *model.TaskPatch) (*model.Task, error) {
	task := &model.Task{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`UPDATE tasks SET
		    title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    status      = COALESCE($5, status),
		    due_date    = COALESCE($6, due_date),
		    updated_at  = $7
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, title, description, status, due_date, user_id, created_at, updated_at`,
		id, ownerID,
		nullString(patch.Title), nullString(patch.Description),
		nullStatus(patch.Status), nullTime(patch.DueDate),
		time.Now(),
	).Scan(
		&task.ID, &task.Title, &task.Description, &status,
		&task.DueDate, &task.UserID, &task.CreatedAt, &task.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}

	task.Status = model.TaskStatus(status)
	return task, nil
}

// DeleteByIDAndOwner は所有権チェックと削除を単一のDELETE文で原子的に行う。
// 削除された場合はtrue、該当行がない場合はfalseを返す。
func (r *PostgresTaskRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// nullString は*stringをsql.NullStringに変換する。
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullStatus は*model.TaskStatusをsql.NullStringに変換する。
func nullStatus(s *model.TaskStatus) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
