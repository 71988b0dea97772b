package repository

import (
	"fmt"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

// TaskQuery はタスク一覧取得の条件を型安全に構築するビルダー。
//
// 所有者スコープは生成時に必ず先頭の述語として組み込まれ、
// クライアント入力から導出・上書きすることはできない。
// 検証済みの述語のみを追加し、不明なステータス値は黙って無視する。
// 構築のみを行い実行の副作用を持たないため、単体で検証できる。
type TaskQuery struct {
	ownerID string
	status  *model.TaskStatus
	search  string
}

// NewTaskQuery は指定した所有者にスコープされたクエリビルダーを生成する。
func NewTaskQuery(ownerID string) *TaskQuery {
	return &TaskQuery{ownerID: ownerID}
}

// WithStatus は有効なステータス値の場合のみ等価述語を追加する。
// pending/completed以外の値はエラーにせず黙って無視する。
func (q *TaskQuery) WithStatus(status string) *TaskQuery {
	if model.IsValidTaskStatus(status) {
		s := model.TaskStatus(status)
		q.status = &s
	}
	return q
}

// WithSearch はタイトルまたは説明文への大文字小文字を区別しない
// 部分一致述語を追加する。空文字列は無視する。
func (q *TaskQuery) WithSearch(text string) *TaskQuery {
	q.search = strings.TrimSpace(text)
	return q
}

// Where はWHERE句のSQL断片とバインド引数を返す。
// 所有者述語が常に先頭に置かれる。
func (q *TaskQuery) Where() (string, []interface{}) {
	clauses := []string{"user_id = $1"}
	args := []interface{}{q.ownerID}

	if q.status != nil {
		args = append(args, string(*q.status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if q.search != "" {
		args = append(args, "%"+escapeLike(q.search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	return strings.Join(clauses, " AND "), args
}

// OrderBy はORDER BY句のSQL断片を返す。一覧は常に作成日時の降順。
func (q *TaskQuery) OrderBy() string {
	return "created_at DESC"
}

// escapeLike はLIKEパターンのメタ文字をエスケープし、
// 検索文字列をリテラルとして扱わせる。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
