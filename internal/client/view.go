package client

import (
	"sort"
	"strings"
)

// SortKey は表示フィルタのソートキーを表す。
type SortKey string

const (
	// SortByDueDate は期限日の昇順ソート。
	SortByDueDate SortKey = "dueDate"
	// SortByTitle はタイトルの辞書順ソート。
	SortByTitle SortKey = "title"
	// SortByStatus は状態の辞書順ソート。
	SortByStatus SortKey = "status"
)

// StatusFilterAll は状態による絞り込みを行わないことを表す。
const StatusFilterAll = "all"

// Criteria は表示フィルタの条件。
type Criteria struct {
	Search string  // タイトルまたは説明への部分一致（大文字小文字を区別しない）
	Status string  // 状態の完全一致。空または"all"なら絞り込みなし
	SortBy SortKey // ソートキー。未指定なら期限日昇順
}

// VisibleTasks はローカルコレクションから表示対象のタスクを導出する純関数。
// 入力のコレクションは変更しない。
func VisibleTasks(tasks []Task, c Criteria) []Task {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Status != "" && c.Status != StatusFilterAll && t.Status != c.Status {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}

	sortKey := c.SortBy
	if sortKey == "" {
		sortKey = SortByDueDate
	}

	switch sortKey {
	case SortByTitle:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case SortByStatus:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	}

	return out
}

// matchesSearch はタイトルまたは説明が検索文字列を含むかどうかを判定する。
func matchesSearch(t Task, lowered string) bool {
	return strings.Contains(strings.ToLower(t.Title), lowered) ||
		strings.Contains(strings.ToLower(t.Description), lowered)
}
