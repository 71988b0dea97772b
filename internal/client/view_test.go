package client

import (
	"testing"
	"time"
)

func viewFixture() []Task {
	return []Task{
		{
			ID:          "task-1",
			Title:       "Milk を買う",
			Description: "スーパーで",
			Status:      "pending",
			DueDate:     time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "task-2",
			Title:       "掃除",
			Description: "キッチンとmilkの冷蔵庫",
			Status:      "completed",
			DueDate:     time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "task-3",
			Title:       "あいさつ回り",
			Description: "新しい隣人へ",
			Status:      "pending",
			DueDate:     time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

func taskIDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func assertIDs(t *testing.T, got []Task, want ...string) {
	t.Helper()
	ids := taskIDs(got)
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

// 検索はタイトルまたは説明に対して大文字小文字を区別せずに一致する。
func TestVisibleTasks_SearchIsCaseInsensitive(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{Search: "MILK"})
	// task-1はタイトル、task-2は説明で一致する（期限日昇順）
	assertIDs(t, got, "task-2", "task-1")
}

func TestVisibleTasks_StatusFilter(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{Status: "completed"})
	assertIDs(t, got, "task-2")
}

func TestVisibleTasks_StatusAllDisablesFilter(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{Status: StatusFilterAll})
	if len(got) != 3 {
		t.Errorf("length = %d, want 3", len(got))
	}
}

func TestVisibleTasks_DefaultSortIsDueDateAscending(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{})
	assertIDs(t, got, "task-2", "task-3", "task-1")
}

func TestVisibleTasks_SortByTitle(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{SortBy: SortByTitle})
	// バイト列の辞書順: ASCIIの"Milk"が日本語より先になる
	assertIDs(t, got, "task-1", "task-3", "task-2")
}

func TestVisibleTasks_SortByStatus(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{SortBy: SortByStatus})
	if got[0].Status != "completed" {
		t.Errorf("first status = %q, want %q", got[0].Status, "completed")
	}
}

func TestVisibleTasks_CombinedCriteria(t *testing.T) {
	got := VisibleTasks(viewFixture(), Criteria{Search: "milk", Status: "pending"})
	assertIDs(t, got, "task-1")
}

func TestVisibleTasks_DoesNotMutateInput(t *testing.T) {
	input := viewFixture()

	VisibleTasks(input, Criteria{SortBy: SortByTitle})

	// 元のスライスは順序も内容も変わらない
	assertIDs(t, input, "task-1", "task-2", "task-3")
}

func TestVisibleTasks_EmptyInput(t *testing.T) {
	got := VisibleTasks(nil, Criteria{Search: "milk"})
	if len(got) != 0 {
		t.Errorf("length = %d, want 0", len(got))
	}
}
