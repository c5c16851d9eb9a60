package services

import (
	"testing"

	"taskdesk/internal/models"
)

func sampleTasks() []models.TaskRecord {
	uid := int64(42)
	return []models.TaskRecord{
		{ID: 1, Title: "Write spec", Description: "draft the spec document", Status: models.StatusPending, Priority: models.PriorityHigh, Tags: []string{"docs"}},
		{ID: 2, Title: "Fix login", Description: "bcrypt mismatch", Status: models.StatusProgress, Priority: models.PriorityCritical, AssignedTo: &uid},
		{ID: 3, Title: "Refactor queries", Description: "slow listing", Status: models.StatusPending, Priority: models.PriorityLow, Tags: []string{"performance", "db"}},
		{ID: 4, Title: "Update charts", Description: "weekly trend", Status: models.StatusCompleted, Priority: models.PriorityHigh},
	}
}

func TestQuerySortNewestFirst(t *testing.T) {
	res := Query(sampleTasks(), QueryParams{Page: 1, PageSize: 10})
	if res.TotalCount != 4 {
		t.Fatalf("total = %d, want 4", res.TotalCount)
	}
	for i := 1; i < len(res.Tasks); i++ {
		if res.Tasks[i-1].ID < res.Tasks[i].ID {
			t.Fatalf("not sorted desc by id: %d before %d", res.Tasks[i-1].ID, res.Tasks[i].ID)
		}
	}
}

func TestQueryConjunctiveFilters(t *testing.T) {
	st := models.StatusPending
	pr := models.PriorityHigh
	res := Query(sampleTasks(), QueryParams{Status: &st, Priority: &pr, Page: 1, PageSize: 10})
	if res.TotalCount != 1 || res.Tasks[0].ID != 1 {
		t.Fatalf("result = %+v, want only task 1", res.Tasks)
	}
}

func TestQueryFreeText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		names   map[int64]string
		wantIDs []int64
	}{
		{"title match case-insensitive", "FIX", nil, []int64{2}},
		{"description match", "weekly", nil, []int64{4}},
		{"tag match", "performance", nil, []int64{3}},
		{"assignee name match", "grace", map[int64]string{42: "Grace Hopper"}, []int64{2}},
		{"no match", "nothing here", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Query(sampleTasks(), QueryParams{Text: tt.text, AssigneeNames: tt.names, Page: 1, PageSize: 10})
			var got []int64
			for _, task := range res.Tasks {
				got = append(got, task.ID)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
				}
			}
		})
	}
}

func TestQueryPagination(t *testing.T) {
	tasks := make([]models.TaskRecord, 0, 5)
	for i := int64(1); i <= 5; i++ {
		tasks = append(tasks, models.TaskRecord{ID: i, Title: "t", Status: models.StatusPending, Priority: models.PriorityLow})
	}

	res := Query(tasks, QueryParams{Page: 2, PageSize: 2})
	if res.TotalPages != 3 || res.Page != 2 {
		t.Fatalf("pages = %d page = %d, want 3/2", res.TotalPages, res.Page)
	}
	if len(res.Tasks) != 2 || res.Tasks[0].ID != 3 || res.Tasks[1].ID != 2 {
		t.Fatalf("page 2 = %+v", res.Tasks)
	}

	last := Query(tasks, QueryParams{Page: 3, PageSize: 2})
	if len(last.Tasks) != 1 || last.Tasks[0].ID != 1 {
		t.Fatalf("page 3 = %+v", last.Tasks)
	}
}

// A stored page beyond the filtered result clamps back to page 1 instead of
// returning an empty page.
func TestQueryPageClamp(t *testing.T) {
	tasks := make([]models.TaskRecord, 0, 6)
	for i := int64(1); i <= 6; i++ {
		tasks = append(tasks, models.TaskRecord{ID: i, Title: "t", Status: models.StatusPending, Priority: models.PriorityLow})
	}

	res := Query(tasks, QueryParams{Page: 5, PageSize: 2})
	if res.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", res.TotalPages)
	}
	if res.Page != 1 {
		t.Fatalf("page = %d, want clamp to 1", res.Page)
	}
	if len(res.Tasks) == 0 {
		t.Fatal("clamped page must not be empty")
	}
	if res.Tasks[0].ID != 6 {
		t.Fatalf("clamped page starts at id %d, want 6", res.Tasks[0].ID)
	}
}

func TestQueryDefaults(t *testing.T) {
	res := Query(sampleTasks(), QueryParams{})
	if res.Page != 1 {
		t.Fatalf("page = %d, want 1", res.Page)
	}
	if res.TotalPages != 1 {
		t.Fatalf("total pages = %d, want 1", res.TotalPages)
	}
}
