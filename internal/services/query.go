package services

import (
	"sort"
	"strings"

	"taskdesk/internal/models"
)

const defaultPageSize = 10

// QueryParams narrows and pages a task listing. All supplied predicates
// must hold; Text is a case-insensitive substring match across title,
// description, assignee name and tags. AssigneeNames resolves assignee ids
// for the text match (user directories live outside the engine).
type QueryParams struct {
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	Text          string
	Page          int
	PageSize      int
	AssigneeNames map[int64]string
}

// QueryResult is one page of a filtered listing.
type QueryResult struct {
	Tasks      []models.TaskRecord `json:"tasks"`
	TotalCount int                 `json:"total_count"`
	TotalPages int                 `json:"total_pages"`
	Page       int                 `json:"page"`
}

// Query filters, sorts newest-first by id and slices out the requested
// page. Page is 1-indexed; a page beyond the last (e.g. after a filter
// change shrank the result) clamps back to page 1 instead of coming back
// empty.
func Query(tasks []models.TaskRecord, p QueryParams) QueryResult {
	needle := strings.ToLower(strings.TrimSpace(p.Text))

	filtered := make([]models.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if p.Status != nil && t.Status != *p.Status {
			continue
		}
		if p.Priority != nil && t.Priority != *p.Priority {
			continue
		}
		if needle != "" && !matchText(&t, needle, p.AssigneeNames) {
			continue
		}
		filtered = append(filtered, t)
	}

	// ids are unique, so this is a total order
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID > filtered[j].ID })

	size := p.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	total := len(filtered)
	totalPages := (total + size - 1) / size

	page := p.Page
	if page < 1 || page > totalPages {
		page = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return QueryResult{
		Tasks:      filtered[start:end],
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
	}
}

func matchText(t *models.TaskRecord, needle string, names map[int64]string) bool {
	var b strings.Builder
	b.WriteString(t.Title)
	b.WriteByte(' ')
	b.WriteString(t.Description)
	if t.AssignedTo != nil {
		if name, ok := names[*t.AssignedTo]; ok {
			b.WriteByte(' ')
			b.WriteString(name)
		}
	}
	for _, tag := range t.Tags {
		b.WriteByte(' ')
		b.WriteString(tag)
	}
	return strings.Contains(strings.ToLower(b.String()), needle)
}
