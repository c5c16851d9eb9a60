package services

import (
	"time"

	"taskdesk/internal/models"
)

const trendDateFormat = "2006-01-02"

// TrendPoint is one calendar day of the rolling activity window.
type TrendPoint struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
	Active    int    `json:"active"`
}

// Analytics is the derived summary over a task collection.
type Analytics struct {
	StatusCounts   map[models.TaskStatus]int   `json:"status_counts"`
	PriorityCounts map[models.TaskPriority]int `json:"priority_counts"`
	Trend          []TrendPoint                `json:"trend"`
	CompletionRate float64                     `json:"completion_rate"`
	TotalCount     int                         `json:"total_count"`
}

// Aggregate computes status/priority distributions, a dense daily trend for
// the last windowDays calendar days ending at now, and the completion rate.
// Unknown status/priority values are ignored rather than counted; tasks
// missing a creation date are bucketed at now. An empty collection yields a
// completion rate of 0.
func Aggregate(tasks []models.TaskRecord, windowDays int, now time.Time) Analytics {
	if windowDays <= 0 {
		windowDays = 7
	}

	out := Analytics{
		StatusCounts:   make(map[models.TaskStatus]int, len(models.AllStatuses)),
		PriorityCounts: make(map[models.TaskPriority]int, len(models.AllPriorities)),
		TotalCount:     len(tasks),
	}
	for _, s := range models.AllStatuses {
		out.StatusCounts[s] = 0
	}
	for _, p := range models.AllPriorities {
		out.PriorityCounts[p] = 0
	}

	// dense series: every day appears even with zero activity
	today := dayOf(now)
	points := make([]TrendPoint, windowDays)
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		day := today.AddDate(0, 0, i-windowDays+1)
		key := day.Format(trendDateFormat)
		points[i] = TrendPoint{Date: key}
		index[key] = i
	}

	completed := 0
	for i := range tasks {
		t := &tasks[i]

		if _, ok := out.StatusCounts[t.Status]; ok {
			out.StatusCounts[t.Status]++
		}
		if _, ok := out.PriorityCounts[t.Priority]; ok {
			out.PriorityCounts[t.Priority]++
		}
		if t.Status == models.StatusCompleted {
			completed++
		}

		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		createdKey := dayOf(createdAt).Format(trendDateFormat)
		if idx, ok := index[createdKey]; ok {
			points[idx].Created++
			if t.Status == models.StatusProgress || t.Status == models.StatusPending {
				points[idx].Active++
			}
		}
		if t.Completion != nil {
			doneKey := dayOf(t.Completion.CompletedDate).Format(trendDateFormat)
			if idx, ok := index[doneKey]; ok {
				points[idx].Completed++
			}
		}
	}

	out.Trend = points
	if out.TotalCount > 0 {
		out.CompletionRate = float64(completed) / float64(out.TotalCount)
	}
	return out
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
