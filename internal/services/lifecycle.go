package services

import (
	"strings"
	"time"

	"taskdesk/internal/models"
)

// Допустимые переходы статусов задачи.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusPending:   {models.StatusProgress: true},
	models.StatusProgress:  {models.StatusCompleted: true, models.StatusRework: true},
	models.StatusRework:    {models.StatusProgress: true},
	models.StatusCompleted: {}, // финалка
}

func canTransition(from, to models.TaskStatus) bool {
	nexts, ok := TaskTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// CompletionPayload carries one submission from an assignee. NoFeedback
// substitutes an explicit placeholder when the assignee has nothing to say;
// an empty feedback without it is rejected.
type CompletionPayload struct {
	Feedback    string
	Link        string
	CompletedBy int64
	Attachment  *models.FileRef
	NoFeedback  bool
}

const noFeedbackPlaceholder = "No feedback provided"

// SubmitCompletion records a submission on a task copy: the root completion
// when the task is Pending, or the resubmission closing the open rework
// cycle when the task is in Rework. Closed entries are never touched.
func SubmitCompletion(task *models.TaskRecord, p CompletionPayload, now time.Time) (*models.TaskRecord, error) {
	feedback := strings.TrimSpace(p.Feedback)
	if feedback == "" {
		if !p.NoFeedback {
			return nil, validationErr("feedback", "required")
		}
		feedback = noFeedbackPlaceholder
	}
	if p.CompletedBy == 0 {
		return nil, validationErr("completed_by", "required")
	}

	completion := models.CompletionDetails{
		Feedback:      feedback,
		Link:          strings.TrimSpace(p.Link),
		CompletedBy:   p.CompletedBy,
		CompletedDate: now,
		Attachment:    p.Attachment,
	}

	switch task.Status {
	case models.StatusPending:
		out := task.Clone()
		out.Completion = &completion
		out.Status = models.StatusProgress
		out.UpdatedAt = now
		return out, nil
	case models.StatusRework:
		out, err := CloseLastEntry(task, completion)
		if err != nil {
			return nil, err
		}
		// A closed cycle goes straight back to awaiting review; there is
		// no distinct re-review state.
		out.Status = models.StatusProgress
		out.UpdatedAt = now
		return out, nil
	case models.StatusCompleted:
		return nil, ErrAlreadyFinalized
	default:
		return nil, ErrInvalidStateForAction
	}
}

// MarkComplete finalizes a task under review. Completed is terminal: a
// second call fails with ErrAlreadyFinalized.
func MarkComplete(task *models.TaskRecord, now time.Time) (*models.TaskRecord, error) {
	if task.Status == models.StatusCompleted {
		return nil, ErrAlreadyFinalized
	}
	if !canTransition(task.Status, models.StatusCompleted) {
		return nil, ErrInvalidStateForAction
	}
	out := task.Clone()
	out.Status = models.StatusCompleted
	out.UpdatedAt = now
	return out, nil
}

// RequestRework opens a new rework cycle on a task under review.
func RequestRework(task *models.TaskRecord, comment string, deadline time.Time, now time.Time) (*models.TaskRecord, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, ErrEmptyComment
	}
	if deadline.IsZero() {
		return nil, ErrMissingDeadline
	}
	if task.Status == models.StatusCompleted {
		return nil, ErrAlreadyFinalized
	}
	if !canTransition(task.Status, models.StatusRework) {
		return nil, ErrInvalidStateForAction
	}
	out, err := AppendEntry(task, models.ReworkEntry{
		Comment:  strings.TrimSpace(comment),
		Deadline: deadline,
		Date:     now,
	})
	if err != nil {
		return nil, err
	}
	out.Status = models.StatusRework
	out.UpdatedAt = now
	return out, nil
}

// DeriveStatus recomputes the status a task's history implies. Completed is
// kept as-is since finalization is an explicit action, not a shape of the
// history. Used as a write-time consistency check.
func DeriveStatus(task *models.TaskRecord) models.TaskStatus {
	if task.Status == models.StatusCompleted {
		return models.StatusCompleted
	}
	if task.HasOpenCycle() {
		return models.StatusRework
	}
	if task.Completion != nil {
		return models.StatusProgress
	}
	return models.StatusPending
}
