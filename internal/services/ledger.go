package services

import (
	"fmt"
	"strings"

	"taskdesk/internal/models"
)

// The rework ledger is the append-only reworkDetails sequence on a task.
// Entries are ordered purely by append order and are never re-sorted by
// date, even if a caller supplies an out-of-order date; insertion order is
// the audit order and every reader renders by it.

// AppendEntry adds a new open rework cycle. It fails with ErrOpenCycleExists
// while the previous cycle is still awaiting a resubmission. The input task
// is not mutated.
func AppendEntry(task *models.TaskRecord, entry models.ReworkEntry) (*models.TaskRecord, error) {
	if strings.TrimSpace(entry.Comment) == "" {
		return nil, ErrEmptyComment
	}
	if entry.Deadline.IsZero() {
		return nil, ErrMissingDeadline
	}
	if task.HasOpenCycle() {
		return nil, ErrOpenCycleExists
	}
	entry.Completion = nil
	out := task.Clone()
	out.ReworkDetails = append(out.ReworkDetails, entry)
	return out, nil
}

// CloseLastEntry attaches a resubmission to the open cycle. It fails with
// ErrNoOpenCycle when the ledger is empty or already closed. Closed entries
// are never mutated.
func CloseLastEntry(task *models.TaskRecord, completion models.CompletionDetails) (*models.TaskRecord, error) {
	if !task.HasOpenCycle() {
		return nil, ErrNoOpenCycle
	}
	out := task.Clone()
	c := completion
	out.ReworkDetails[len(out.ReworkDetails)-1].Completion = &c
	return out, nil
}

// ValidateLedger checks the closure invariant: at most the last entry may
// lack completion details.
func ValidateLedger(task *models.TaskRecord) error {
	for i, e := range task.ReworkDetails {
		if e.Open() && i != len(task.ReworkDetails)-1 {
			return fmt.Errorf("ledger entry %d is open but not last", i)
		}
	}
	return nil
}
