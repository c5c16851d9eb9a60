package services

import (
	"errors"
	"testing"
	"time"

	"taskdesk/internal/models"
)

func day(offset int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func completion(by int64, at time.Time) models.CompletionDetails {
	return models.CompletionDetails{
		Feedback:      "done",
		CompletedBy:   by,
		CompletedDate: at,
	}
}

func taskWithLedger(entries ...models.ReworkEntry) *models.TaskRecord {
	c := completion(1, day(0))
	return &models.TaskRecord{
		ID:            1,
		Title:         "Spec doc",
		DueDate:       day(10),
		Priority:      models.PriorityHigh,
		Status:        models.StatusProgress,
		Completion:    &c,
		ReworkDetails: entries,
		CreatedAt:     day(-1),
	}
}

func TestAppendEntry(t *testing.T) {
	open := models.ReworkEntry{Comment: "fix it", Deadline: day(3), Date: day(1)}
	closedC := completion(1, day(2))
	closed := models.ReworkEntry{Comment: "fix it", Deadline: day(3), Date: day(1), Completion: &closedC}

	tests := []struct {
		name    string
		task    *models.TaskRecord
		entry   models.ReworkEntry
		wantErr error
		wantLen int
	}{
		{
			name:    "empty ledger accepts entry",
			task:    taskWithLedger(),
			entry:   models.ReworkEntry{Comment: "redo", Deadline: day(5), Date: day(1)},
			wantLen: 1,
		},
		{
			name:    "closed ledger accepts entry",
			task:    taskWithLedger(closed),
			entry:   models.ReworkEntry{Comment: "redo again", Deadline: day(6), Date: day(3)},
			wantLen: 2,
		},
		{
			name:    "open cycle rejects entry",
			task:    taskWithLedger(open),
			entry:   models.ReworkEntry{Comment: "redo", Deadline: day(5), Date: day(2)},
			wantErr: ErrOpenCycleExists,
		},
		{
			name:    "empty comment rejected",
			task:    taskWithLedger(),
			entry:   models.ReworkEntry{Comment: "   ", Deadline: day(5), Date: day(1)},
			wantErr: ErrEmptyComment,
		},
		{
			name:    "missing deadline rejected",
			task:    taskWithLedger(),
			entry:   models.ReworkEntry{Comment: "redo", Date: day(1)},
			wantErr: ErrMissingDeadline,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.task.ReworkDetails)
			out, err := AppendEntry(tt.task, tt.entry)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AppendEntry error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AppendEntry: %v", err)
			}
			if len(out.ReworkDetails) != tt.wantLen {
				t.Fatalf("ledger length = %d, want %d", len(out.ReworkDetails), tt.wantLen)
			}
			if len(out.ReworkDetails) != before+1 {
				t.Fatalf("ledger grew by %d, want exactly 1", len(out.ReworkDetails)-before)
			}
			if !out.LastEntry().Open() {
				t.Fatal("appended entry must be open")
			}
			// input must not be mutated
			if len(tt.task.ReworkDetails) != before {
				t.Fatal("AppendEntry mutated its input")
			}
			if err := ValidateLedger(out); err != nil {
				t.Fatalf("closure invariant violated: %v", err)
			}
		})
	}
}

func TestCloseLastEntry(t *testing.T) {
	open := models.ReworkEntry{Comment: "fix", Deadline: day(3), Date: day(1)}
	closedC := completion(1, day(2))
	closed := models.ReworkEntry{Comment: "fix", Deadline: day(3), Date: day(1), Completion: &closedC}

	t.Run("closes the open cycle", func(t *testing.T) {
		task := taskWithLedger(closed, open)
		out, err := CloseLastEntry(task, completion(1, day(4)))
		if err != nil {
			t.Fatalf("CloseLastEntry: %v", err)
		}
		if out.HasOpenCycle() {
			t.Fatal("last entry still open after close")
		}
		if len(out.ReworkDetails) != 2 {
			t.Fatalf("ledger length changed: %d", len(out.ReworkDetails))
		}
		// earlier closed entry untouched
		if out.ReworkDetails[0].Completion.CompletedDate != day(2) {
			t.Fatal("closed entry was mutated")
		}
		if task.ReworkDetails[1].Completion != nil {
			t.Fatal("CloseLastEntry mutated its input")
		}
	})

	t.Run("empty ledger fails", func(t *testing.T) {
		if _, err := CloseLastEntry(taskWithLedger(), completion(1, day(4))); !errors.Is(err, ErrNoOpenCycle) {
			t.Fatalf("error = %v, want ErrNoOpenCycle", err)
		}
	})

	t.Run("already closed fails", func(t *testing.T) {
		if _, err := CloseLastEntry(taskWithLedger(closed), completion(1, day(4))); !errors.Is(err, ErrNoOpenCycle) {
			t.Fatalf("error = %v, want ErrNoOpenCycle", err)
		}
	})
}

func TestValidateLedger(t *testing.T) {
	closedC := completion(1, day(2))
	closed := models.ReworkEntry{Comment: "fix", Deadline: day(3), Date: day(1), Completion: &closedC}
	open := models.ReworkEntry{Comment: "fix more", Deadline: day(5), Date: day(4)}

	if err := ValidateLedger(taskWithLedger(closed, closed, open)); err != nil {
		t.Fatalf("valid ledger rejected: %v", err)
	}
	// open entry before a closed one violates closure
	if err := ValidateLedger(taskWithLedger(open, closed)); err == nil {
		t.Fatal("expected closure violation")
	}
}
