// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
//
// Status is derived from the submission/rework history but is persisted
// explicitly; the lifecycle service recomputes it on every accepted
// transition so read sites never have to infer it from shape.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusProgress  TaskStatus = "progress"
	StatusCompleted TaskStatus = "completed"
	StatusRework    TaskStatus = "rework"
)

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Valid reports whether p is one of the known priority values.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// AllStatuses and AllPriorities fix the enum order used by analytics buckets.
var (
	AllStatuses   = []TaskStatus{StatusPending, StatusProgress, StatusCompleted, StatusRework}
	AllPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
)

// FileRef is an opaque reference to a stored attachment. The engine never
// holds file bytes, only the stored name and the name the uploader gave it.
type FileRef struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
}

// CompletionDetails records one submission: the original completion when
// attached to the task root, or a resubmission when attached to a ReworkEntry.
type CompletionDetails struct {
	Feedback      string    `json:"feedback"`
	Link          string    `json:"link,omitempty"`
	CompletedBy   int64     `json:"completed_by"`
	CompletedDate time.Time `json:"completed_date"`
	Attachment    *FileRef  `json:"attachment,omitempty"`
}

// ReworkEntry is one rework cycle: the reviewer's request and, once the
// assignee resubmits, the completion that closes it.
type ReworkEntry struct {
	Comment    string             `json:"comment"`
	Deadline   time.Time          `json:"deadline"`
	Date       time.Time          `json:"date"`
	Completion *CompletionDetails `json:"completion_details,omitempty"`
}

// Open reports whether the cycle still awaits a resubmission.
func (e ReworkEntry) Open() bool {
	return e.Completion == nil
}

// TaskRecord represents a task together with its embedded submission and
// rework history. ReworkDetails is append-only: entries are never reordered
// or deleted, and array order is the audit order.
type TaskRecord struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Tags          []string           `json:"tags,omitempty"`
	AssignedTo    *int64             `json:"assigned_to,omitempty"`
	DueDate       time.Time          `json:"due_date"`
	Priority      TaskPriority       `json:"priority"`
	Status        TaskStatus         `json:"status"`
	ReferenceLink string             `json:"reference_link,omitempty"`
	Attachment    *FileRef           `json:"attachment,omitempty"`
	Completion    *CompletionDetails `json:"completion_details,omitempty"`
	ReworkDetails []ReworkEntry      `json:"rework_details,omitempty"`
	CreatedBy     int64              `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// EffectiveDeadline is the deadline of the last rework entry if one exists,
// else the original due date.
func (t *TaskRecord) EffectiveDeadline() time.Time {
	if n := len(t.ReworkDetails); n > 0 {
		return t.ReworkDetails[n-1].Deadline
	}
	return t.DueDate
}

// LastEntry returns the last rework entry, or nil for an empty ledger.
func (t *TaskRecord) LastEntry() *ReworkEntry {
	if n := len(t.ReworkDetails); n > 0 {
		return &t.ReworkDetails[n-1]
	}
	return nil
}

// HasOpenCycle reports whether the last rework entry awaits a resubmission.
func (t *TaskRecord) HasOpenCycle() bool {
	e := t.LastEntry()
	return e != nil && e.Open()
}

// Clone returns a deep copy so transition functions can stay pure and never
// alias the caller's slices.
func (t *TaskRecord) Clone() *TaskRecord {
	cp := *t
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		cp.AssignedTo = &v
	}
	if t.Attachment != nil {
		a := *t.Attachment
		cp.Attachment = &a
	}
	cp.Completion = cloneCompletion(t.Completion)
	if t.ReworkDetails != nil {
		cp.ReworkDetails = make([]ReworkEntry, len(t.ReworkDetails))
		for i, e := range t.ReworkDetails {
			e.Completion = cloneCompletion(e.Completion)
			cp.ReworkDetails[i] = e
		}
	}
	return &cp
}

func cloneCompletion(c *CompletionDetails) *CompletionDetails {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Attachment != nil {
		a := *c.Attachment
		cp.Attachment = &a
	}
	return &cp
}

// TaskFilter defines the available parameters for narrowing a task listing.
type TaskFilter struct {
	Status   *TaskStatus
	Priority *TaskPriority
	Text     string
}
