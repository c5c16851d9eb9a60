package services

import (
	"time"

	"taskdesk/internal/models"
)

// SubmissionView is one submission as presented in the history panel,
// paired with the rework request that produced it where applicable (the
// original submission has none).
type SubmissionView struct {
	Feedback       string          `json:"feedback"`
	Link           string          `json:"link,omitempty"`
	CompletedBy    int64           `json:"completed_by"`
	CompletedDate  time.Time       `json:"completed_date"`
	Attachment     *models.FileRef `json:"attachment,omitempty"`
	ReworkComment  string          `json:"rework_comment,omitempty"`
	ReworkDeadline *time.Time      `json:"rework_deadline,omitempty"`
}

// ReworkRequestView is an open rework request still awaiting resubmission.
type ReworkRequestView struct {
	Comment  string    `json:"comment"`
	Deadline time.Time `json:"deadline"`
	Date     time.Time `json:"date"`
}

// Timeline is the reconstructed, display-ordered submission history:
// the latest submission plus all earlier ones, most recent first.
type Timeline struct {
	Current     *SubmissionView    `json:"current,omitempty"`
	Previous    []SubmissionView   `json:"previous"`
	OpenRequest *ReworkRequestView `json:"open_request,omitempty"`
}

// BuildTimeline projects a task's original completion and rework ledger
// into a Timeline. It is a pure function of the record: ordering follows
// the ledger's append order, never the embedded dates, and identical input
// yields identical output.
func BuildTimeline(task *models.TaskRecord) Timeline {
	var subs []SubmissionView

	if task.Completion != nil {
		subs = append(subs, submissionView(*task.Completion, nil))
	}
	for i := range task.ReworkDetails {
		e := &task.ReworkDetails[i]
		if e.Completion != nil {
			subs = append(subs, submissionView(*e.Completion, e))
		}
	}

	tl := Timeline{Previous: []SubmissionView{}}
	if n := len(subs); n > 0 {
		tl.Current = &subs[n-1]
		// earlier submissions, most recent first
		for i := n - 2; i >= 0; i-- {
			tl.Previous = append(tl.Previous, subs[i])
		}
	}
	if e := task.LastEntry(); e != nil && e.Open() {
		tl.OpenRequest = &ReworkRequestView{
			Comment:  e.Comment,
			Deadline: e.Deadline,
			Date:     e.Date,
		}
	}
	return tl
}

func submissionView(c models.CompletionDetails, entry *models.ReworkEntry) SubmissionView {
	v := SubmissionView{
		Feedback:      c.Feedback,
		Link:          c.Link,
		CompletedBy:   c.CompletedBy,
		CompletedDate: c.CompletedDate,
		Attachment:    c.Attachment,
	}
	if entry != nil {
		v.ReworkComment = entry.Comment
		d := entry.Deadline
		v.ReworkDeadline = &d
	}
	return v
}
