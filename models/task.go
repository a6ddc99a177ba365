package models

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusOnHold     TaskStatus = "on-hold"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusOnHold:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the client-side copy of a backend task record. The backend assigns
// the identifier and the creation timestamp; the client never invents either.
// Date fields stay as raw strings because the backend is not consistent about
// formats - parsing happens at sort/display time and falls back gracefully.
type Task struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Owner     string     `json:"owner,omitempty"`
	DueDate   string     `json:"dueDate,omitempty"`
	Priority  Priority   `json:"priority,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Status    TaskStatus `json:"status"`
	Group     string     `json:"group"`
	CreatedAt string     `json:"createdAt,omitempty"`
	Order     *int       `json:"order,omitempty"`
}

// CreatedTime parses the creation timestamp. Unparseable or missing values
// sort as the zero time (oldest epoch) instead of failing.
func (t Task) CreatedTime() time.Time {
	return ParseDate(t.CreatedAt)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate tries the date formats the backend has been seen to emit and
// returns the zero time when none of them match.
func ParseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
