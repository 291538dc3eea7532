package tasks

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// IsValid checks the status is one of the known states
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Priority ranks tasks
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks the priority is one of the known values
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

const (
	DefaultCategory = "General"

	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxCategoryLength    = 50
	MaxTags              = 10
	MaxTagLength         = 30
)

// Task is a unit of work owned by a single user
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk" bson:"-" json:"-"`
	ID            string     `bun:"id,pk" bson:"_id" json:"id"`
	Title         string     `bun:"title,notnull" bson:"title" json:"title"`
	Description   string     `bun:"description" bson:"description" json:"description"`
	Status        Status     `bun:"status,notnull" bson:"status" json:"status"`
	Priority      Priority   `bun:"priority,notnull" bson:"priority" json:"priority"`
	Category      string     `bun:"category,notnull" bson:"category" json:"category"`
	DueDate       *time.Time `bun:"due_date,nullzero" bson:"due_date,omitempty" json:"dueDate"`
	CompletedAt   *time.Time `bun:"completed_at,nullzero" bson:"completed_at,omitempty" json:"completedAt"`
	Tags          []string   `bun:"tags,type:jsonb" bson:"tags" json:"tags"`
	UserID        string     `bun:"user_id,notnull" bson:"user_id" json:"userId"`
	CreatedAt     time.Time  `bun:"created_at,notnull" bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull" bson:"updated_at" json:"updatedAt"`
}

// Clone returns a deep copy
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	c.Tags = append([]string{}, t.Tags...)
	return &c
}

// IsOverdue reports whether the task is past due and not completed
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// Fields are the client supplied attributes of a new task
type Fields struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Category    string
	DueDate     *time.Time
	Tags        []string
}

// Patch holds task updates. Nil fields are left untouched.
type Patch struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	Category     *string
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
}

// Apply mutates t with the non nil patch fields
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
		if t.Category == "" {
			t.Category = DefaultCategory
		}
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Tags != nil {
		t.Tags = normalizeTags(*p.Tags)
	}
}

// syncCompletion keeps CompletedAt set exactly when the task is completed.
// A task that stays completed keeps its original completion time.
func syncCompletion(t *Task, now time.Time) {
	if t.Status != StatusCompleted {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil {
		c := now
		t.CompletedAt = &c
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
