package tasks

import (
	"math"
	"time"
)

// Stats summarizes an owner's tasks
type Stats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	HighPriority   int `json:"highPriority"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// ComputeStats derives statistics from list at now
func ComputeStats(list []*Task, now time.Time) Stats {
	var s Stats
	for _, t := range list {
		s.Total++
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		}
		if t.Priority == PriorityHigh {
			s.HighPriority++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}
