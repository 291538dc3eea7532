package tasks

import (
	"sort"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter narrows an owner's tasks. Empty fields match everything.
type Filter struct {
	Status   Status
	Priority Priority
	Category string
	Search   string
}

// Match reports whether t satisfies every set field of the filter
func (f Filter) Match(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && !containsFold(t.Category, f.Category) {
		return false
	}
	if f.Search != "" {
		if containsFold(t.Title, f.Search) || containsFold(t.Description, f.Search) {
			return true
		}
		for _, tag := range t.Tags {
			if containsFold(tag, f.Search) {
				return true
			}
		}
		return false
	}
	return true
}

// Query is a filter plus the page to return
type Query struct {
	Filter
	Page  int
	Limit int
}

// Normalize applies page defaults and clamps the limit
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset is the number of matching tasks skipped before the page
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes the returned page
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Count   int `json:"count"`
	Total   int `json:"total"`
}

// Page is a slice of an owner's tasks
type Page struct {
	Tasks      []*Task    `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination builds the page metadata for total matching tasks
func NewPagination(q Query, count, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Pagination{
		Current: q.Page,
		Pages:   pages,
		Count:   count,
		Total:   total,
	}
}

// SortNewestFirst orders tasks by creation time, newest first. Ties keep
// the id order so pages are stable.
func SortNewestFirst(list []*Task) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// Paginate filters, sorts and slices list. It is the reference behavior
// for stores that cannot push the query down.
func Paginate(list []*Task, q Query) ([]*Task, int) {
	q = q.Normalize()

	matched := make([]*Task, 0, len(list))
	for _, t := range list {
		if q.Match(t) {
			matched = append(matched, t)
		}
	}
	SortNewestFirst(matched)

	total := len(matched)
	start := q.Offset()
	if start >= total {
		return []*Task{}, total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
