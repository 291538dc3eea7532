// Package client talks to the taskboard API and keeps the state of a signed
// in user.
package client

import "time"

// User is the public user shape returned by the API
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"isActive"`
	Avatar    string     `json:"avatar,omitempty"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	Tags        []string   `json:"tags"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput holds create and update attributes. Nil fields are omitted.
type TaskInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Category    *string   `json:"category,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

type ListOptions struct {
	Status   string
	Priority string
	Category string
	Search   string
	Page     int
	Limit    int
}

type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Count   int `json:"count"`
	Total   int `json:"total"`
}

type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

type TaskStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	HighPriority   int `json:"highPriority"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// String returns a pointer to s, handy for TaskInput
func String(s string) *string {
	return &s
}
