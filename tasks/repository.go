package tasks

import "context"

// Repository persists tasks. Every lookup is scoped by owner and returns
// ErrTaskNotFound when the id is unknown or belongs to another owner.
type Repository interface {
	Create(ctx context.Context, task *Task) (*Task, error)
	Get(ctx context.Context, id, owner string) (*Task, error)
	// List returns the requested page of matching tasks, newest first, and
	// the total number of matches.
	List(ctx context.Context, owner string, q Query) ([]*Task, int, error)
	ListAll(ctx context.Context, owner string) ([]*Task, error)
	Update(ctx context.Context, task *Task) (*Task, error)
	Delete(ctx context.Context, id, owner string) (*Task, error)
}
