package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/tasks"
)

// MemoryStore keeps users and tasks in process memory. Data does not
// survive a restart. Writes to the same record are last write wins.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*auth.User
	byEmail map[string]string
	tasks   map[string]*tasks.Task
	clock   func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*auth.User),
		byEmail: make(map[string]string),
		tasks:   make(map[string]*tasks.Task),
		clock:   time.Now,
	}
}

// MemoryUsers exposes the store as auth.Users
type MemoryUsers struct{ s *MemoryStore }

// MemoryTasks exposes the store as tasks.Repository
type MemoryTasks struct{ s *MemoryStore }

// Users returns the users view
func (s *MemoryStore) Users() *MemoryUsers { return &MemoryUsers{s: s} }

// Tasks returns the tasks view
func (s *MemoryStore) Tasks() *MemoryTasks { return &MemoryTasks{s: s} }

// Create inserts user, enforcing email uniqueness
func (r *MemoryUsers) Create(_ context.Context, user *auth.User) (*auth.User, error) {
	record := user.Clone()
	auth.PrepareUserDefaults(record, r.s.clock())

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byEmail[record.Email]; ok {
		return nil, auth.ErrDuplicateEmail
	}
	r.s.users[record.ID] = record
	r.s.byEmail[record.Email] = record.ID
	return record.Clone(), nil
}

// FindByEmail returns the user registered with email
func (r *MemoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return r.s.users[id].Clone(), nil
}

// FindByID returns the user with id
func (r *MemoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return user.Clone(), nil
}

// Update applies patch to the user with id
func (r *MemoryUsers) Update(_ context.Context, id string, patch auth.UserPatch) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	patch.Apply(user, r.s.clock())
	return user.Clone(), nil
}

// ListActive returns active users, oldest first
func (r *MemoryUsers) ListActive(_ context.Context) ([]*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*auth.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.Active {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Create inserts task
func (r *MemoryTasks) Create(_ context.Context, task *tasks.Task) (*tasks.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

// Get returns the task with id owned by owner
func (r *MemoryTasks) Get(_ context.Context, id, owner string) (*tasks.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	task, ok := r.s.tasks[id]
	if !ok || task.UserID != owner {
		return nil, tasks.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List filters, sorts and pages owner's tasks
func (r *MemoryTasks) List(ctx context.Context, owner string, q tasks.Query) ([]*tasks.Task, int, error) {
	all, err := r.ListAll(ctx, owner)
	if err != nil {
		return nil, 0, err
	}
	page, total := tasks.Paginate(all, q)
	return page, total, nil
}

// ListAll returns every task owned by owner
func (r *MemoryTasks) ListAll(_ context.Context, owner string) ([]*tasks.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*tasks.Task{}
	for _, t := range r.s.tasks {
		if t.UserID == owner {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// Update saves task, scoped by its owner
func (r *MemoryTasks) Update(_ context.Context, task *tasks.Task) (*tasks.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.tasks[task.ID]
	if !ok || current.UserID != task.UserID {
		return nil, tasks.ErrTaskNotFound
	}
	r.s.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

// Delete removes the task with id owned by owner and returns it
func (r *MemoryTasks) Delete(_ context.Context, id, owner string) (*tasks.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	task, ok := r.s.tasks[id]
	if !ok || task.UserID != owner {
		return nil, tasks.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return task, nil
}
