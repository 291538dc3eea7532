package tasks_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-taskboard/tasks"
)

type fakeRepo struct {
	mu   sync.Mutex
	byID map[string]*tasks.Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*tasks.Task{}}
}

func (r *fakeRepo) Create(_ context.Context, t *tasks.Task) (*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = t.Clone()
	return t.Clone(), nil
}

func (r *fakeRepo) Get(_ context.Context, id, owner string) (*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != owner {
		return nil, tasks.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *fakeRepo) List(ctx context.Context, owner string, q tasks.Query) ([]*tasks.Task, int, error) {
	all, _ := r.ListAll(ctx, owner)
	page, total := tasks.Paginate(all, q)
	return page, total, nil
}

func (r *fakeRepo) ListAll(_ context.Context, owner string) ([]*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*tasks.Task{}
	for _, t := range r.byID {
		if t.UserID == owner {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, t *tasks.Task) (*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[t.ID]
	if !ok || cur.UserID != t.UserID {
		return nil, tasks.ErrTaskNotFound
	}
	r.byID[t.ID] = t.Clone()
	return t.Clone(), nil
}

func (r *fakeRepo) Delete(_ context.Context, id, owner string) (*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != owner {
		return nil, tasks.ErrTaskNotFound
	}
	delete(r.byID, id)
	return t, nil
}
