package repository

import (
	"context"

	"github.com/goliatone/go-taskboard/tasks"
	"github.com/uptrace/bun"
)

// BunTasks implements tasks.Repository on a SQL database through bun
type BunTasks struct {
	db *bun.DB
}

// NewBunTasks creates a tasks repository
func NewBunTasks(db *bun.DB) *BunTasks {
	return &BunTasks{db: db}
}

// Create inserts task
func (r *BunTasks) Create(ctx context.Context, task *tasks.Task) (*tasks.Task, error) {
	record := task.Clone()
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, internal(err, "failed to create task")
	}
	return record, nil
}

// Get returns the task with id owned by owner
func (r *BunTasks) Get(ctx context.Context, id, owner string) (*tasks.Task, error) {
	return r.get(ctx, r.db, id, owner)
}

func (r *BunTasks) get(ctx context.Context, db bun.IDB, id, owner string) (*tasks.Task, error) {
	task := new(tasks.Task)
	err := db.NewSelect().
		Model(task).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", owner).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, internal(err, "failed to get task")
	}
	return task, nil
}

// List pushes status, priority and paging down to the database. Category
// and search are matched in Go with tasks.Paginate so every backend folds
// case the same way and tags are compared one by one.
func (r *BunTasks) List(ctx context.Context, owner string, q tasks.Query) ([]*tasks.Task, int, error) {
	q = q.Normalize()
	list := []*tasks.Task{}

	sel := r.db.NewSelect().
		Model(&list).
		Where("?TableAlias.user_id = ?", owner)

	if q.Status != "" {
		sel = sel.Where("?TableAlias.status = ?", q.Status)
	}
	if q.Priority != "" {
		sel = sel.Where("?TableAlias.priority = ?", q.Priority)
	}

	if q.Category != "" || q.Search != "" {
		if err := sel.Scan(ctx); err != nil && !isNoRows(err) {
			return nil, 0, internal(err, "failed to list tasks")
		}
		page, total := tasks.Paginate(list, q)
		return page, total, nil
	}

	total, err := sel.
		Order("created_at DESC", "id DESC").
		Limit(q.Limit).
		Offset(q.Offset()).
		ScanAndCount(ctx)
	if err != nil && !isNoRows(err) {
		return nil, 0, internal(err, "failed to list tasks")
	}
	return list, total, nil
}

// ListAll returns every task owned by owner
func (r *BunTasks) ListAll(ctx context.Context, owner string) ([]*tasks.Task, error) {
	list := []*tasks.Task{}
	err := r.db.NewSelect().
		Model(&list).
		Where("?TableAlias.user_id = ?", owner).
		Scan(ctx)
	if err != nil && !isNoRows(err) {
		return nil, internal(err, "failed to list tasks")
	}
	return list, nil
}

// Update saves task, scoped by its owner
func (r *BunTasks) Update(ctx context.Context, task *tasks.Task) (*tasks.Task, error) {
	record := task.Clone()
	res, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Where("user_id = ?", record.UserID).
		Exec(ctx)
	if err != nil {
		return nil, internal(err, "failed to update task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, tasks.ErrTaskNotFound
	}
	return record, nil
}

// Delete removes the task with id owned by owner and returns it
func (r *BunTasks) Delete(ctx context.Context, id, owner string) (*tasks.Task, error) {
	var deleted *tasks.Task
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		task, err := r.get(ctx, tx, id, owner)
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model(task).WherePK().Exec(ctx); err != nil {
			return internal(err, "failed to delete task")
		}
		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
