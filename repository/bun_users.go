package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/uptrace/bun"
)

// BunUsers implements auth.Users on a SQL database through bun
type BunUsers struct {
	db    *bun.DB
	clock func() time.Time
}

// NewBunUsers creates a users repository
func NewBunUsers(db *bun.DB) *BunUsers {
	return &BunUsers{db: db, clock: time.Now}
}

// Create inserts user. The unique email constraint is the final guard
// against concurrent registrations of the same address.
func (r *BunUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	record := user.Clone()
	auth.PrepareUserDefaults(record, r.clock())

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrDuplicateEmail
		}
		return nil, internal(err, "failed to create user")
	}
	return record, nil
}

// FindByEmail returns the user registered with email
func (r *BunUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user := new(auth.User)
	err := r.db.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", auth.NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, internal(err, "failed to find user by email")
	}
	return user, nil
}

// FindByID returns the user with id
func (r *BunUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return r.findByID(ctx, r.db, id)
}

func (r *BunUsers) findByID(ctx context.Context, db bun.IDB, id string) (*auth.User, error) {
	user := new(auth.User)
	err := db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, internal(err, "failed to find user by id")
	}
	return user, nil
}

// Update applies patch to the user with id inside a transaction
func (r *BunUsers) Update(ctx context.Context, id string, patch auth.UserPatch) (*auth.User, error) {
	var updated *auth.User
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := r.findByID(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(user, r.clock())
		if _, err := tx.NewUpdate().Model(user).WherePK().Exec(ctx); err != nil {
			return internal(err, "failed to update user")
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListActive returns active users, oldest first
func (r *BunUsers) ListActive(ctx context.Context) ([]*auth.User, error) {
	users := []*auth.User{}
	err := r.db.NewSelect().
		Model(&users).
		Where("?TableAlias.is_active = ?", true).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil && !isNoRows(err) {
		return nil, internal(err, "failed to list active users")
	}
	return users, nil
}
