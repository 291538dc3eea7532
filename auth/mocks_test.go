package auth_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/stretchr/testify/mock"
)

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*auth.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*auth.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*auth.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, id string, patch auth.UserPatch) (*auth.User, error) {
	args := m.Called(ctx, id, patch)
	if u, ok := args.Get(0).(*auth.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) ListActive(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	if u, ok := args.Get(0).([]*auth.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeUsers is a minimal in-memory auth.Users used by flow tests
type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*auth.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*auth.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *auth.User) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return nil, auth.ErrDuplicateEmail
		}
	}
	f.byID[user.ID] = user.Clone()
	return user.Clone(), nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == auth.NormalizeEmail(email) {
			return u.Clone(), nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u.Clone(), nil
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUsers) Update(_ context.Context, id string, patch auth.UserPatch) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	patch.Apply(u, time.Now())
	return u.Clone(), nil
}

func (f *fakeUsers) ListActive(_ context.Context) ([]*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*auth.User{}
	for _, u := range f.byID {
		if u.Active {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
