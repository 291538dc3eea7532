package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/tasks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runUsersContract exercises the behavior every auth.Users backend shares
func runUsersContract(t *testing.T, users auth.Users) {
	t.Helper()
	ctx := context.Background()

	jane := &auth.User{ID: uuid.NewString(), Name: "Jane", Email: "Jane@Example.com", PasswordHash: "hash", Active: true}
	created, err := users.Create(ctx, jane)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Equal(t, auth.RoleUser, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = users.Create(ctx, &auth.User{ID: uuid.NewString(), Name: "Dup", Email: "JANE@example.com", PasswordHash: "hash", Active: true})
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeDuplicateEmail))

	found, err := users.FindByEmail(ctx, "  jane@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	found, err = users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", found.Name)

	_, err = users.FindByID(ctx, uuid.NewString())
	assert.True(t, auth.HasTextCode(err, auth.TextCodeUserNotFound))

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, auth.HasTextCode(err, auth.TextCodeUserNotFound))

	name := "Jane Smith"
	login := time.Now().UTC().Truncate(time.Millisecond)
	updated, err := users.Update(ctx, created.ID, auth.UserPatch{Name: &name, LastLogin: &login})
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.Name)
	require.NotNil(t, updated.LastLogin)
	assert.True(t, login.Equal(*updated.LastLogin))

	reloaded, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", reloaded.Name)
	require.NotNil(t, reloaded.LastLogin)

	_, err = users.Update(ctx, uuid.NewString(), auth.UserPatch{Name: &name})
	assert.True(t, auth.HasTextCode(err, auth.TextCodeUserNotFound))

	bob, err := users.Create(ctx, &auth.User{ID: uuid.NewString(), Name: "Bob", Email: "bob@example.com", PasswordHash: "hash", Active: true})
	require.NoError(t, err)

	active, err := users.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	inactive := false
	_, err = users.Update(ctx, bob.ID, auth.UserPatch{Active: &inactive})
	require.NoError(t, err)

	active, err = users.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, created.ID, active[0].ID)
}

// runTasksContract exercises the behavior every tasks.Repository backend shares
func runTasksContract(t *testing.T, repo tasks.Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	newTask := func(i int, owner string, status tasks.Status, category string, tags ...string) *tasks.Task {
		if tags == nil {
			tags = []string{}
		}
		return &tasks.Task{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("Task %02d", i),
			Status:    status,
			Priority:  tasks.PriorityMedium,
			Category:  category,
			Tags:      tags,
			UserID:    owner,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	runTaskSearchContract(t, repo)

	var created []*tasks.Task
	for i := 0; i < 12; i++ {
		status := tasks.StatusPending
		if i%4 == 0 {
			status = tasks.StatusCompleted
		}
		category := "Work"
		if i%2 == 1 {
			category = "Home Chores"
		}
		var tags []string
		if i == 5 {
			tags = []string{"Urgent", "q3"}
		}
		task, err := repo.Create(ctx, newTask(i, "alice", status, category, tags...))
		require.NoError(t, err)
		created = append(created, task)
	}
	_, err := repo.Create(ctx, newTask(99, "bob", tasks.StatusPending, "Work"))
	require.NoError(t, err)

	list, total, err := repo.List(ctx, "alice", tasks.Query{Filter: tasks.Filter{Status: tasks.StatusPending}, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	require.Len(t, list, 9)
	for i, task := range list {
		assert.Equal(t, tasks.StatusPending, task.Status)
		assert.Equal(t, "alice", task.UserID)
		if i > 0 {
			assert.True(t, list[i-1].CreatedAt.After(task.CreatedAt), "newest first")
		}
	}

	list, total, err = repo.List(ctx, "alice", tasks.Query{Filter: tasks.Filter{Category: "chores"}, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, list, 6)

	list, total, err = repo.List(ctx, "alice", tasks.Query{Filter: tasks.Filter{Search: "URGENT"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, created[5].ID, list[0].ID)
	assert.ElementsMatch(t, []string{"Urgent", "q3"}, list[0].Tags)

	list, total, err = repo.List(ctx, "alice", tasks.Query{Filter: tasks.Filter{Search: "task 1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, "alice", tasks.Query{Filter: tasks.Filter{Search: "100%"}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	list, total, err = repo.List(ctx, "alice", tasks.Query{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, list, 5)
	assert.Equal(t, created[6].ID, list[0].ID)

	list, total, err = repo.List(ctx, "alice", tasks.Query{Page: 5, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Empty(t, list)

	all, err := repo.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 12)

	target := created[1]
	_, err = repo.Get(ctx, target.ID, "bob")
	assert.True(t, tasks.IsNotFound(err))

	got, err := repo.Get(ctx, target.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, target.Title, got.Title)
	assert.Nil(t, got.CompletedAt)

	done := base.Add(time.Hour)
	got.Status = tasks.StatusCompleted
	got.CompletedAt = &done
	got.UserID = "bob"
	_, err = repo.Update(ctx, got)
	assert.True(t, tasks.IsNotFound(err), "update cannot cross owners")

	got.UserID = "alice"
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusCompleted, updated.Status)

	reloaded, err := repo.Get(ctx, target.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, reloaded.CompletedAt)
	assert.True(t, done.Equal(*reloaded.CompletedAt))

	_, err = repo.Delete(ctx, target.ID, "bob")
	assert.True(t, tasks.IsNotFound(err))

	deleted, err := repo.Delete(ctx, target.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, target.ID, deleted.ID)

	_, err = repo.Get(ctx, target.ID, "alice")
	assert.True(t, tasks.IsNotFound(err))
}

// runTaskSearchContract checks text matching is a case insensitive substring
// test over title, description and each tag on its own.
func runTaskSearchContract(t *testing.T, repo tasks.Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	seed := []*tasks.Task{
		{Title: "Ärger melden", Tags: []string{`say "hi"`, "x"}},
		{Title: "Plain", Description: "nothing to see", Tags: []string{"a", "b"}},
		{Title: "Other", Tags: []string{}},
	}
	for i, task := range seed {
		task.ID = uuid.NewString()
		task.Status = tasks.StatusPending
		task.Priority = tasks.PriorityLow
		task.Category = "Ünterwegs"
		task.UserID = "carol"
		task.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		task.UpdatedAt = task.CreatedAt
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)
	}

	cases := []struct {
		name   string
		filter tasks.Filter
		want   int
	}{
		{"json bracket", tasks.Filter{Search: "["}, 0},
		{"json separator", tasks.Filter{Search: `","`}, 0},
		{"unicode title", tasks.Filter{Search: "ärger"}, 1},
		{"unicode title upper", tasks.Filter{Search: "ÄRGER"}, 1},
		{"quoted tag text", tasks.Filter{Search: `"hi"`}, 1},
		{"single tag", tasks.Filter{Search: "B"}, 1},
		{"description", tasks.Filter{Search: "TO SEE"}, 1},
		{"unicode category", tasks.Filter{Category: "ünter"}, 3},
		{"category and search", tasks.Filter{Category: "ÜNTER", Search: "other"}, 1},
		{"status narrows text match", tasks.Filter{Status: tasks.StatusCompleted, Search: "plain"}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, total, err := repo.List(ctx, "carol", tasks.Query{Filter: tc.filter, Limit: 100})
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
			assert.Len(t, list, tc.want)
		})
	}

	list, total, err := repo.List(ctx, "carol", tasks.Query{Filter: tasks.Filter{Category: "ünter"}, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Ärger melden", list[0].Title, "oldest task lands on the last page")
}
