package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-taskboard/logging"
	"github.com/google/uuid"
)

// Service implements owner scoped task operations on top of a Repository
type Service struct {
	repo   Repository
	clock  func() time.Time
	newID  func() string
	logger logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a task service
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		clock:  time.Now,
		newID:  uuid.NewString,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new task for owner, applying defaults
func (s *Service) Create(ctx context.Context, owner string, f Fields) (*Task, error) {
	now := s.clock()
	t := &Task{
		ID:          s.newID(),
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Status:      f.Status,
		Priority:    f.Priority,
		Category:    strings.TrimSpace(f.Category),
		DueDate:     f.DueDate,
		Tags:        normalizeTags(f.Tags),
		UserID:      owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	syncCompletion(t, now)

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task created", "task_id", created.ID, "user_id", owner)
	return created, nil
}

// List returns a page of owner's tasks matching q
func (s *Service) List(ctx context.Context, owner string, q Query) (*Page, error) {
	q = q.Normalize()
	list, total, err := s.repo.List(ctx, owner, q)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*Task{}
	}
	return &Page{
		Tasks:      list,
		Pagination: NewPagination(q, len(list), total),
	}, nil
}

// Get returns the task with id when owner owns it
func (s *Service) Get(ctx context.Context, id, owner string) (*Task, error) {
	if !validID(id) {
		return nil, ErrTaskNotFound
	}
	return s.repo.Get(ctx, id, owner)
}

// Update applies patch to the task with id when owner owns it
func (s *Service) Update(ctx context.Context, id, owner string, patch Patch) (*Task, error) {
	if !validID(id) {
		return nil, ErrTaskNotFound
	}
	t, err := s.repo.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	patch.Apply(t)
	if err := Validate(t); err != nil {
		return nil, err
	}
	syncCompletion(t, now)
	t.UpdatedAt = now

	return s.repo.Update(ctx, t)
}

// Delete removes the task with id when owner owns it and returns it
func (s *Service) Delete(ctx context.Context, id, owner string) (*Task, error) {
	if !validID(id) {
		return nil, ErrTaskNotFound
	}
	deleted, err := s.repo.Delete(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task deleted", "task_id", id, "user_id", owner)
	return deleted, nil
}

// Stats computes statistics over every task owner has
func (s *Service) Stats(ctx context.Context, owner string) (Stats, error) {
	list, err := s.repo.ListAll(ctx, owner)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list, s.clock()), nil
}

// Validate checks the model constraints of t
func Validate(t *Task) error {
	var msgs []string
	if t.Title == "" {
		msgs = append(msgs, "Title is required")
	}
	if len([]rune(t.Title)) > MaxTitleLength {
		msgs = append(msgs, fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLength))
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		msgs = append(msgs, fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLength))
	}
	if !t.Status.IsValid() {
		msgs = append(msgs, "Status must be pending, in-progress, or completed")
	}
	if !t.Priority.IsValid() {
		msgs = append(msgs, "Priority must be low, medium, or high")
	}
	if len([]rune(t.Category)) > MaxCategoryLength {
		msgs = append(msgs, fmt.Sprintf("Category cannot exceed %d characters", MaxCategoryLength))
	}
	if len(t.Tags) > MaxTags {
		msgs = append(msgs, fmt.Sprintf("Cannot have more than %d tags", MaxTags))
	}
	for _, tag := range t.Tags {
		if len([]rune(tag)) > MaxTagLength {
			msgs = append(msgs, fmt.Sprintf("Each tag cannot exceed %d characters", MaxTagLength))
			break
		}
	}
	if len(msgs) > 0 {
		return invalid(msgs...)
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
