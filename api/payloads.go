package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/tasks"
)

var namePattern = regexp.MustCompile(`^[\p{L} ]+$`)

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, nameRules(true)...),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please provide a valid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(6, 0).Error("Password must be at least 6 characters long"),
		),
	)
}

// Input maps the payload to the registration attributes
func (r RegisterRequest) Input() auth.RegisterInput {
	return auth.RegisterInput{
		Name:     strings.TrimSpace(r.Name),
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please provide a valid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// ProfileRequest payload. Omitted fields are left untouched.
type ProfileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// Validate will run validation rules
func (r ProfileRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, nameRules(r.Name != nil)...),
		validation.Field(&r.Avatar,
			is.URL.Error("Avatar must be a valid URL"),
		),
	)
}

// Update maps the payload to a profile update
func (r ProfileRequest) Update() auth.ProfileUpdate {
	return auth.ProfileUpdate{Name: r.Name, Avatar: r.Avatar}
}

func nameRules(required bool) []validation.Rule {
	rules := []validation.Rule{
		validation.RuneLength(2, 50).Error("Name must be between 2 and 50 characters"),
		validation.Match(namePattern).Error("Name can only contain letters and spaces"),
	}
	if required {
		rules = append([]validation.Rule{validation.By(notBlank("Name is required"))}, rules...)
	}
	return rules
}

// CreateTaskRequest payload
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// Validate will run validation rules
func (r CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.By(notBlank("Title is required")),
			validation.RuneLength(1, tasks.MaxTitleLength).Error("Title cannot be more than 100 characters"),
		),
		validation.Field(&r.Description, descriptionRule),
		validation.Field(&r.Status, statusRule),
		validation.Field(&r.Priority, priorityRule),
		validation.Field(&r.Category, categoryRule),
		validation.Field(&r.DueDate, validation.By(dateRule)),
		validation.Field(&r.Tags, validation.By(tagsRule)),
	)
}

// Fields maps the payload to task attributes. Call after Validate.
func (r CreateTaskRequest) Fields() tasks.Fields {
	due, _ := parseDate(r.DueDate)
	return tasks.Fields{
		Title:       r.Title,
		Description: r.Description,
		Status:      tasks.Status(r.Status),
		Priority:    tasks.Priority(r.Priority),
		Category:    r.Category,
		DueDate:     due,
		Tags:        r.Tags,
	}
}

// NullableString tells an omitted JSON field from an explicit null
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// UpdateTaskRequest payload. Omitted fields are left untouched, a null
// dueDate clears it.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	Priority    *string        `json:"priority"`
	Category    *string        `json:"category"`
	DueDate     NullableString `json:"dueDate"`
	Tags        *[]string      `json:"tags"`
}

// Validate will run validation rules
func (r UpdateTaskRequest) Validate() error {
	titleRules := []validation.Rule{
		validation.RuneLength(1, tasks.MaxTitleLength).Error("Title cannot be more than 100 characters"),
	}
	if r.Title != nil {
		titleRules = append([]validation.Rule{validation.By(notBlank("Title is required"))}, titleRules...)
	}

	var tags []string
	if r.Tags != nil {
		tags = *r.Tags
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, titleRules...),
		validation.Field(&r.Description, descriptionRule),
		validation.Field(&r.Status, statusRule),
		validation.Field(&r.Priority, priorityRule),
		validation.Field(&r.Category, categoryRule),
		validation.Field(&r.DueDate, validation.By(func(any) error {
			return dateRule(r.DueDate.Value)
		})),
		validation.Field(&r.Tags, validation.By(func(any) error {
			return tagsRule(tags)
		})),
	)
}

// Patch maps the payload to a task patch. Call after Validate.
func (r UpdateTaskRequest) Patch() tasks.Patch {
	p := tasks.Patch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Tags:        r.Tags,
	}
	if r.Status != nil {
		s := tasks.Status(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := tasks.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.DueDate.Set {
		due, _ := parseDate(r.DueDate.Value)
		if due == nil {
			p.ClearDueDate = true
		} else {
			p.DueDate = due
		}
	}
	return p
}

// ListTasksRequest holds the query string of GET /tasks
type ListTasksRequest struct {
	Status   string `query:"status"`
	Priority string `query:"priority"`
	Category string `query:"category"`
	Search   string `query:"search"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

// Validate will run validation rules
func (r ListTasksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, statusRule),
		validation.Field(&r.Priority, priorityRule),
	)
}

// Query maps the request to a normalized task query
func (r ListTasksRequest) Query() tasks.Query {
	return tasks.Query{
		Filter: tasks.Filter{
			Status:   tasks.Status(r.Status),
			Priority: tasks.Priority(r.Priority),
			Category: r.Category,
			Search:   r.Search,
		},
		Page:  r.Page,
		Limit: r.Limit,
	}.Normalize()
}

var (
	descriptionRule = validation.RuneLength(0, tasks.MaxDescriptionLength).
			Error("Description cannot be more than 1000 characters")
	categoryRule = validation.RuneLength(0, tasks.MaxCategoryLength).
			Error("Category cannot be more than 50 characters")
	statusRule = validation.In(
		string(tasks.StatusPending),
		string(tasks.StatusInProgress),
		string(tasks.StatusCompleted),
	).Error("Status must be pending, in-progress, or completed")
	priorityRule = validation.In(
		string(tasks.PriorityLow),
		string(tasks.PriorityMedium),
		string(tasks.PriorityHigh),
	).Error("Priority must be low, medium, or high")
)

func notBlank(message string) validation.RuleFunc {
	return func(value any) error {
		v, _ := validation.Indirect(value)
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	}
}

func dateRule(value any) error {
	if _, err := parseDate(value); err != nil {
		return errors.New("Due date must be a valid date")
	}
	return nil
}

func tagsRule(value any) error {
	tags, _ := value.([]string)
	if len(tags) > tasks.MaxTags {
		return errors.New("Cannot have more than 10 tags")
	}
	for _, tag := range tags {
		if len([]rune(strings.TrimSpace(tag))) > tasks.MaxTagLength {
			return errors.New("Each tag cannot be more than 30 characters")
		}
	}
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts a *string, string or nil and returns the parsed time.
// Empty input yields nil.
func parseDate(value any) (*time.Time, error) {
	var s string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *string:
		if v == nil {
			return nil, nil
		}
		s = *v
	case string:
		s = v
	default:
		return nil, errors.New("unsupported date value")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.New("invalid date")
}
