package bpmn

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/vine-io/flowview/api"
)

var _ Element = (*Task)(nil)

type Task struct {
	Id   string
	Name string
	// Type is the element tag, e.g. userTask.
	Type string
	// Config is nil until the task is first opened for editing or carries saved properties.
	Config *TaskConfig
}

func (t *Task) GetKind() Kind { return TaskKind }

func (t *Task) GetID() string { return t.Id }

func (t *Task) GetName() string { return t.Name }

func (t *Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Id
}

// EnsureConfig returns the task configuration, creating an empty one on first use.
func (t *Task) EnsureConfig() *TaskConfig {
	if t.Config == nil {
		t.Config = &TaskConfig{}
	}
	return t.Config
}

type TaskType string

const (
	Information   TaskType = "information"
	Authorization TaskType = "authorization"
	Planning      TaskType = "planning"
	Resource      TaskType = "resource"
	Notification  TaskType = "notification"
)

type CustomField struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

func (f CustomField) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Key, validation.Required),
		validation.Field(&f.Type, validation.Required),
	)
}

// TaskConfig is the editable metadata of a task.
type TaskConfig struct {
	Type TaskType `json:"type"`
	// Duration in hours.
	Duration      decimal.Decimal `json:"duration"`
	AssignedRoles []string        `json:"assignedRoles"`
	AssignedUsers []string        `json:"assignedUsers"`
	Description   string          `json:"description"`
	CustomFields  []CustomField   `json:"customFields"`
}

var errNegativeDuration = errors.New("must be no less than 0")

func nonNegative(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if ok && d.IsNegative() {
		return errNegativeDuration
	}
	return nil
}

// Validate checks the shape of the configuration, not business rules.
func (c *TaskConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.In(Information, Authorization, Planning, Resource, Notification)),
		validation.Field(&c.Duration, validation.By(nonNegative)),
		validation.Field(&c.AssignedRoles, validation.Each(validation.Required)),
		validation.Field(&c.AssignedUsers, validation.Each(validation.Required)),
		validation.Field(&c.CustomFields),
	)
	if err != nil {
		return api.BadRequest("invalid task config: %v", err).WithCause(err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *TaskConfig) Clone() *TaskConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.AssignedRoles != nil {
		out.AssignedRoles = append([]string{}, c.AssignedRoles...)
	}
	if c.AssignedUsers != nil {
		out.AssignedUsers = append([]string{}, c.AssignedUsers...)
	}
	if c.CustomFields != nil {
		out.CustomFields = append([]CustomField{}, c.CustomFields...)
	}
	return &out
}

// Merge returns a copy of c updated by u. Non-empty scalars of u win, Duration always comes
// from u, and non-nil slices of u replace the slices of c.
func (c *TaskConfig) Merge(u *TaskConfig) *TaskConfig {
	out := c.Clone()
	if out == nil {
		out = &TaskConfig{}
	}
	if u == nil {
		return out
	}
	if u.Type != "" {
		out.Type = u.Type
	}
	out.Duration = u.Duration
	if u.AssignedRoles != nil {
		out.AssignedRoles = append([]string{}, u.AssignedRoles...)
	}
	if u.AssignedUsers != nil {
		out.AssignedUsers = append([]string{}, u.AssignedUsers...)
	}
	if u.Description != "" {
		out.Description = u.Description
	}
	if u.CustomFields != nil {
		out.CustomFields = append([]CustomField{}, u.CustomFields...)
	}
	return out
}
