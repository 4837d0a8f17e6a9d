package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

const MaxTaskTitleLength = 100

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	Deadline    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	Deadline    *time.Time
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil && p.Deadline == nil
}

// Apply copies the set fields of p onto t and stamps UpdatedAt.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	t.UpdatedAt = now
}

// Validate checks the field rules of a task about to be written.
// Violations wrap common.ErrorValidation.
func (t *Task) Validate(now time.Time) error {
	if n := utf8.RuneCountInString(t.Title); n == 0 || n > MaxTaskTitleLength {
		return fmt.Errorf("%w: title must be between 1 and %d characters", common.ErrorValidation, MaxTaskTitleLength)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: invalid status %q", common.ErrorValidation, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", common.ErrorValidation, t.Priority)
	}
	if !t.Deadline.After(now) {
		return fmt.Errorf("%w: deadline must be in the future", common.ErrorValidation)
	}
	return nil
}
