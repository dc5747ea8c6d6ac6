package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusOnHold     TaskStatus = "on_hold"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid reports whether s is one of the five task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusOnHold, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task carries audit references to users by id only. No foreign keys are
// declared, so references may outlive the user they point at.
type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description *string      `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;index" json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedBy   uint64       `gorm:"not null;index" json:"created_by"`
	UpdatedBy   uint64       `gorm:"not null;index" json:"updated_by"`
	AssignedTo  *uint64      `gorm:"index" json:"assigned_to"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TaskPatch is a sparse task update. Nil fields are left untouched; the
// Clear flags reset nullable fields.
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *TaskStatus
	Priority         *TaskPriority
	DueDate          *time.Time
	ClearDueDate     bool
	AssignedTo       *uint64
	ClearAssignee    bool
}

// Apply merges the present fields of p into t. Enum values outside their
// domain are skipped.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.ClearDescription {
		t.Description = nil
	} else if p.Description != nil {
		description := *p.Description
		t.Description = &description
	}
	if p.Status != nil && p.Status.IsValid() {
		t.Status = *p.Status
	}
	if p.Priority != nil && p.Priority.IsValid() {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := p.DueDate.UTC()
		t.DueDate = &due
	}
	if p.ClearAssignee {
		t.AssignedTo = nil
	} else if p.AssignedTo != nil {
		assignee := *p.AssignedTo
		t.AssignedTo = &assignee
	}
}

// ActorIDs returns the user ids referenced by the audit fields, possibly repeated.
func (t *Task) ActorIDs() []uint64 {
	ids := []uint64{t.CreatedBy, t.UpdatedBy}
	if t.AssignedTo != nil {
		ids = append(ids, *t.AssignedTo)
	}
	return ids
}
