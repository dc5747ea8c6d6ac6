package dto

import (
	"time"

	"github.com/yukikurage/taskhub-api/internal/models"
)

// TaskDTO represents a task in API responses. Audit references are shown
// as usernames next to the raw ids.
type TaskDTO struct {
	ID           uint64              `json:"id"`
	Title        string              `json:"title"`
	Description  *string             `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	DueDate      *time.Time          `json:"due_date"`
	CreatedByID  uint64              `json:"created_by_id"`
	CreatedBy    string              `json:"created_by"`
	UpdatedByID  uint64              `json:"updated_by_id"`
	UpdatedBy    string              `json:"updated_by"`
	AssignedToID *uint64             `json:"assigned_to_id"`
	AssignedTo   *string             `json:"assigned_to"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToTaskDTO converts a Task model to TaskDTO using the resolved usernames.
// Ids missing from usernames resolve to unknown.
func ToTaskDTO(task models.Task, usernames map[uint64]string, unknown string) TaskDTO {
	lookup := func(id uint64) string {
		if name, ok := usernames[id]; ok {
			return name
		}
		return unknown
	}

	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		Priority:     task.Priority,
		DueDate:      task.DueDate,
		CreatedByID:  task.CreatedBy,
		CreatedBy:    lookup(task.CreatedBy),
		UpdatedByID:  task.UpdatedBy,
		UpdatedBy:    lookup(task.UpdatedBy),
		AssignedToID: task.AssignedTo,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	if task.AssignedTo != nil {
		name := lookup(*task.AssignedTo)
		dto.AssignedTo = &name
	}

	return dto
}
