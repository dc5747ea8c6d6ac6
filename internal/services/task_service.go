package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskhub-api/internal/dto"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"go.uber.org/zap"
)

// TaskService handles task business logic
type TaskService struct {
	store    repository.Store
	enricher *Enricher
	policy   Policy
	now      func() time.Time
	log      *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store, enricher *Enricher, policy Policy, log *zap.Logger) *TaskService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskService{
		store:    store,
		enricher: enricher,
		policy:   policy,
		now:      time.Now,
		log:      log,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *uint64
}

// PersonalView selects one of the actor-scoped task listings.
type PersonalView string

const (
	ViewCreated  PersonalView = "created"
	ViewUpdated  PersonalView = "updated"
	ViewAssigned PersonalView = "assigned"
)

// CreateTask creates a task owned by the actor.
func (s *TaskService) CreateTask(ctx context.Context, actor *Actor, input CreateTaskInput) (*dto.TaskDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !input.Status.IsValid() {
		return nil, invalidValue(ErrInvalidStatus, string(input.Status))
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityLow
	}
	if !input.Priority.IsValid() {
		return nil, invalidValue(ErrInvalidPriority, string(input.Priority))
	}

	now := s.now().UTC()
	var due *time.Time
	if input.DueDate != nil {
		utc := input.DueDate.UTC()
		due = &utc
	}
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     due,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   actor.ID,
		UpdatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := ensureAssignee(ctx, tx, input.AssignedTo); err != nil {
			return err
		}
		if err := tx.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.enricher.Task(ctx, task)
}

// UpdateTask applies a sparse patch to a task.
func (s *TaskService) UpdateTask(ctx context.Context, actor *Actor, taskID uint64, patch models.TaskPatch) (*dto.TaskDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !patch.ClearAssignee {
			if err := ensureAssignee(ctx, tx, patch.AssignedTo); err != nil {
				return err
			}
		}

		patch.Apply(found)
		s.stamp(found, actor)
		if err := tx.Tasks().Update(ctx, found); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.enricher.Task(ctx, task)
}

// BulkUpdateTasks applies the same patch to every existing task among
// taskIDs. Unknown ids are skipped; all updates commit together.
func (s *TaskService) BulkUpdateTasks(ctx context.Context, actor *Actor, taskIDs []uint64, patch models.TaskPatch) ([]dto.TaskDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if len(taskIDs) == 0 {
		return nil, ErrNoTaskIDs
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var tasks []models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := tx.Tasks().FindByIDs(ctx, uniqueUint64(taskIDs))
		if err != nil {
			return fmt.Errorf("failed to find tasks: %w", err)
		}
		if len(found) == 0 {
			return ErrNoTasksFound
		}
		if !patch.ClearAssignee {
			if err := ensureAssignee(ctx, tx, patch.AssignedTo); err != nil {
				return err
			}
		}

		for i := range found {
			patch.Apply(&found[i])
			s.stamp(&found[i], actor)
			if err := tx.Tasks().Update(ctx, &found[i]); err != nil {
				return fmt.Errorf("failed to update task %d: %w", found[i].ID, err)
			}
		}
		tasks = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.enricher.Tasks(ctx, tasks)
}

// UpdateTaskStatus sets the status of a task. Unlike UpdateTask the value is
// a raw string and anything outside the status enum is rejected.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor *Actor, taskID uint64, status string) (*dto.TaskDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	newStatus := models.TaskStatus(status)
	if !newStatus.IsValid() {
		return nil, invalidValue(ErrInvalidStatus, status)
	}

	var task *models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		found.Status = newStatus
		s.stamp(found, actor)
		if err := tx.Tasks().Update(ctx, found); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.enricher.Task(ctx, task)
}

// DeleteTask deletes a task if the actor created it or is an admin, and
// returns the deleted task.
func (s *TaskService) DeleteTask(ctx context.Context, actor *Actor, taskID uint64) (*dto.TaskDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := s.policy.CanDeleteTask(actor, found); err != nil {
			return err
		}
		if err := tx.Tasks().Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task deleted", zap.Uint64("task_id", taskID), zap.Uint64("actor_id", actor.ID))
	return s.enricher.Task(ctx, task)
}

// GetTask returns a single task
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*dto.TaskDTO, error) {
	task, err := findTask(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}
	return s.enricher.Task(ctx, task)
}

// ListTasks returns all tasks in id order
func (s *TaskService) ListTasks(ctx context.Context, skip, limit int) ([]dto.TaskDTO, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPage
	}
	return s.list(ctx, repository.TaskFilter{Skip: skip, Limit: limit})
}

func (s *TaskService) ListTasksCreatedBy(ctx context.Context, userID uint64) ([]dto.TaskDTO, error) {
	return s.list(ctx, repository.TaskFilter{CreatedBy: &userID})
}

func (s *TaskService) ListTasksUpdatedBy(ctx context.Context, userID uint64) ([]dto.TaskDTO, error) {
	return s.list(ctx, repository.TaskFilter{UpdatedBy: &userID})
}

func (s *TaskService) ListTasksAssignedTo(ctx context.Context, userID uint64) ([]dto.TaskDTO, error) {
	return s.list(ctx, repository.TaskFilter{AssignedTo: &userID})
}

// ListMyTasks returns the actor's created, last-updated or assigned tasks.
func (s *TaskService) ListMyTasks(ctx context.Context, actor *Actor, view PersonalView) ([]dto.TaskDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	switch view {
	case ViewCreated:
		return s.ListTasksCreatedBy(ctx, actor.ID)
	case ViewUpdated:
		return s.ListTasksUpdatedBy(ctx, actor.ID)
	case ViewAssigned:
		return s.ListTasksAssignedTo(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("unknown personal view %q", view)
	}
}

// ListOverdueTasks returns tasks past their due date that are not completed.
func (s *TaskService) ListOverdueTasks(ctx context.Context) ([]dto.TaskDTO, error) {
	now := s.now().UTC()
	completed := models.TaskStatusCompleted
	return s.list(ctx, repository.TaskFilter{DueBefore: &now, ExcludeStatus: &completed})
}

func (s *TaskService) ListTasksByPriority(ctx context.Context, priority string) ([]dto.TaskDTO, error) {
	p := models.TaskPriority(priority)
	if !p.IsValid() {
		return nil, invalidValue(ErrInvalidPriority, priority)
	}
	return s.list(ctx, repository.TaskFilter{Priority: &p})
}

// SearchTasks matches query case-insensitively against task titles.
func (s *TaskService) SearchTasks(ctx context.Context, query string, skip, limit int) ([]dto.TaskDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearchQuery
	}
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPage
	}
	return s.list(ctx, repository.TaskFilter{TitleContains: query, Skip: skip, Limit: limit})
}

func (s *TaskService) list(ctx context.Context, filter repository.TaskFilter) ([]dto.TaskDTO, error) {
	tasks, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return s.enricher.Tasks(ctx, tasks)
}

func (s *TaskService) stamp(task *models.Task, actor *Actor) {
	task.UpdatedBy = actor.ID
	task.UpdatedAt = s.now().UTC()
}

func findTask(ctx context.Context, store repository.Store, taskID uint64) (*models.Task, error) {
	task, err := store.Tasks().FindByID(ctx, taskID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func validatePatch(patch models.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return ErrTitleRequired
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return invalidValue(ErrInvalidStatus, string(*patch.Status))
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return invalidValue(ErrInvalidPriority, string(*patch.Priority))
	}
	return nil
}

func ensureAssignee(ctx context.Context, store repository.Store, assignee *uint64) error {
	if assignee == nil {
		return nil
	}
	if _, err := store.Users().FindByID(ctx, *assignee); err != nil {
		if isNotFound(err) {
			return ErrInvalidAssignee
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}
