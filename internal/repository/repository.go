package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskhub-api/internal/models"
)

// Store groups the per-entity repositories and owns transaction boundaries.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository
	Comments() CommentRepository

	// Transaction runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// FindByIDs returns the tasks among ids that exist, ordered by id
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Task, error)

	// List retrieves tasks matching filter, ordered by id
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update persists every field of task
	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task row
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks. Zero values do not filter.
type TaskFilter struct {
	CreatedBy     *uint64
	UpdatedBy     *uint64
	AssignedTo    *uint64
	Priority      *models.TaskPriority
	TitleContains string
	DueBefore     *time.Time
	ExcludeStatus *models.TaskStatus
	Skip          int
	Limit         int
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id uint64) (*models.Comment, error)

	// ListByTask returns the comments of a task in id order
	ListByTask(ctx context.Context, taskID uint64) ([]models.Comment, error)

	Delete(ctx context.Context, id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByIDs returns the users among ids that exist
	FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error)

	// FindByUsername finds a user by exact username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by exact email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns all users in id order
	List(ctx context.Context) ([]models.User, error)

	// Update persists every field of user
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user row
	Delete(ctx context.Context, id uint64) error
}
