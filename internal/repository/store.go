package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db       *gorm.DB
	users    UserRepository
	tasks    TaskRepository
	comments CommentRepository
}

// NewStore creates a Store on top of db
func NewStore(db *gorm.DB) Store {
	return &GormStore{
		db:       db,
		users:    NewUserRepository(db),
		tasks:    NewTaskRepository(db),
		comments: NewCommentRepository(db),
	}
}

func (s *GormStore) Users() UserRepository       { return s.users }
func (s *GormStore) Tasks() TaskRepository       { return s.tasks }
func (s *GormStore) Comments() CommentRepository { return s.comments }

// Transaction runs fn inside a database transaction bound to ctx.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
