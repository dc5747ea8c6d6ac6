package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/taskhub-api/internal/dto"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"go.uber.org/zap"
)

// CommentService handles comments attached to tasks
type CommentService struct {
	store    repository.Store
	enricher *Enricher
	policy   Policy
	log      *zap.Logger
}

func NewCommentService(store repository.Store, enricher *Enricher, policy Policy, log *zap.Logger) *CommentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{
		store:    store,
		enricher: enricher,
		policy:   policy,
		log:      log,
	}
}

// AddComment attaches a comment written by the actor to a task.
func (s *CommentService) AddComment(ctx context.Context, actor *Actor, taskID uint64, content string) (*dto.CommentDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}

	comment := &models.Comment{
		Content: content,
		TaskID:  taskID,
		UserID:  actor.ID,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := findTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.enricher.Comment(ctx, comment)
}

// ListComments returns the comments of an existing task in id order.
func (s *CommentService) ListComments(ctx context.Context, taskID uint64) ([]dto.CommentDTO, error) {
	if _, err := findTask(ctx, s.store, taskID); err != nil {
		return nil, err
	}

	comments, err := s.store.Comments().ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return s.enricher.Comments(ctx, comments)
}

// DeleteComment removes a comment of the given task if the actor wrote it
// or is an admin, and returns the deleted comment.
func (s *CommentService) DeleteComment(ctx context.Context, actor *Actor, taskID, commentID uint64) (*dto.CommentDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var deleted dto.CommentDTO
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := findTask(ctx, tx, taskID); err != nil {
			return err
		}

		comment, err := tx.Comments().FindByID(ctx, commentID)
		if err != nil {
			if isNotFound(err) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("failed to find comment: %w", err)
		}
		if comment.TaskID != taskID {
			return ErrCommentNotFound
		}

		author, err := optionalUser(tx.Users().FindByID(ctx, comment.UserID))
		if err != nil {
			return err
		}
		if err := s.policy.CanDeleteComment(actor, author); err != nil {
			return err
		}

		if err := tx.Comments().Delete(ctx, commentID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		authorName := s.enricher.unknown
		if author != nil {
			authorName = author.Username
		}
		deleted = dto.ToCommentDTO(*comment, authorName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("comment deleted",
		zap.Uint64("comment_id", commentID),
		zap.Uint64("task_id", taskID),
		zap.Uint64("actor_id", actor.ID),
	)
	return &deleted, nil
}
