package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/taskhub-api/internal/constants"
	"github.com/yukikurage/taskhub-api/internal/dto"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
)

// Enricher replaces user ids on tasks and comments with usernames. Every
// batch resolves its distinct ids with a single lookup.
type Enricher struct {
	users   repository.UserRepository
	unknown string
}

func NewEnricher(users repository.UserRepository) *Enricher {
	return &Enricher{
		users:   users,
		unknown: constants.UnknownUsername,
	}
}

func (e *Enricher) usernames(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	distinct := uniqueUint64(ids)
	names := make(map[uint64]string, len(distinct))
	if len(distinct) == 0 {
		return names, nil
	}

	users, err := e.users.FindByIDs(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}
	for _, user := range users {
		names[user.ID] = user.Username
	}
	return names, nil
}

// Tasks enriches a batch of tasks.
func (e *Enricher) Tasks(ctx context.Context, tasks []models.Task) ([]dto.TaskDTO, error) {
	ids := make([]uint64, 0, len(tasks)*3)
	for i := range tasks {
		ids = append(ids, tasks[i].ActorIDs()...)
	}

	names, err := e.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]dto.TaskDTO, len(tasks))
	for i, task := range tasks {
		views[i] = dto.ToTaskDTO(task, names, e.unknown)
	}
	return views, nil
}

func (e *Enricher) Task(ctx context.Context, task *models.Task) (*dto.TaskDTO, error) {
	views, err := e.Tasks(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Comments enriches a batch of comments with their author names.
func (e *Enricher) Comments(ctx context.Context, comments []models.Comment) ([]dto.CommentDTO, error) {
	ids := make([]uint64, len(comments))
	for i, comment := range comments {
		ids[i] = comment.UserID
	}

	names, err := e.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]dto.CommentDTO, len(comments))
	for i, comment := range comments {
		author, ok := names[comment.UserID]
		if !ok {
			author = e.unknown
		}
		views[i] = dto.ToCommentDTO(comment, author)
	}
	return views, nil
}

func (e *Enricher) Comment(ctx context.Context, comment *models.Comment) (*dto.CommentDTO, error) {
	views, err := e.Comments(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
