package services

import (
	"github.com/yukikurage/taskhub-api/internal/repository"
	"go.uber.org/zap"
)

// Options configures the application services.
type Options struct {
	Roles  RolePolicy
	Logger *zap.Logger
}

// Services bundles the application services sharing one store.
type Services struct {
	Auth     *AuthService
	Users    *UserService
	Tasks    *TaskService
	Comments *CommentService
}

// New wires the application services.
func New(store repository.Store, hasher PasswordHasher, tokens TokenService, opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	policy := Policy{Roles: opts.Roles}
	enricher := NewEnricher(store.Users())

	return &Services{
		Auth:     NewAuthService(store, hasher, tokens, log.Named("auth")),
		Users:    NewUserService(store, hasher, policy, log.Named("users")),
		Tasks:    NewTaskService(store, enricher, policy, log.Named("tasks")),
		Comments: NewCommentService(store, enricher, policy, log.Named("comments")),
	}
}
