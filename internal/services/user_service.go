package services

import (
	"context"

	"github.com/yukikurage/taskhub-api/internal/dto"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"go.uber.org/zap"
)

// UserService implements account management on behalf of an actor.
type UserService struct {
	store  repository.Store
	hasher PasswordHasher
	policy Policy
	log    *zap.Logger
}

func NewUserService(store repository.Store, hasher PasswordHasher, policy Policy, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		store:  store,
		hasher: hasher,
		policy: policy,
		log:    log,
	}
}

// CreateUserInput is an admin-created account; Role may be admin.
type CreateUserInput struct {
	Username string
	Email    string
	FullName *string
	Password string
	Role     models.UserRole
	IsActive *bool
}

func (s *UserService) ListUsers(ctx context.Context, actor *Actor) ([]dto.UserDTO, error) {
	if err := s.policy.CanManageUsers(actor); err != nil {
		return nil, err
	}

	users, err := NewUserDirectory(s.store.Users(), s.hasher).ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToUserDTOs(users), nil
}

func (s *UserService) AdminCreateUser(ctx context.Context, actor *Actor, input CreateUserInput) (*dto.UserDTO, error) {
	if err := s.policy.CanManageUsers(actor); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		created, err := NewUserDirectory(tx.Users(), s.hasher).Create(ctx, NewUser{
			Username: input.Username,
			Email:    input.Email,
			FullName: input.FullName,
			Password: input.Password,
			Role:     input.Role,
			IsActive: input.IsActive,
		}, false)
		user = created
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.Uint64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Uint64("actor_id", actor.ID),
	)
	userDTO := dto.ToUserDTO(*user)
	return &userDTO, nil
}

// AdminUpdateUser applies patch to a user. Admins may update anyone; other
// users only themselves.
func (s *UserService) AdminUpdateUser(ctx context.Context, actor *Actor, userID uint64, patch UserPatch) (*dto.UserDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, ErrAdminRequired
	}

	var (
		user        *models.User
		roleChanged bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		dir := NewUserDirectory(tx.Users(), s.hasher)
		target, err := dir.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUserNotFound
		}
		if err := s.policy.CanUpdateUser(actor, target, patch); err != nil {
			return err
		}

		previousRole := target.Role
		updated, err := dir.Update(ctx, userID, patch)
		if err != nil {
			return err
		}
		user = updated
		roleChanged = updated.Role != previousRole
		return nil
	})
	if err != nil {
		return nil, err
	}

	if roleChanged {
		s.log.Info("user role changed",
			zap.Uint64("user_id", user.ID),
			zap.String("role", string(user.Role)),
			zap.Uint64("actor_id", actor.ID),
		)
	}
	userDTO := dto.ToUserDTO(*user)
	return &userDTO, nil
}

func (s *UserService) AdminDeleteUser(ctx context.Context, actor *Actor, userID uint64) (*dto.UserDTO, error) {
	if err := s.policy.CanManageUsers(actor); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		deleted, err := NewUserDirectory(tx.Users(), s.hasher).Delete(ctx, userID)
		if err != nil {
			return err
		}
		if deleted == nil {
			return ErrUserNotFound
		}
		user = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user deleted", zap.Uint64("user_id", user.ID), zap.Uint64("actor_id", actor.ID))
	userDTO := dto.ToUserDTO(*user)
	return &userDTO, nil
}
