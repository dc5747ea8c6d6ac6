package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/taskhub-api/internal/constants"
	"github.com/yukikurage/taskhub-api/internal/dto"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"go.uber.org/zap"
)

const adminFullName = "Admin User"

// AuthService handles registration, login and actor resolution.
type AuthService struct {
	store  repository.Store
	hasher PasswordHasher
	tokens TokenService
	log    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store, hasher PasswordHasher, tokens TokenService, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

func (s *AuthService) directory(store repository.Store) *UserDirectory {
	return NewUserDirectory(store.Users(), s.hasher)
}

// RegisterInput represents the information needed for self sign-up.
type RegisterInput struct {
	Username string
	Email    string
	FullName *string
	Password string
}

// Register creates a new account with the user role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*dto.UserDTO, error) {
	var user *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		created, err := s.directory(tx).Create(ctx, NewUser{
			Username: input.Username,
			Email:    input.Email,
			FullName: input.FullName,
			Password: input.Password,
			Role:     models.RoleUser,
		}, false)
		user = created
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
	userDTO := dto.ToUserDTO(*user)
	return &userDTO, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	user, err := s.directory(s.store).VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   constants.TokenTypeBearer,
		User:        dto.ToUserDTO(*user),
	}, nil
}

// Authenticate resolves a bearer token to an actor.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Actor, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.ActorByID(ctx, userID)
}

// ActorByID resolves an active user id to an actor.
func (s *AuthService) ActorByID(ctx context.Context, userID uint64) (*Actor, error) {
	user, err := s.directory(s.store).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUnauthenticated
	}
	return ActorFromUser(user), nil
}

// CheckCurrentUser returns the account behind the actor.
func (s *AuthService) CheckCurrentUser(ctx context.Context, actor *Actor) (*dto.UserDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	user, err := s.directory(s.store).FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	userDTO := dto.ToUserDTO(*user)
	return &userDTO, nil
}

// EnsureAdmin creates the admin account unless a user with that username
// already exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	created := false
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		dir := s.directory(tx)
		existing, err := dir.FindByUsername(ctx, username)
		if err != nil || existing != nil {
			return err
		}

		fullName := adminFullName
		_, err = dir.Create(ctx, NewUser{
			Username: username,
			Email:    email,
			FullName: &fullName,
			Password: password,
			Role:     models.RoleAdmin,
		}, false)
		created = err == nil
		return err
	})
	if err != nil {
		return false, err
	}

	if created {
		s.log.Info("admin user created", zap.String("username", username))
	}
	return created, nil
}
