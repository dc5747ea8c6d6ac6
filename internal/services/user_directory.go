package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/taskhub-api/internal/constants"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"gorm.io/gorm"
)

// NewUser describes an account to create.
type NewUser struct {
	Username string
	Email    string
	FullName *string
	Password string
	// Role defaults to user.
	Role models.UserRole
	// IsActive defaults to true.
	IsActive *bool
}

// UserPatch is a sparse user update; nil fields are left untouched. An
// empty Password is ignored rather than cleared.
type UserPatch struct {
	Username *string
	Email    *string
	FullName *string
	Password *string
	IsActive *bool
	Role     *models.UserRole
}

// UserDirectory manages user accounts on top of a UserRepository. Lookups
// return a nil user rather than an error when nothing matches.
type UserDirectory struct {
	users  repository.UserRepository
	hasher PasswordHasher
}

func NewUserDirectory(users repository.UserRepository, hasher PasswordHasher) *UserDirectory {
	return &UserDirectory{
		users:  users,
		hasher: hasher,
	}
}

func (d *UserDirectory) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	return optionalUser(d.users.FindByID(ctx, id))
}

func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return optionalUser(d.users.FindByUsername(ctx, username))
}

func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return optionalUser(d.users.FindByEmail(ctx, email))
}

func optionalUser(user *models.User, err error) (*models.User, error) {
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Create persists a new account. The password is hashed unless
// passwordAlreadyHashed is set.
func (d *UserDirectory) Create(ctx context.Context, input NewUser, passwordAlreadyHashed bool) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.IsValid() {
		return nil, invalidValue(ErrInvalidRole, string(role))
	}

	passwordHash := input.Password
	if !passwordAlreadyHashed {
		hashed, err := d.hashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = hashed
	}

	if err := d.ensureUnique(ctx, 0, &username, &email); err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     input.FullName,
		PasswordHash: passwordHash,
		IsActive:     isActive,
		Role:         role,
	}

	if err := d.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Update merges patch into the user with the given id.
func (d *UserDirectory) Update(ctx context.Context, id uint64, patch UserPatch) (*models.User, error) {
	user, err := d.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var username, email *string
	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		if trimmed == "" {
			return nil, ErrUsernameRequired
		}
		if trimmed != user.Username {
			username = &trimmed
		}
	}
	if patch.Email != nil {
		trimmed := strings.TrimSpace(*patch.Email)
		if trimmed == "" {
			return nil, ErrEmailRequired
		}
		if trimmed != user.Email {
			email = &trimmed
		}
	}
	if err := d.ensureUnique(ctx, user.ID, username, email); err != nil {
		return nil, err
	}
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}

	if patch.FullName != nil {
		fullName := *patch.FullName
		user.FullName = &fullName
	}
	if patch.Password != nil && *patch.Password != "" {
		hashed, err := d.hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return nil, invalidValue(ErrInvalidRole, string(*patch.Role))
		}
		user.Role = *patch.Role
	}

	if err := d.users.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes the user and returns the deleted row, or nil when absent.
// Tasks and comments referencing the user are kept.
func (d *UserDirectory) Delete(ctx context.Context, id uint64) (*models.User, error) {
	user, err := d.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}

	if err := d.users.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}

func (d *UserDirectory) ListAll(ctx context.Context) ([]models.User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// VerifyCredentials returns the matching user, or nil when the username is
// unknown or the password does not match.
func (d *UserDirectory) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := d.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Unknown usernames still pay for a hash comparison.
		d.hasher.Verify(password, d.hasher.DummyHash())
		return nil, nil
	}
	if !d.hasher.Verify(password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}

func (d *UserDirectory) hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	return d.hasher.Hash(password)
}

// ensureUnique checks the candidate username and email against every row
// other than excludeID.
func (d *UserDirectory) ensureUnique(ctx context.Context, excludeID uint64, username, email *string) error {
	if username != nil {
		existing, err := d.FindByUsername(ctx, *username)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != excludeID {
			return ErrUsernameTaken
		}
	}
	if email != nil {
		existing, err := d.FindByEmail(ctx, *email)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != excludeID {
			return ErrEmailTaken
		}
	}
	return nil
}
