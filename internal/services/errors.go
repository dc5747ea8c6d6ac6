package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies a service failure. The transport layer maps each kind to
// exactly one response status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthenticated
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "internal"
	}
}

// Error is a classified service failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err. Anything unclassified, including storage
// failures, is KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return KindConflict
	}
	return KindInternal
}

var (
	ErrTaskNotFound    = newError(KindNotFound, "task not found")
	ErrNoTasksFound    = newError(KindNotFound, "no tasks found")
	ErrCommentNotFound = newError(KindNotFound, "comment not found")
	ErrUserNotFound    = newError(KindNotFound, "user not found")

	ErrUsernameTaken = newError(KindConflict, "username already exists")
	ErrEmailTaken    = newError(KindConflict, "email already exists")

	ErrUnauthenticated    = newError(KindUnauthenticated, "authentication required")
	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid username or password")
	ErrInvalidToken       = newError(KindUnauthenticated, "invalid or expired token")

	ErrAccountDisabled     = newError(KindForbidden, "account is disabled")
	ErrNotTaskCreator      = newError(KindForbidden, "only the task creator or an admin can delete this task")
	ErrNotCommentAuthor    = newError(KindForbidden, "only the comment author or an admin can delete this comment")
	ErrAdminRequired       = newError(KindForbidden, "admin privileges required")
	ErrSelfPrivilegeChange = newError(KindForbidden, "users cannot change their own role or active flag")
	ErrRoleChangeForbidden = newError(KindForbidden, "role change is not permitted by policy")

	ErrTitleRequired    = newError(KindInvalidArgument, "title is required")
	ErrInvalidStatus    = newError(KindInvalidArgument, "invalid task status")
	ErrInvalidPriority  = newError(KindInvalidArgument, "invalid task priority")
	ErrInvalidRole      = newError(KindInvalidArgument, "invalid user role")
	ErrInvalidAssignee  = newError(KindInvalidArgument, "assigned user does not exist")
	ErrEmptySearchQuery = newError(KindInvalidArgument, "search query must not be empty")
	ErrNoTaskIDs        = newError(KindInvalidArgument, "at least one task id is required")
	ErrInvalidPage      = newError(KindInvalidArgument, "skip and limit must not be negative")
	ErrContentRequired  = newError(KindInvalidArgument, "comment content is required")
	ErrUsernameRequired = newError(KindInvalidArgument, "username is required")
	ErrEmailRequired    = newError(KindInvalidArgument, "email is required")
	ErrPasswordTooShort = newError(KindInvalidArgument, "password too short")
	ErrPasswordTooLong  = newError(KindInvalidArgument, "password too long")
)

func invalidValue(base *Error, value string) error {
	return fmt.Errorf("%w: %q", base, value)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
