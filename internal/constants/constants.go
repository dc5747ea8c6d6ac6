package constants

const (
	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyActor     = "actor"
	ContextKeyRequestID = "request_id"

	SessionCookieName = "task_session"
	HeaderRequestID   = "X-Request-ID"

	// Pagination
	DefaultPageSize = 100
	MaxPageSize     = 1000

	MinPasswordLength = 6

	TokenTypeBearer = "bearer"

	// UnknownUsername is shown for audit references to users that no longer exist.
	UnknownUsername = "unknown"
)
