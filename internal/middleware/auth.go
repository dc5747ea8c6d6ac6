package middleware

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub-api/internal/constants"
	apierrors "github.com/yukikurage/taskhub-api/internal/errors"
	"github.com/yukikurage/taskhub-api/internal/services"
	"go.uber.org/zap"
)

const contextKeyAuthError = "auth_error"

// ActorResolver turns credentials into an actor.
type ActorResolver interface {
	Authenticate(ctx context.Context, token string) (*services.Actor, error)
	ActorByID(ctx context.Context, userID uint64) (*services.Actor, error)
}

// LoadActor resolves the actor from a bearer token, falling back to the
// session cookie. Requests without valid credentials continue anonymously;
// RequireAuth rejects them where needed.
func LoadActor(resolver ActorResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, ok := bearerToken(c); ok {
			actor, err := resolver.Authenticate(ctx, token)
			if err != nil {
				if services.KindOf(err) == services.KindInternal {
					log.Error("failed to resolve actor", zap.Error(err))
					apierrors.InternalError(c, "")
					return
				}
				c.Set(contextKeyAuthError, err)
				c.Next()
				return
			}
			setActor(c, actor)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := toUint64(session.Get(constants.ContextKeyUserID)); ok {
			actor, err := resolver.ActorByID(ctx, userID)
			switch {
			case err == nil:
				setActor(c, actor)
			case services.KindOf(err) == services.KindInternal:
				log.Error("failed to resolve session actor", zap.Error(err))
				apierrors.InternalError(c, "")
				return
			default:
				// the account is gone or disabled
				session.Delete(constants.ContextKeyUserID)
				_ = session.Save()
			}
		}

		c.Next()
	}
}

// RequireAuth rejects requests that carry no resolved actor
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActor(c) != nil {
			c.Next()
			return
		}

		message := ""
		if err, ok := c.Get(contextKeyAuthError); ok {
			message = err.(error).Error()
		}
		apierrors.Unauthorized(c, message)
	}
}

// GetActor returns the resolved actor, or nil for anonymous requests
func GetActor(c *gin.Context) *services.Actor {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil
	}
	actor, _ := value.(*services.Actor)
	return actor
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

func setActor(c *gin.Context, actor *services.Actor) {
	c.Set(constants.ContextKeyActor, actor)
	c.Set(constants.ContextKeyUserID, actor.ID)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func toUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
