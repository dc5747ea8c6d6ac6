package handlers

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/taskhub-api/internal/errors"
	"github.com/yukikurage/taskhub-api/internal/middleware"
	"github.com/yukikurage/taskhub-api/internal/services"
	"go.uber.org/zap"
)

// respondError maps a service error to its response status. Unclassified
// errors are logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		apierrors.NotFound(c, err.Error())
	case services.KindConflict:
		apierrors.Conflict(c, err.Error())
	case services.KindForbidden:
		apierrors.Forbidden(c, err.Error())
	case services.KindUnauthenticated:
		if errors.Is(err, services.ErrInvalidCredentials) {
			apierrors.InvalidCredentials(c, err.Error())
			return
		}
		apierrors.Unauthorized(c, err.Error())
	case services.KindInvalidArgument:
		apierrors.BadRequest(c, err.Error())
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("request timed out", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
			apierrors.ServiceUnavailable(c, "Request timed out")
			return
		}
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		apierrors.InternalError(c, "")
	}
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// jsonFieldName reports validation failures under the JSON key
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// respondBindError answers a request body that failed to bind, listing the
// offending fields when validation rather than decoding failed.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	details := make([]fieldError, len(verrs))
	for i, fe := range verrs {
		details[i] = fieldError{Field: fe.Field(), Rule: fe.Tag()}
	}
	apierrors.BadRequestWithDetails(c, "Invalid request body", details)
}
