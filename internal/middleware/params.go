package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskhub-api/internal/errors"
)

const paramKeyPrefix = "param:"

// RequireIDParams parses the named path parameters as unsigned ids and
// rejects the request when one is malformed.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil {
				apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
				return
			}
			c.Set(paramKeyPrefix+name, id)
		}
		c.Next()
	}
}

// IDParam returns a parameter parsed by RequireIDParams
func IDParam(c *gin.Context, name string) uint64 {
	return c.GetUint64(paramKeyPrefix + name)
}
