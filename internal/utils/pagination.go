package utils

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrInvalidPagination is returned for skip, page or limit values that are
// not integers, and for a negative skip.
var ErrInvalidPagination = errors.New("skip, page and limit must be integers and skip must not be negative")

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Skip  int
	Limit int
}

// GetPaginationParams extracts skip/limit from the query string. A page
// parameter is accepted when skip is absent and translated into an offset.
// A limit below 1 falls back to defaultLimit and is capped at maxLimit.
func GetPaginationParams(c *gin.Context, defaultLimit, maxLimit int) (PaginationParams, error) {
	limit := defaultLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return PaginationParams{}, ErrInvalidPagination
		}
		if n >= 1 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	skip := 0
	if raw, ok := c.GetQuery("skip"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return PaginationParams{}, ErrInvalidPagination
		}
		skip = n
	} else if raw, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return PaginationParams{}, ErrInvalidPagination
		}
		// (page-1)*limit must stay within int
		if maxPage := math.MaxInt/limit + 1; page > maxPage {
			page = maxPage
		}
		if page > 1 {
			skip = (page - 1) * limit
		}
	}

	return PaginationParams{
		Skip:  skip,
		Limit: limit,
	}, nil
}
