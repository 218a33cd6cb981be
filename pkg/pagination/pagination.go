package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
	MinLimit     = 1
)

// Params holds validated list query parameters
type Params struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
	Status         string
	Search         string
}

// Parse extracts limit, offset and filters from query parameters. Bad values
// fall back to defaults; limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	includeDeleted, _ := strconv.ParseBool(c.DefaultQuery("include_deleted", "false"))

	return Params{
		Limit:          limit,
		Offset:         offset,
		IncludeDeleted: includeDeleted,
		Status:         c.Query("status"),
		Search:         c.Query("q"),
	}
}
