package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// ClampListParams validates offset/limit pagination values. A negative skip
// becomes 0; a limit below 1 falls back to DefaultLimit and anything above
// MaxLimit is clamped down to it.
func ClampListParams(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}

// ParseListParams extracts skip/limit pagination and the load_enrollments flag
// from the request query.
func ParseListParams(c *gin.Context) (skip, limit int, loadEnrollments bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		skip = 0
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil {
		limit = DefaultLimit
	}

	skip, limit = ClampListParams(skip, limit)
	loadEnrollments, _ = strconv.ParseBool(c.DefaultQuery("load_enrollments", "false"))
	return skip, limit, loadEnrollments
}
