package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	infragin "github.com/huzhengnan/website-monitor-sub000/infrastructure/gin"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const (
	defaultDays     = 7
	maxDays         = 365
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseUUID parses a UUID from a gin.Context parameter
func parseUUID(c *gin.Context, paramName, entityType string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + entityType + " ID format",
			"field": paramName,
		})
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter. A missing value yields
// nil.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a valid UUID", "field": name})
		return nil, false
	}
	return &id, true
}

// queryInt reads an integer query parameter in [lo, hi]. A missing value
// yields def; a malformed or out-of-range one writes a 400.
func queryInt(c *gin.Context, name string, def, lo, hi int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": name + " must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi),
			"field": name,
		})
		return 0, false
	}
	return n, true
}

// pagination reads page and pageSize.
func pagination(c *gin.Context) (page, pageSize int, ok bool) {
	if page, ok = queryInt(c, "page", defaultPage, 1, math.MaxInt32); !ok {
		return 0, 0, false
	}
	if pageSize, ok = queryInt(c, "pageSize", defaultPageSize, 1, maxPageSize); !ok {
		return 0, 0, false
	}
	return page, pageSize, true
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// bindJSON decodes the request body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	return true
}

// errorResponder writes service errors as JSON responses.
type errorResponder struct {
	logger infralogger.Logger
	debug  bool
}

// handle maps err onto a status code. Unexpected errors are logged and
// reported as "Failed to <operation> <entity>".
func (e errorResponder) handle(c *gin.Context, err error, entityType, operation string) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		body := gin.H{"error": vErr.Message}
		if vErr.Field != "" {
			body["field"] = vErr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, models.ErrNoFieldsToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field must be provided for update"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": entityType + " not found"})
	case errors.Is(err, models.ErrDuplicateSubmission),
		errors.Is(err, models.ErrDuplicateConnector),
		errors.Is(err, models.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		infragin.RequestLogger(c, e.logger).Error("Failed to "+operation+" "+entityType,
			infralogger.String("path", c.FullPath()),
			infralogger.Error(err),
		)
		body := gin.H{"error": "Failed to " + operation + " " + entityType}
		if e.debug {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}
