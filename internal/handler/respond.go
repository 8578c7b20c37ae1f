package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/apperr"
)

// respondError maps domain errors onto HTTP statuses. Anything outside the
// domain taxonomy is a 500 and gets logged; domain errors are the caller's
// fault and are returned verbatim.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsInvalidState(err), apperr.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

var errMissingQuery = errors.New("query parameter not set")

// parseQueryID parses an optional int64 query parameter.
func parseQueryID(c *gin.Context, name string) (int64, error) {
	value := c.Query(name)
	if value == "" {
		return 0, errMissingQuery
	}
	return strconv.ParseInt(value, 10, 64)
}
