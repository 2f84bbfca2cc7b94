package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-charge/internal/apperr"
)

// writeError maps the error taxonomy onto HTTP statuses: validation 400,
// auth 401, not-found 404, everything else 500. Store failures get logged;
// the client only sees a generic message for them.
func writeError(c *gin.Context, log *zap.SugaredLogger, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsAuth(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Errorw("store failure",
			"error", err,
			"path", c.Request.URL.Path,
			"requestID", c.GetString("requestID"),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
