package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-charge/internal/apperr"
	"daily-charge/internal/prefs"
)

// PrefsHandler reads and writes per-user preference blobs.
type PrefsHandler struct {
	store *prefs.Store
	log   *zap.SugaredLogger
}

func NewPrefsHandler(store *prefs.Store, log *zap.SugaredLogger) *PrefsHandler {
	return &PrefsHandler{store: store, log: log}
}

// All returns every set preference for the user.
func (h *PrefsHandler) All(c *gin.Context) {
	values, err := h.store.All(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": values})
}

// Put stores the request body as the blob for one preference key.
func (h *PrefsHandler) Put(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, h.log, apperr.Validation("value", "unreadable body"))
		return
	}

	key := c.Param("key")
	if err := h.store.Set(c.Request.Context(), currentUserID(c), key, json.RawMessage(body)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
