package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PhotoOpener reads stored photos by storage key.
type PhotoOpener interface {
	Open(storageKey string) (io.ReadCloser, string, error)
}

// MediaHandler serves photos kept by the local media backend.
type MediaHandler struct {
	store  PhotoOpener
	logger *zap.Logger
}

// NewMediaHandler constructs the HTTP handler adapter.
func NewMediaHandler(store PhotoOpener, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{store: store, logger: logger}
}

// Serve streams one stored photo.
func (h *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, mime, err := h.store.Open(key)
	if err != nil {
		h.logger.Debug("photo not served", zap.String("key", key), zap.Error(err))
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, mime, rc, map[string]string{
		"Cache-Control": "public, max-age=31536000, immutable",
	})
}
