package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/service/preferences"
)

// PreferencesHandler serves per-user display settings.
type PreferencesHandler struct {
	svc    *preferences.Service
	logger *zap.Logger
}

// NewPreferencesHandler constructs the HTTP handler adapter.
func NewPreferencesHandler(svc *preferences.Service, logger *zap.Logger) *PreferencesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesHandler{svc: svc, logger: logger}
}

type preferencesRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// Get returns the caller's preferences.
func (h *PreferencesHandler) Get(c *gin.Context) {
	p, err := h.svc.Load(c.Request.Context(), ownerID(c))
	if err != nil {
		h.logger.Error("failed loading preferences", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Put saves the caller's preferences.
func (h *PreferencesHandler) Put(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme is required"})
		return
	}

	p, err := h.svc.SetTheme(c.Request.Context(), ownerID(c), req.Theme)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
