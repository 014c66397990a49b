package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/service/plants"
)

// PlantHandler serves plant CRUD and catalog views.
type PlantHandler struct {
	svc    *plants.Service
	logger *zap.Logger
}

// NewPlantHandler constructs the HTTP handler adapter.
func NewPlantHandler(svc *plants.Service, logger *zap.Logger) *PlantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlantHandler{svc: svc, logger: logger}
}

type plantRequest struct {
	Name     string `json:"name"`
	GroupID  string `json:"groupId"`
	Category string `json:"categoryId"`
	Variety  string `json:"variety"`
}

type recategorizeRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// List returns the owner's plants.
func (h *PlantHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), ownerID(c))
	if err != nil {
		h.logger.Error("failed listing plants", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plants": list})
}

// Create registers a plant.
func (h *PlantHandler) Create(c *gin.Context) {
	var req plantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), ownerID(c), models.Plant{
		Name:     req.Name,
		GroupID:  req.GroupID,
		Category: req.Category,
		Variety:  req.Variety,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update edits a plant; omitted fields stay unchanged.
func (h *PlantHandler) Update(c *gin.Context) {
	var req models.PlantUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), ownerID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete removes a plant.
func (h *PlantHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Recategorize moves every plant of one category to another.
func (h *PlantHandler) Recategorize(c *gin.Context) {
	var req recategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	n, err := h.svc.Recategorize(c.Request.Context(), ownerID(c), req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Grouped returns the plants partitioned by group, each group sorted.
func (h *PlantHandler) Grouped(c *gin.Context) {
	cat, err := h.svc.Catalog(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": cat.GroupAndSort()})
}

// Search filters plants and buckets them by the first word of their category.
func (h *PlantHandler) Search(c *gin.Context) {
	cat, err := h.svc.Catalog(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": cat.Search(c.Query("q"))})
}

// Categories lists the distinct categories.
func (h *PlantHandler) Categories(c *gin.Context) {
	cat, err := h.svc.Catalog(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cat.Categories()})
}

// Groups lists the distinct stored groups.
func (h *PlantHandler) Groups(c *gin.Context) {
	cat, err := h.svc.Catalog(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": cat.Groups()})
}
