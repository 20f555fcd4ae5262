package handler

import (
	"net/http"
	"strconv"

	"spacemarket/internal/model"
	"spacemarket/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultComparables = 5
	maxComparables     = 20
)

// PropertyHandler handles property browsing and owner edits
type PropertyHandler struct {
	properties *service.PropertyService
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(properties *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

// Search handles GET /api/v1/properties
func (h *PropertyHandler) Search(c *gin.Context) {
	var criteria model.FilterCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.properties.Search(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Featured handles GET /api/v1/properties/featured
func (h *PropertyHandler) Featured(c *gin.Context) {
	props, err := h.properties.Featured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": props})
}

// Get handles GET /api/v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	p, err := h.properties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Comparables handles GET /api/v1/properties/:id/comparables
func (h *PropertyHandler) Comparables(c *gin.Context) {
	limit := defaultComparables
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "kind": KindValidation})
			return
		}
		limit = min(n, maxComparables)
	}

	props, err := h.properties.Comparables(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": props})
}

// Update handles PUT /api/v1/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	var upd model.PropertyUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.properties.Update(c.Request.Context(), currentUID(c), c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/v1/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	if err := h.properties.Delete(c.Request.Context(), currentUID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
