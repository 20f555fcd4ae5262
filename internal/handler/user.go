package handler

import (
	"net/http"

	"spacemarket/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the caller's profile and favorites
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Profile handles GET /api/v1/me
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.users.Profile(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// BecomeSeller handles POST /api/v1/me/become-seller
func (h *UserHandler) BecomeSeller(c *gin.Context) {
	u, err := h.users.BecomeSeller(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Favorites handles GET /api/v1/me/favorites
func (h *UserHandler) Favorites(c *gin.Context) {
	props, err := h.users.Favorites(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": props})
}

// AddFavorite handles PUT /api/v1/me/favorites/:propertyId
func (h *UserHandler) AddFavorite(c *gin.Context) {
	favs, err := h.users.AddFavorite(c.Request.Context(), currentUID(c), c.Param("propertyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}

// RemoveFavorite handles DELETE /api/v1/me/favorites/:propertyId
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	favs, err := h.users.RemoveFavorite(c.Request.Context(), currentUID(c), c.Param("propertyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}
