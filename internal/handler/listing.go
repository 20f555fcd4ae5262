package handler

import (
	"fmt"
	"net/http"

	"spacemarket/internal/model"
	"spacemarket/internal/service"

	"github.com/gin-gonic/gin"
)

// ListingHandler drives the listing form: price prediction, image uploads
// and the final submission
type ListingHandler struct {
	listings       *service.ListingService
	maxUploadBytes int64
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *service.ListingService, maxUploadBytes int64) *ListingHandler {
	return &ListingHandler{listings: listings, maxUploadBytes: maxUploadBytes}
}

// StartForm handles POST /api/v1/listings/forms
func (h *ListingHandler) StartForm(c *gin.Context) {
	form, err := h.listings.StartForm(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, form)
}

// GetForm handles GET /api/v1/listings/forms/:id
func (h *ListingHandler) GetForm(c *gin.Context) {
	form, err := h.listings.Form(c.Request.Context(), currentUID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// Predict handles POST /api/v1/listings/forms/:id/predict. The body is the
// raw form state.
func (h *ListingHandler) Predict(c *gin.Context) {
	var state model.FormState
	if err := c.ShouldBindJSON(&state); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.listings.Predict(c.Request.Context(), currentUID(c), c.Param("id"), state)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if out.Skipped {
		status = http.StatusAccepted
	}
	c.JSON(status, out)
}

// UploadImage handles POST /api/v1/listings/forms/:id/images (multipart field "image")
func (h *ListingHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, err)
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		respondError(c, &model.ValidationError{
			Field:   "image",
			Message: fmt.Sprintf("image exceeds %d MB", h.maxUploadBytes>>20),
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	key, err := h.listings.UploadImage(c.Request.Context(), currentUID(c), c.Param("id"),
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// Submit handles POST /api/v1/listings/forms/:id/submit
func (h *ListingHandler) Submit(c *gin.Context) {
	var req model.SubmitListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.listings.Submit(c.Request.Context(), currentUID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if out.Skipped {
		c.JSON(http.StatusAccepted, out)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Discard handles DELETE /api/v1/listings/forms/:id
func (h *ListingHandler) Discard(c *gin.Context) {
	if err := h.listings.Discard(c.Request.Context(), currentUID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
