package handler

import (
	"spacemarket/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler
type Handlers struct {
	Auth      *AuthHandler
	Property  *PropertyHandler
	Listing   *ListingHandler
	User      *UserHandler
	Message   *MessageHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes mounts the /api/v1 routes on r. Browsing is public; every
// other route requires a bearer token.
func RegisterRoutes(r gin.IRouter, h Handlers, manager *auth.Manager) {
	apiV1 := r.Group("/api/v1")

	// Public endpoints
	apiV1.POST("/auth/signup", h.Auth.SignUp)
	apiV1.POST("/auth/signin", h.Auth.SignIn)
	apiV1.POST("/auth/google", h.Auth.SignInWithGoogle)
	apiV1.GET("/properties", h.Property.Search)
	apiV1.GET("/properties/featured", h.Property.Featured)
	apiV1.GET("/properties/:id", h.Property.Get)
	apiV1.GET("/properties/:id/comparables", h.Property.Comparables)

	authed := apiV1.Group("", RequireAuth(manager))
	{
		authed.POST("/auth/signout", h.Auth.SignOut)

		authed.PUT("/properties/:id", h.Property.Update)
		authed.DELETE("/properties/:id", h.Property.Delete)

		authed.POST("/listings/forms", h.Listing.StartForm)
		authed.GET("/listings/forms/:id", h.Listing.GetForm)
		authed.POST("/listings/forms/:id/predict", h.Listing.Predict)
		authed.POST("/listings/forms/:id/images", h.Listing.UploadImage)
		authed.POST("/listings/forms/:id/submit", h.Listing.Submit)
		authed.DELETE("/listings/forms/:id", h.Listing.Discard)

		authed.GET("/me", h.User.Profile)
		authed.POST("/me/become-seller", h.User.BecomeSeller)
		authed.GET("/me/favorites", h.User.Favorites)
		authed.PUT("/me/favorites/:propertyId", h.User.AddFavorite)
		authed.DELETE("/me/favorites/:propertyId", h.User.RemoveFavorite)

		authed.POST("/messages", h.Message.Send)
		authed.GET("/messages", h.Message.Inbox)
		authed.GET("/messages/with/:userId", h.Message.Conversation)
		authed.POST("/messages/:id/read", h.Message.MarkRead)

		authed.GET("/dashboard", h.Dashboard.Get)
	}
}
