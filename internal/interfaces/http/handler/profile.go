package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/labelbridge/backend/internal/infrastructure/profiles"
	"github.com/labelbridge/backend/internal/interfaces/http/router"
)

// ProfileCatalog lists the registered transform profiles
type ProfileCatalog interface {
	Profiles() []profiles.Info
}

// ProfileHandler exposes the transform profiles in evaluation order
type ProfileHandler struct {
	BaseHandler
	catalog ProfileCatalog
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(catalog ProfileCatalog) *ProfileHandler {
	return &ProfileHandler{catalog: catalog}
}

// ListProfiles returns every profile with its carriers
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	h.Success(c, h.catalog.Profiles())
}

// ProfileRoutes creates the route group for profile endpoints
func ProfileRoutes(handler *ProfileHandler) *router.DomainGroup {
	return router.NewDomainGroup("profiles", "/profiles").
		GET("", handler.ListProfiles)
}
