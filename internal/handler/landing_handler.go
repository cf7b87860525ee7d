package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizdash/quizdash/internal/response"
	"github.com/quizdash/quizdash/internal/service"
)

// LandingHandler serves the landing page model as JSON.
type LandingHandler struct {
	landingService *service.LandingService
}

// NewLandingHandler creates a new LandingHandler.
func NewLandingHandler(landingService *service.LandingService) *LandingHandler {
	return &LandingHandler{landingService: landingService}
}

// GetLanding godoc
// GET /api/v1/landing
func (h *LandingHandler) GetLanding(c *gin.Context) {
	response.Success(c, http.StatusOK, h.landingService.Page())
}
