package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/application"
	"github.com/sewakita/service-rental/internal/domain/marketplace"
	"github.com/sewakita/service-rental/internal/platform/auth"
	"github.com/sewakita/service-rental/internal/platform/middleware"
	"github.com/sewakita/service-rental/internal/platform/response"
)

// MarketplaceHandler exposes cross-tenant rent-to-rent requests over HTTP.
type MarketplaceHandler struct {
	marketplace *application.MarketplaceService
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
func NewMarketplaceHandler(service *application.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplace: service}
}

// RegisterRoutes registers marketplace routes on the router group.
func (h *MarketplaceHandler) RegisterRoutes(rg *gin.RouterGroup, jwtManager *auth.JWTManager) {
	requests := rg.Group("/marketplace/requests")
	requests.Use(middleware.AuthMiddleware(jwtManager))
	{
		requests.POST("", h.SendRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/respond", h.Respond)
	}
}

// SendRequest handles POST /api/v1/marketplace/requests.
func (h *MarketplaceHandler) SendRequest(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var input application.SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.marketplace.SendRequest(c.Request.Context(), tenantID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListRequests handles GET /api/v1/marketplace/requests.
func (h *MarketplaceHandler) ListRequests(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	page, limit := pagination(c)
	result, err := h.marketplace.ListRequests(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetRequest handles GET /api/v1/marketplace/requests/:id.
func (h *MarketplaceHandler) GetRequest(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request ID")
		return
	}

	request, err := h.marketplace.GetRequest(c.Request.Context(), tenantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, request)
}

type respondRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
}

// Respond handles POST /api/v1/marketplace/requests/:id/respond.
func (h *MarketplaceHandler) Respond(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request ID")
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.marketplace.RespondToRequest(c.Request.Context(), tenantID, id, marketplace.Decision(req.Decision))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, request)
}
