package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/application"
	"github.com/sewakita/service-rental/internal/platform/auth"
	"github.com/sewakita/service-rental/internal/platform/middleware"
	"github.com/sewakita/service-rental/internal/platform/response"
)

// LedgerHandler exposes the derived ledger over HTTP. Read-only.
type LedgerHandler struct {
	ledger *application.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(service *application.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: service}
}

// RegisterRoutes registers ledger routes on the router group.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup, jwtManager *auth.JWTManager) {
	ledger := rg.Group("/ledger")
	ledger.Use(middleware.AuthMiddleware(jwtManager))
	{
		ledger.GET("/entries", h.ListEntries)
		ledger.GET("/bookings/:id/entries", h.ListByBooking)
	}
}

// ListEntries handles GET /api/v1/ledger/entries.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	page, limit := pagination(c)
	result, err := h.ledger.ListEntries(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListByBooking handles GET /api/v1/ledger/bookings/:id/entries.
func (h *LedgerHandler) ListByBooking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	entries, err := h.ledger.ListEntriesByBooking(c.Request.Context(), tenantID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}
