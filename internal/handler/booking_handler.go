package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/application"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"github.com/sewakita/service-rental/internal/platform/auth"
	"github.com/sewakita/service-rental/internal/platform/middleware"
	"github.com/sewakita/service-rental/internal/platform/response"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	bookings     *application.BookingService
	availability *application.AvailabilityService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *application.BookingService, availability *application.AvailabilityService) *BookingHandler {
	return &BookingHandler{bookings: bookings, availability: availability}
}

// RegisterRoutes registers booking routes on the router group.
func (h *BookingHandler) RegisterRoutes(rg *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/stats", h.GetStats)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/status", h.ChangeStatus)
		bookings.PATCH("/:id/payment", h.UpdatePayment)
	}

	availability := rg.Group("/availability")
	availability.Use(middleware.AuthMiddleware(jwtManager))
	{
		availability.GET("", h.CheckAvailability)
		availability.GET("/blocked", h.ListBlocked)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), tenantID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	page, limit := pagination(c)
	result, err := h.bookings.ListBookings(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), tenantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, booking)
}

type changeStatusRequest struct {
	Status     string                   `json:"status" binding:"required"`
	Checklist  *bookingDomain.Checklist `json:"checklist"`
	ReturnedAt time.Time                `json:"returned_at"`
	Reason     string                   `json:"reason"`
}

// ChangeStatus handles POST /api/v1/bookings/:id/status.
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	status, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.Transition(c.Request.Context(), tenantID, id, status, application.TransitionInput{
		Checklist:  req.Checklist,
		ReturnedAt: req.ReturnedAt,
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, booking)
}

type updatePaymentRequest struct {
	AmountPaid     int64  `json:"amount_paid"`
	PaymentMethod  string `json:"payment_method" binding:"required"`
	DeferredMonths int    `json:"deferred_months"`
}

// UpdatePayment handles PATCH /api/v1/bookings/:id/payment.
func (h *BookingHandler) UpdatePayment(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.UpdatePayment(c.Request.Context(), tenantID, id,
		req.AmountPaid, bookingDomain.PaymentMethod(req.PaymentMethod), req.DeferredMonths)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, booking)
}

// GetStats handles GET /api/v1/bookings/stats.
func (h *BookingHandler) GetStats(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	stats, err := h.bookings.GetBookingStats(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// CheckAvailability handles GET /api/v1/availability.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	carID, err := uuid.Parse(c.Query("car_id"))
	if err != nil {
		response.BadRequest(c, "invalid car_id")
		return
	}
	start, end, err := parseInterval(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	driverID, err := optionalUUID(c.Query("driver_id"))
	if err != nil {
		response.BadRequest(c, "invalid driver_id")
		return
	}
	excludeID, err := optionalUUID(c.Query("exclude_booking_id"))
	if err != nil {
		response.BadRequest(c, "invalid exclude_booking_id")
		return
	}

	available, err := h.availability.IsAvailable(c.Request.Context(), tenantID, carID, driverID, start, end, excludeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"available": available})
}

// ListBlocked handles GET /api/v1/availability/blocked.
func (h *BookingHandler) ListBlocked(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	start, end, err := parseInterval(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	excludeID, err := optionalUUID(c.Query("exclude_booking_id"))
	if err != nil {
		response.BadRequest(c, "invalid exclude_booking_id")
		return
	}

	carIDs, driverIDs, err := h.availability.ListUnavailable(c.Request.Context(), tenantID, start, end, excludeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"car_ids": carIDs, "driver_ids": driverIDs})
}

// --- Helpers shared by the handlers ---

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func parseInterval(c *gin.Context) (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidInterval("start")
	}
	end, err = time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidInterval("end")
	}
	return start, end, nil
}

type errInvalidInterval string

func (e errInvalidInterval) Error() string {
	return string(e) + " must be an RFC 3339 timestamp"
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
