package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/services"
)

type BookingUseCase interface {
	ReserveBooking(ctx context.Context, req services.ReserveBookingRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, by services.Requester) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID, by services.Requester) (*domain.Booking, error)
}

type BookingHandler struct {
	svc BookingUseCase
}

func NewBookingHandler(svc BookingUseCase) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type reserveBookingRequest struct {
	ScheduleID  uuid.UUID          `json:"schedule_id" binding:"required"`
	PriceTierID uuid.UUID          `json:"price_tier_id" binding:"required"`
	Passengers  []domain.Passenger `json:"passengers" binding:"required,min=1,dive"`
}

func (h *BookingHandler) ReserveBooking(c *gin.Context) {
	var req reserveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	booking, err := h.svc.ReserveBooking(c.Request.Context(), services.ReserveBookingRequest{
		UserID:      requester(c).UserID,
		ScheduleID:  req.ScheduleID,
		PriceTierID: req.PriceTierID,
		Passengers:  req.Passengers,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	booking, err := h.svc.GetBooking(c.Request.Context(), id, requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	booking, err := h.svc.CancelBooking(c.Request.Context(), id, requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBookingResponse(booking))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid_input", name+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}
