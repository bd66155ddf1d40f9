package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/srgjo27/boat_booking/internal/core/domain"
)

type PaymentUseCase interface {
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Booking, error)
}

// PaymentHandler receives the gateway's payment notification. The same
// outcome may arrive more than once.
type PaymentHandler struct {
	svc PaymentUseCase
}

func NewPaymentHandler(svc PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type paymentCallbackRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Outcome   string    `json:"outcome" binding:"required,oneof=succeeded failed"`
}

func (h *PaymentHandler) Callback(c *gin.Context) {
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	booking, err := h.svc.ConfirmPayment(c.Request.Context(), req.BookingID, domain.PaymentOutcome(req.Outcome))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBookingResponse(booking))
}
