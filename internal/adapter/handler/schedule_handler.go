package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/services"
)

type ScheduleUseCase interface {
	CreateSchedule(ctx context.Context, req services.CreateScheduleRequest) (*domain.TripSchedule, error)
	GetAvailability(ctx context.Context, scheduleID uuid.UUID) (*services.Availability, error)
}

type ScheduleHandler struct {
	svc ScheduleUseCase
}

func NewScheduleHandler(svc ScheduleUseCase) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

type priceTierRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required,len=3"`
}

type createScheduleRequest struct {
	VesselID   uuid.UUID          `json:"vessel_id" binding:"required"`
	StartsAt   time.Time          `json:"starts_at" binding:"required"`
	EndsAt     time.Time          `json:"ends_at" binding:"required"`
	Capacity   int                `json:"capacity" binding:"required,min=1"`
	PriceTiers []priceTierRequest `json:"price_tiers" binding:"required,min=1,dive"`
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	tiers := make([]services.PriceTierInput, 0, len(req.PriceTiers))
	for _, p := range req.PriceTiers {
		tiers = append(tiers, services.PriceTierInput{Name: p.Name, Amount: p.Amount, Currency: p.Currency})
	}

	schedule, err := h.svc.CreateSchedule(c.Request.Context(), services.CreateScheduleRequest{
		VesselID:   req.VesselID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Capacity:   req.Capacity,
		PriceTiers: tiers,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newScheduleResponse(schedule))
}

func (h *ScheduleHandler) GetAvailability(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	availability, err := h.svc.GetAvailability(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAvailabilityResponse(availability))
}
