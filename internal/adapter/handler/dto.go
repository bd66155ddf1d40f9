package handler

import (
	"time"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/services"
)

type PassengerResponse struct {
	SeatIndex      int    `json:"seat_index"`
	FullName       string `json:"full_name"`
	DocumentNumber string `json:"document_number,omitempty"`
	UnitAmount     string `json:"unit_amount"`
}

type BookingResponse struct {
	ID            string              `json:"id"`
	ReferenceCode string              `json:"reference_code"`
	ScheduleID    string              `json:"schedule_id"`
	PriceTierID   string              `json:"price_tier_id"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	Seats         int                 `json:"seats"`
	TotalAmount   string              `json:"total_amount"`
	Currency      string              `json:"currency"`
	HoldExpiresAt string              `json:"hold_expires_at"`
	ConfirmedAt   *string             `json:"confirmed_at,omitempty"`
	CancelledAt   *string             `json:"cancelled_at,omitempty"`
	Passengers    []PassengerResponse `json:"passengers,omitempty"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func newBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID.String(),
		ReferenceCode: b.ReferenceCode,
		ScheduleID:    b.ScheduleID.String(),
		PriceTierID:   b.PriceTierID.String(),
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Seats:         b.NumberOfPassengers,
		TotalAmount:   domain.FormatAmount(b.TotalAmount),
		Currency:      b.Currency,
		HoldExpiresAt: b.HoldExpiresAt.UTC().Format(time.RFC3339),
		ConfirmedAt:   formatTime(b.ConfirmedAt),
		CancelledAt:   formatTime(b.CancelledAt),
	}
	for _, item := range b.Items {
		resp.Passengers = append(resp.Passengers, PassengerResponse{
			SeatIndex:      item.SeatIndex,
			FullName:       item.FullName,
			DocumentNumber: item.DocumentNumber,
			UnitAmount:     domain.FormatAmount(item.UnitAmount),
		})
	}
	return resp
}

type PriceTierResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PerSeatAmount string `json:"per_seat_amount"`
	Currency      string `json:"currency"`
}

type ScheduleResponse struct {
	ID          string              `json:"id"`
	VesselID    string              `json:"vessel_id"`
	StartsAt    string              `json:"starts_at"`
	EndsAt      string              `json:"ends_at"`
	Capacity    int                 `json:"capacity"`
	BookedSeats int                 `json:"booked_seats"`
	Status      string              `json:"status"`
	PriceTiers  []PriceTierResponse `json:"price_tiers,omitempty"`
}

func newScheduleResponse(s *domain.TripSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:          s.ID.String(),
		VesselID:    s.VesselID.String(),
		StartsAt:    s.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:      s.EndsAt.UTC().Format(time.RFC3339),
		Capacity:    s.Capacity,
		BookedSeats: s.BookedSeats,
		Status:      string(s.Status),
	}
	for _, p := range s.PriceTiers {
		resp.PriceTiers = append(resp.PriceTiers, PriceTierResponse{
			ID:            p.ID.String(),
			Name:          p.Name,
			PerSeatAmount: domain.FormatAmount(p.PerSeatAmount),
			Currency:      p.Currency,
		})
	}
	return resp
}

type AvailabilityResponse struct {
	ScheduleID     string `json:"schedule_id"`
	Capacity       int    `json:"capacity"`
	BookedSeats    int    `json:"booked_seats"`
	AvailableSeats int    `json:"available_seats"`
	Bookable       bool   `json:"bookable"`
}

func newAvailabilityResponse(a *services.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ScheduleID:     a.Schedule.ID.String(),
		Capacity:       a.Schedule.Capacity,
		BookedSeats:    a.Schedule.BookedSeats,
		AvailableSeats: a.Available,
		Bookable:       a.Bookable,
	}
}
