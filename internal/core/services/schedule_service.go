package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports"
	"github.com/srgjo27/boat_booking/internal/platform/config"
	"github.com/srgjo27/boat_booking/internal/platform/metrics"
)

type PriceTierInput struct {
	Name     string
	Amount   string
	Currency string
}

type CreateScheduleRequest struct {
	VesselID   uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Capacity   int
	PriceTiers []PriceTierInput
}

// Availability is a point-in-time view of a schedule's sellable seats.
type Availability struct {
	Schedule  *domain.TripSchedule
	Available int
	Bookable  bool
}

type ScheduleService struct {
	schedules ports.ScheduleRepository
	locks     *SeatLockManager
	cache     ports.CacheInvalidator
	cfg       config.BookingConfig
	now       Clock
	log       logrus.FieldLogger
}

func NewScheduleService(schedules ports.ScheduleRepository, locks *SeatLockManager, cache ports.CacheInvalidator, cfg config.BookingConfig, clock Clock, log logrus.FieldLogger) *ScheduleService {
	if clock == nil {
		clock = time.Now
	}
	return &ScheduleService{
		schedules: schedules,
		locks:     locks,
		cache:     cache,
		cfg:       cfg,
		now:       clock,
		log:       log.WithField("component", "schedule_service"),
	}
}

func buildPriceTiers(scheduleID uuid.UUID, inputs []PriceTierInput) ([]domain.PriceTier, error) {
	if len(inputs) == 0 {
		return nil, domain.ValidationError{Field: "price_tiers", Msg: "at least one price tier is required"}
	}

	seen := make(map[string]bool, len(inputs))
	tiers := make([]domain.PriceTier, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, domain.ValidationError{Field: "price_tiers.name", Msg: "is required"}
		}
		if seen[strings.ToLower(name)] {
			return nil, domain.ValidationError{Field: "price_tiers.name", Msg: "duplicate tier " + name}
		}
		seen[strings.ToLower(name)] = true

		currency := strings.ToUpper(strings.TrimSpace(in.Currency))
		if len(currency) != 3 {
			return nil, domain.ValidationError{Field: "price_tiers.currency", Msg: "must be a 3-letter code"}
		}

		amount, err := domain.ParseAmount(in.Amount)
		if err != nil {
			return nil, err
		}

		tiers = append(tiers, domain.PriceTier{
			ID:            uuid.New(),
			ScheduleID:    scheduleID,
			Name:          name,
			PerSeatAmount: amount,
			Currency:      currency,
		})
	}
	return tiers, nil
}

// CreateSchedule adds a sailing unless the vessel already has a non-cancelled
// sailing whose [StartsAt, EndsAt) window overlaps the new one.
func (s *ScheduleService) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*domain.TripSchedule, error) {
	if req.VesselID == uuid.Nil {
		return nil, domain.ValidationError{Field: "vessel_id", Msg: "is required"}
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return nil, domain.ValidationError{Field: "ends_at", Msg: "must be after starts_at"}
	}
	if req.Capacity < 1 {
		return nil, domain.ValidationError{Field: "capacity", Msg: "must be at least 1"}
	}

	now := s.now()
	schedule := &domain.TripSchedule{
		ID:        uuid.New(),
		VesselID:  req.VesselID,
		StartsAt:  req.StartsAt.UTC(),
		EndsAt:    req.EndsAt.UTC(),
		Capacity:  req.Capacity,
		Status:    domain.ScheduleScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tiers, err := buildPriceTiers(schedule.ID, req.PriceTiers)
	if err != nil {
		return nil, err
	}
	schedule.PriceTiers = tiers

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	if err := s.schedules.CreateIfNoOverlap(txCtx, schedule); err != nil {
		if errors.Is(err, domain.ErrSchedulingConflict) {
			metrics.TrackScheduleConflict()
			s.log.WithFields(logrus.Fields{
				"vessel_id": req.VesselID,
				"starts_at": schedule.StartsAt,
				"ends_at":   schedule.EndsAt,
			}).Info("schedule rejected, vessel already sailing in that window")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"vessel_id":   schedule.VesselID,
		"capacity":    schedule.Capacity,
	}).Info("schedule created")

	if err := s.cache.InvalidateSchedule(ctx, schedule.ID); err != nil {
		s.log.WithError(err).WithField("schedule_id", schedule.ID).Warn("failed to invalidate schedule cache")
	}

	return schedule, nil
}

func (s *ScheduleService) GetAvailability(ctx context.Context, scheduleID uuid.UUID) (*Availability, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	schedule, err := s.schedules.GetByID(readCtx, scheduleID)
	cancel()
	if err != nil {
		return nil, err
	}

	available, err := s.locks.AvailableFor(ctx, schedule)
	if err != nil {
		return nil, err
	}

	return &Availability{
		Schedule:  schedule,
		Available: available,
		Bookable:  schedule.IsBookable(s.now()) && available > 0,
	}, nil
}
