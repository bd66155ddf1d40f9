package services_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/boat_booking/internal/adapter/repository/redisstore"
	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/ports/mocks"
	"github.com/srgjo27/boat_booking/internal/core/services"
	"github.com/srgjo27/boat_booking/internal/platform/config"
)

var testBookingConfig = config.BookingConfig{
	HoldTTL:       10 * time.Minute,
	LockTimeout:   time.Second,
	TxTimeout:     time.Second,
	PromoteGrace:  5 * time.Second,
	MaxPassengers: 10,
	SweepInterval: time.Minute,
	SweepGrace:    2 * time.Minute,
	SweepBatch:    100,
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memDB mimics the guarded updates of the Postgres repositories.
type memDB struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]*domain.TripSchedule
	tiers     map[uuid.UUID]domain.PriceTier
	bookings  map[uuid.UUID]*domain.Booking
	createErr error
}

func newMemDB() *memDB {
	return &memDB{
		schedules: make(map[uuid.UUID]*domain.TripSchedule),
		tiers:     make(map[uuid.UUID]domain.PriceTier),
		bookings:  make(map[uuid.UUID]*domain.Booking),
	}
}

type memSchedules struct{ db *memDB }

func (r memSchedules) GetByID(_ context.Context, id uuid.UUID) (*domain.TripSchedule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	clone := *s
	return &clone, nil
}

func (r memSchedules) GetPriceTier(_ context.Context, scheduleID, tierID uuid.UUID) (*domain.PriceTier, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.tiers[tierID]
	if !ok || p.ScheduleID != scheduleID {
		return nil, domain.ErrPriceTierNotFound
	}
	return &p, nil
}

func (r memSchedules) CreateIfNoOverlap(_ context.Context, s *domain.TripSchedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.schedules {
		if existing.VesselID != s.VesselID || existing.Status == domain.ScheduleCancelled {
			continue
		}
		if domain.Overlaps(s.StartsAt, s.EndsAt, existing.StartsAt, existing.EndsAt) {
			return domain.ErrSchedulingConflict
		}
	}
	clone := *s
	r.db.schedules[s.ID] = &clone
	for _, p := range s.PriceTiers {
		r.db.tiers[p.ID] = p
	}
	return nil
}

type memBookings struct{ db *memDB }

func (r memBookings) CreateBooking(_ context.Context, b *domain.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createErr != nil {
		return r.db.createErr
	}
	clone := *b
	r.db.bookings[b.ID] = &clone
	return nil
}

func (r memBookings) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (r memBookings) ApplyTransition(_ context.Context, t domain.Transition) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[t.BookingID]
	if !ok || b.Status != t.FromStatus || b.PaymentStatus != t.FromPayment {
		return domain.ErrConcurrentUpdate
	}
	s := r.db.schedules[t.ScheduleID]
	if t.SeatDelta > 0 && s.BookedSeats+t.SeatDelta > s.Capacity {
		return domain.ErrHoldExpiredNoCapacity
	}
	if s.BookedSeats+t.SeatDelta < 0 {
		return domain.Infra("return booked seats", errors.New("booked seats lower than booking size"))
	}
	s.BookedSeats += t.SeatDelta
	b.Apply(t)
	return nil
}

func (r memBookings) GetExpiredHolds(_ context.Context, before time.Time, limit int) ([]*domain.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.Booking
	for _, b := range r.db.bookings {
		if len(out) == limit {
			break
		}
		if b.Status == domain.BookingHeld && b.PaymentStatus == domain.PaymentPending && b.HoldExpiresAt.Before(before) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

type harness struct {
	t         *testing.T
	db        *memDB
	clock     *fakeClock
	redis     *miniredis.Miniredis
	locks     *services.SeatLockManager
	bookings  *services.BookingService
	schedules *services.ScheduleService

	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	h := &harness{
		t:     t,
		db:    newMemDB(),
		clock: &fakeClock{now: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)},
		redis: m,
	}

	cache := mocks.NewCacheInvalidator(t)
	cache.On("InvalidateSchedule", mock.Anything, mock.Anything).Return(nil).Maybe()

	events := mocks.NewEventPublisher(t)
	events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe().Run(func(args mock.Arguments) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, args.Get(1).(domain.LifecycleEvent))
	})

	schedules := memSchedules{db: h.db}
	h.locks = services.NewSeatLockManager(schedules, redisstore.NewSeatLockStore(client), testBookingConfig, h.clock.Now, log)
	h.bookings = services.NewBookingService(schedules, memBookings{db: h.db}, h.locks, cache, events, testBookingConfig, h.clock.Now, log)
	h.schedules = services.NewScheduleService(schedules, h.locks, cache, testBookingConfig, h.clock.Now, log)
	return h
}

// addSchedule creates a sailing one day out and returns it with its only tier.
func (h *harness) addSchedule(capacity int) (*domain.TripSchedule, uuid.UUID) {
	h.t.Helper()
	start := h.clock.Now().Add(24 * time.Hour)
	s, err := h.schedules.CreateSchedule(context.Background(), services.CreateScheduleRequest{
		VesselID: uuid.New(),
		StartsAt: start,
		EndsAt:   start.Add(3 * time.Hour),
		Capacity: capacity,
		PriceTiers: []services.PriceTierInput{
			{Name: "Economy", Amount: "75000", Currency: "IDR"},
		},
	})
	require.NoError(h.t, err)
	return s, s.PriceTiers[0].ID
}

func (h *harness) reserve(scheduleID, tierID, userID uuid.UUID, seats int) (*domain.Booking, error) {
	passengers := make([]domain.Passenger, seats)
	for i := range passengers {
		passengers[i] = domain.Passenger{FullName: "Passenger " + string(rune('A'+i))}
	}
	return h.bookings.ReserveBooking(context.Background(), services.ReserveBookingRequest{
		UserID:      userID,
		ScheduleID:  scheduleID,
		PriceTierID: tierID,
		Passengers:  passengers,
	})
}

func (h *harness) bookedSeats(scheduleID uuid.UUID) int {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return h.db.schedules[scheduleID].BookedSeats
}

func (h *harness) storedBooking(id uuid.UUID) domain.Booking {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return *h.db.bookings[id]
}

func (h *harness) bookingCount() int {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return len(h.db.bookings)
}

func (h *harness) published(t domain.EventType) []domain.LifecycleEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.LifecycleEvent
	for _, e := range h.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
