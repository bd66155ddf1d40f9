package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/boat_booking/internal/core/domain"
	"github.com/srgjo27/boat_booking/internal/core/services"
)

const testSecret = "test-secret"

type bookingUseCase struct{ mock.Mock }

func (m *bookingUseCase) ReserveBooking(ctx context.Context, req services.ReserveBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *bookingUseCase) CancelBooking(ctx context.Context, id uuid.UUID, by services.Requester) (*domain.Booking, error) {
	args := m.Called(ctx, id, by)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *bookingUseCase) GetBooking(ctx context.Context, id uuid.UUID, by services.Requester) (*domain.Booking, error) {
	args := m.Called(ctx, id, by)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *bookingUseCase) ConfirmPayment(ctx context.Context, id uuid.UUID, outcome domain.PaymentOutcome) (*domain.Booking, error) {
	args := m.Called(ctx, id, outcome)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

type scheduleUseCase struct{ mock.Mock }

func (m *scheduleUseCase) CreateSchedule(ctx context.Context, req services.CreateScheduleRequest) (*domain.TripSchedule, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*domain.TripSchedule)
	return s, args.Error(1)
}

func (m *scheduleUseCase) GetAvailability(ctx context.Context, id uuid.UUID) (*services.Availability, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*services.Availability)
	return a, args.Error(1)
}

type testServer struct {
	router    *gin.Engine
	bookings  *bookingUseCase
	schedules *scheduleUseCase
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	s := &testServer{bookings: &bookingUseCase{}, schedules: &scheduleUseCase{}}
	t.Cleanup(func() {
		s.bookings.AssertExpectations(t)
		s.schedules.AssertExpectations(t)
	})

	s.router = NewRouter(Handlers{
		Bookings:  NewBookingHandler(s.bookings),
		Schedules: NewScheduleHandler(s.schedules),
		Payments:  NewPaymentHandler(s.bookings),
		Health:    NewHealthHandler(checks),
	}, RouterConfig{JWTSecret: testSecret, RequestTimeout: time.Second}, log)
	return s
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sampleBooking(userID uuid.UUID) *domain.Booking {
	id := uuid.New()
	return &domain.Booking{
		ID:                 id,
		ReferenceCode:      domain.NewReferenceCode(id),
		UserID:             userID,
		ScheduleID:         uuid.New(),
		PriceTierID:        uuid.New(),
		NumberOfPassengers: 2,
		TotalAmount:        15000000,
		Currency:           "IDR",
		Status:             domain.BookingHeld,
		PaymentStatus:      domain.PaymentPending,
		HoldExpiresAt:      time.Date(2026, 10, 1, 8, 10, 0, 0, time.UTC),
		Items: []domain.BookingItem{
			{SeatIndex: 0, FullName: "Ayu", UnitAmount: 7500000},
			{SeatIndex: 1, FullName: "Budi", UnitAmount: 7500000},
		},
	}
}

func TestReserveBooking_Created(t *testing.T) {
	s := newTestServer(t, nil)
	user := uuid.New()
	booking := sampleBooking(user)

	s.bookings.On("ReserveBooking", mock.Anything, mock.MatchedBy(func(req services.ReserveBookingRequest) bool {
		return req.UserID == user && req.ScheduleID == booking.ScheduleID && len(req.Passengers) == 2
	})).Return(booking, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", token(t, user, RoleCustomer), gin.H{
		"schedule_id":   booking.ScheduleID,
		"price_tier_id": booking.PriceTierID,
		"passengers":    []gin.H{{"full_name": "Ayu"}, {"full_name": "Budi"}},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, booking.ReferenceCode, got.ReferenceCode)
	assert.Equal(t, "150000.00", got.TotalAmount)
	assert.Equal(t, "held", got.Status)
	assert.Equal(t, "2026-10-01T08:10:00Z", got.HoldExpiresAt)
	require.Len(t, got.Passengers, 2)
	assert.Equal(t, "75000.00", got.Passengers[1].UnitAmount)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReserveBooking_RejectsBadBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", token(t, uuid.New(), RoleCustomer), gin.H{
		"schedule_id":   uuid.New(),
		"price_tier_id": uuid.New(),
		"passengers":    []gin.H{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.bookings.AssertNotCalled(t, "ReserveBooking", mock.Anything, mock.Anything)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"capacity", domain.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
		{"conflicting hold", domain.ErrConflictingHold, http.StatusConflict, "conflicting_hold"},
		{"not bookable", domain.ErrScheduleNotBookable, http.StatusBadRequest, "schedule_not_bookable"},
		{"validation", domain.ValidationError{Field: "passengers", Msg: "too many"}, http.StatusBadRequest, "invalid_input"},
		{"missing schedule", domain.ErrScheduleNotFound, http.StatusNotFound, "not_found"},
		{"lock store down", domain.Infra("acquire seat hold", assert.AnError), http.StatusServiceUnavailable, "unavailable"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.bookings.On("ReserveBooking", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := s.do(t, http.MethodPost, "/api/v1/bookings", token(t, uuid.New(), RoleCustomer), gin.H{
				"schedule_id":   uuid.New(),
				"price_tier_id": uuid.New(),
				"passengers":    []gin.H{{"full_name": "Ayu"}},
			})

			assert.Equal(t, tt.status, rec.Code)
			var got ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.code, got.Code)
			if tt.status == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/api/v1/bookings/" + uuid.New().String()

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	for name, bearer := range map[string]string{"missing": "", "expired": expired, "wrong key": forged} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, path, bearer, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCancelBooking_PassesRequester(t *testing.T) {
	s := newTestServer(t, nil)
	operator := uuid.New()
	booking := sampleBooking(uuid.New())
	booking.Status = domain.BookingCancelled

	s.bookings.On("CancelBooking", mock.Anything, booking.ID, services.Requester{UserID: operator, Admin: true}).
		Return(booking, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings/"+booking.ID.String()+"/cancel", token(t, operator, RoleOperator), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelBooking_TripStarted(t *testing.T) {
	s := newTestServer(t, nil)
	user := uuid.New()
	id := uuid.New()

	s.bookings.On("CancelBooking", mock.Anything, id, services.Requester{UserID: user}).Return(nil, domain.ErrTripStarted)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/cancel", token(t, user, RoleCustomer), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "trip_started")
}

func TestGetBooking_BadID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", token(t, uuid.New(), RoleCustomer), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBooking_OtherUsersBooking(t *testing.T) {
	s := newTestServer(t, nil)
	id := uuid.New()
	s.bookings.On("GetBooking", mock.Anything, id, mock.Anything).Return(nil, domain.ErrUnauthorized)

	rec := s.do(t, http.MethodGet, "/api/v1/bookings/"+id.String(), token(t, uuid.New(), RoleCustomer), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateSchedule_RequiresOperator(t *testing.T) {
	s := newTestServer(t, nil)
	body := gin.H{
		"vessel_id":   uuid.New(),
		"starts_at":   "2026-11-20T10:00:00Z",
		"ends_at":     "2026-11-20T12:00:00Z",
		"capacity":    30,
		"price_tiers": []gin.H{{"name": "Standard", "amount": "125000", "currency": "IDR"}},
	}

	rec := s.do(t, http.MethodPost, "/api/v1/schedules", token(t, uuid.New(), RoleCustomer), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.schedules.On("CreateSchedule", mock.Anything, mock.MatchedBy(func(req services.CreateScheduleRequest) bool {
		return req.Capacity == 30 && len(req.PriceTiers) == 1 && req.PriceTiers[0].Amount == "125000"
	})).Return(nil, domain.ErrSchedulingConflict).Once()

	rec = s.do(t, http.MethodPost, "/api/v1/schedules", token(t, uuid.New(), RoleAdmin), body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "scheduling_conflict")
}

func TestGetAvailability(t *testing.T) {
	s := newTestServer(t, nil)
	schedule := &domain.TripSchedule{ID: uuid.New(), Capacity: 10, BookedSeats: 4}
	s.schedules.On("GetAvailability", mock.Anything, schedule.ID).
		Return(&services.Availability{Schedule: schedule, Available: 3, Bookable: true}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/schedules/"+schedule.ID.String()+"/availability", token(t, uuid.New(), RoleCustomer), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.AvailableSeats)
	assert.True(t, got.Bookable)
}

func TestPaymentCallback(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"confirmed", nil, http.StatusOK},
		{"duplicate", domain.ErrAlreadyPaid, http.StatusBadRequest},
		{"reconciled", domain.ErrHoldExpiredNoCapacity, http.StatusConflict},
		{"paid after cancel", domain.ErrAlreadyCancelled, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			booking := sampleBooking(uuid.New())
			var ret *domain.Booking
			if tt.err == nil {
				ret = booking
			}
			s.bookings.On("ConfirmPayment", mock.Anything, booking.ID, domain.OutcomeSucceeded).Return(ret, tt.err)

			rec := s.do(t, http.MethodPost, "/api/v1/payments/callback", token(t, uuid.New(), RolePaymentGateway), gin.H{
				"booking_id": booking.ID,
				"outcome":    "succeeded",
			})

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPaymentCallback_CustomersCannotCall(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/payments/callback", token(t, uuid.New(), RoleCustomer), gin.H{
		"booking_id": uuid.New(),
		"outcome":    "succeeded",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	rec := healthy.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := newTestServer(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return assert.AnError },
	})
	rec = degraded.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
