package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/srgjo27/boat_booking/internal/core/domain"
)

type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) GetByID(ctx context.Context, scheduleID uuid.UUID) (*domain.TripSchedule, error) {
	query := `
	SELECT id, vessel_id, starts_at, ends_at, capacity, booked_seats, status, created_at, updated_at
	FROM trip_schedules
	WHERE id = $1
	`

	var s domain.TripSchedule
	err := r.db.QueryRowContext(ctx, query, scheduleID).Scan(
		&s.ID,
		&s.VesselID,
		&s.StartsAt,
		&s.EndsAt,
		&s.Capacity,
		&s.BookedSeats,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}

		return nil, domain.Infra("get schedule", err)
	}

	return &s, nil
}

func (r *ScheduleRepository) GetPriceTier(ctx context.Context, scheduleID, tierID uuid.UUID) (*domain.PriceTier, error) {
	query := `
	SELECT id, schedule_id, name, per_seat_amount, currency
	FROM price_tiers
	WHERE id = $1 AND schedule_id = $2
	`

	var p domain.PriceTier
	err := r.db.QueryRowContext(ctx, query, tierID, scheduleID).Scan(
		&p.ID,
		&p.ScheduleID,
		&p.Name,
		&p.PerSeatAmount,
		&p.Currency,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPriceTierNotFound
		}

		return nil, domain.Infra("get price tier", err)
	}

	return &p, nil
}

// CreateIfNoOverlap serialises creations per vessel with a transaction-scoped
// advisory lock; the exclusion constraint on trip_schedules backs it up.
func (r *ScheduleRepository) CreateIfNoOverlap(ctx context.Context, s *domain.TripSchedule) error {
	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, s.VesselID.String()); err != nil {
			return domain.Infra("lock vessel", err)
		}

		var existing uuid.UUID
		err := tx.QueryRowContext(ctx, `
		SELECT id FROM trip_schedules
		WHERE vessel_id = $1 AND status <> 'cancelled' AND starts_at < $3 AND $2 < ends_at
		LIMIT 1
		`, s.VesselID, s.StartsAt, s.EndsAt).Scan(&existing)

		switch {
		case err == nil:
			return domain.ErrSchedulingConflict
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Infra("check schedule overlap", err)
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO trip_schedules (id, vessel_id, starts_at, ends_at, capacity, booked_seats, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, s.ID, s.VesselID, s.StartsAt, s.EndsAt, s.Capacity, s.BookedSeats, s.Status, s.CreatedAt, s.UpdatedAt)
		if err != nil {
			if isExclusionViolation(err) {
				return domain.ErrSchedulingConflict
			}
			return domain.Infra("insert schedule", err)
		}

		if len(s.PriceTiers) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_tiers (id, schedule_id, name, per_seat_amount, currency)
		VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return domain.Infra("prepare price tier statement", err)
		}

		defer stmt.Close()

		for _, p := range s.PriceTiers {
			if _, err := stmt.ExecContext(ctx, p.ID, s.ID, p.Name, p.PerSeatAmount, p.Currency); err != nil {
				return domain.Infra("insert price tier "+p.Name, err)
			}
		}

		return nil
	})

	if isExclusionViolation(err) {
		return domain.ErrSchedulingConflict
	}
	return err
}
