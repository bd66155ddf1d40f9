package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/boat_booking/internal/core/domain"
)

const bookingColumns = `id, reference_code, user_id, schedule_id, price_tier_id, number_of_passengers,
	total_amount, currency, status, payment_status, hold_token, hold_expires_at,
	confirmed_at, cancelled_at, created_at, updated_at`

var errBookedSeatsUnderflow = errors.New("booked seats lower than booking size")

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var confirmedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.ReferenceCode,
		&b.UserID,
		&b.ScheduleID,
		&b.PriceTierID,
		&b.NumberOfPassengers,
		&b.TotalAmount,
		&b.Currency,
		&b.Status,
		&b.PaymentStatus,
		&b.HoldToken,
		&b.HoldExpiresAt,
		&confirmedAt,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if confirmedAt.Valid {
		b.ConfirmedAt = &confirmedAt.Time
	}
	if cancelledAt.Valid {
		b.CancelledAt = &cancelledAt.Time
	}

	return &b, nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	return withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		queryHeader := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`

		_, err := tx.ExecContext(ctx, queryHeader,
			booking.ID,
			booking.ReferenceCode,
			booking.UserID,
			booking.ScheduleID,
			booking.PriceTierID,
			booking.NumberOfPassengers,
			booking.TotalAmount,
			booking.Currency,
			booking.Status,
			booking.PaymentStatus,
			booking.HoldToken,
			booking.HoldExpiresAt,
			booking.ConfirmedAt,
			booking.CancelledAt,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			return domain.Infra("insert booking header", err)
		}

		queryItem := `
		INSERT INTO booking_passengers (id, booking_id, seat_index, full_name, document_number, unit_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		`

		stmt, err := tx.PrepareContext(ctx, queryItem)
		if err != nil {
			return domain.Infra("prepare passenger statement", err)
		}

		defer stmt.Close()

		for _, item := range booking.Items {
			_, err := stmt.ExecContext(ctx, item.ID, item.BookingID, item.SeatIndex, item.FullName, item.DocumentNumber, item.UnitAmount)
			if err != nil {
				return domain.Infra(fmt.Sprintf("insert passenger %d", item.SeatIndex), err)
			}
		}

		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)

	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, domain.Infra("get booking", err)
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT id, booking_id, seat_index, full_name, document_number, unit_amount
	FROM booking_passengers
	WHERE booking_id = $1
	ORDER BY seat_index
	`, bookingID)
	if err != nil {
		return nil, domain.Infra("get booking passengers", err)
	}

	defer rows.Close()

	for rows.Next() {
		var item domain.BookingItem
		if err := rows.Scan(&item.ID, &item.BookingID, &item.SeatIndex, &item.FullName, &item.DocumentNumber, &item.UnitAmount); err != nil {
			return nil, domain.Infra("scan booking passenger", err)
		}
		booking.Items = append(booking.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Infra("iterate booking passengers", err)
	}

	return booking, nil
}

// ApplyTransition updates the booking only while it is still in t's From state
// and moves the schedule counter in the same transaction. The booking row is
// always locked before the schedule row.
func (r *BookingRepository) ApplyTransition(ctx context.Context, t domain.Transition) error {
	var confirmedAt, cancelledAt *time.Time
	at := t.At
	switch {
	case t.ToStatus == domain.BookingConfirmed:
		confirmedAt = &at
	case t.ToStatus == domain.BookingCancelled && t.FromStatus != domain.BookingCancelled:
		cancelledAt = &at
	}

	return withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1,
			payment_status = $2,
			updated_at = $3,
			confirmed_at = COALESCE($4, confirmed_at),
			cancelled_at = COALESCE($5, cancelled_at)
		WHERE id = $6 AND status = $7 AND payment_status = $8
		`, t.ToStatus, t.ToPayment, t.At, confirmedAt, cancelledAt, t.BookingID, t.FromStatus, t.FromPayment)
		if err != nil {
			return domain.Infra("update booking status", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return domain.Infra("update booking status", err)
		}

		if rowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}

		switch {
		case t.SeatDelta > 0:
			res, err = tx.ExecContext(ctx, `
			UPDATE trip_schedules
			SET booked_seats = booked_seats + $1, updated_at = $2
			WHERE id = $3 AND booked_seats + $1 <= capacity
			`, t.SeatDelta, t.At, t.ScheduleID)
			if err != nil {
				return domain.Infra("claim booked seats", err)
			}

			if rowsAffected, err = res.RowsAffected(); err != nil {
				return domain.Infra("claim booked seats", err)
			}

			if rowsAffected == 0 {
				return domain.ErrHoldExpiredNoCapacity
			}

		case t.SeatDelta < 0:
			res, err = tx.ExecContext(ctx, `
			UPDATE trip_schedules
			SET booked_seats = booked_seats - $1, updated_at = $2
			WHERE id = $3 AND booked_seats >= $1
			`, -t.SeatDelta, t.At, t.ScheduleID)
			if err != nil {
				return domain.Infra("return booked seats", err)
			}

			if rowsAffected, err = res.RowsAffected(); err != nil {
				return domain.Infra("return booked seats", err)
			}

			if rowsAffected == 0 {
				return domain.Infra("return booked seats", errBookedSeatsUnderflow)
			}
		}

		return nil
	})
}

func (r *BookingRepository) GetExpiredHolds(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+bookingColumns+`
	FROM bookings
	WHERE status = 'held' AND payment_status = 'pending' AND hold_expires_at < $1
	ORDER BY hold_expires_at
	LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, domain.Infra("get expired holds", err)
	}

	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.Infra("scan expired hold", err)
		}

		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Infra("iterate expired holds", err)
	}

	return bookings, nil
}
