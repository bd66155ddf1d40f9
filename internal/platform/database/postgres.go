package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/platform/config"
)

func NewPostgresDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := cfg.ConnectRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for i := 1; i <= maxRetries; i++ {
		logrus.WithField("attempt", i).Infof("Connecting to database (max %d attempts)", maxRetries)
		db, err = sql.Open("postgres", cfg.DSN())
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = db.PingContext(ctx)
			cancel()
		}

		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
			logrus.Info("Database connected successfully")
			return db, nil
		}

		if db != nil {
			db.Close()
		}
		logrus.WithError(err).Warn("Database not ready yet, waiting 2 seconds")
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS trip_schedules (
		id UUID PRIMARY KEY,
		vessel_id UUID NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		booked_seats INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT trip_schedules_window CHECK (starts_at < ends_at),
		CONSTRAINT trip_schedules_booked_within_capacity CHECK (booked_seats >= 0 AND booked_seats <= capacity),
		CONSTRAINT trip_schedules_no_overlap EXCLUDE USING gist (
			vessel_id WITH =,
			tstzrange(starts_at, ends_at, '[)') WITH &&
		) WHERE (status <> 'cancelled')
	)`,

	`CREATE TABLE IF NOT EXISTS price_tiers (
		id UUID PRIMARY KEY,
		schedule_id UUID NOT NULL REFERENCES trip_schedules(id),
		name VARCHAR(100) NOT NULL,
		per_seat_amount BIGINT NOT NULL CHECK (per_seat_amount >= 0),
		currency CHAR(3) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		reference_code VARCHAR(20) NOT NULL UNIQUE,
		user_id UUID NOT NULL,
		schedule_id UUID NOT NULL REFERENCES trip_schedules(id),
		price_tier_id UUID NOT NULL REFERENCES price_tiers(id),
		number_of_passengers INTEGER NOT NULL CHECK (number_of_passengers > 0),
		total_amount BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(20) NOT NULL,
		payment_status VARCHAR(20) NOT NULL,
		hold_token VARCHAR(64) NOT NULL,
		hold_expires_at TIMESTAMPTZ NOT NULL,
		confirmed_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT bookings_paid_is_confirmed CHECK (payment_status <> 'succeeded' OR status = 'confirmed')
	)`,

	`CREATE TABLE IF NOT EXISTS booking_passengers (
		id UUID PRIMARY KEY,
		booking_id UUID NOT NULL REFERENCES bookings(id),
		seat_index INTEGER NOT NULL,
		full_name VARCHAR(200) NOT NULL,
		document_number VARCHAR(64) NOT NULL DEFAULT '',
		unit_amount BIGINT NOT NULL,
		UNIQUE (booking_id, seat_index)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trip_schedules_vessel ON trip_schedules(vessel_id, starts_at)`,
	`CREATE INDEX IF NOT EXISTS idx_price_tiers_schedule ON price_tiers(schedule_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_schedule ON bookings(schedule_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_held_expiry ON bookings(hold_expires_at) WHERE status = 'held'`,
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i, err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
