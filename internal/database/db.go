package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// InitSchema creates the reservation tables when they do not exist.
// The expires_at index serves the sweeper's scan, the seat/active
// index the single-lock lookup on every hot path.
func InitSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shows (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			venue_id BIGINT UNSIGNED NOT NULL,
			title VARCHAR(255) NOT NULL,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			base_price_cents INT UNSIGNED NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_starts_at (starts_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS seats (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			show_id BIGINT UNSIGNED NOT NULL,
			row_label VARCHAR(8) NOT NULL,
			seat_number INT UNSIGNED NOT NULL,
			seat_type VARCHAR(16) NOT NULL DEFAULT 'STANDARD',
			price_cents INT UNSIGNED NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_show_row_number (show_id, row_label, seat_number),
			INDEX idx_show_status (show_id, status),
			CONSTRAINT fk_seats_show FOREIGN KEY (show_id) REFERENCES shows(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS seat_locks (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			show_id BIGINT UNSIGNED NOT NULL,
			seat_id BIGINT UNSIGNED NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			locked_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			active TINYINT(1) NOT NULL DEFAULT 1,
			INDEX idx_seat_active (seat_id, active),
			INDEX idx_active_expires (active, expires_at),
			INDEX idx_user (user_id),
			CONSTRAINT fk_locks_seat FOREIGN KEY (seat_id) REFERENCES seats(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			code VARCHAR(36) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			show_id BIGINT UNSIGNED NOT NULL,
			total_amount_cents INT UNSIGNED NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_code (code),
			INDEX idx_user_created (user_id, created_at),
			INDEX idx_status (status),
			CONSTRAINT fk_bookings_show FOREIGN KEY (show_id) REFERENCES shows(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS booking_seats (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			booking_id BIGINT UNSIGNED NOT NULL,
			seat_id BIGINT UNSIGNED NOT NULL,
			price_cents INT UNSIGNED NOT NULL,
			UNIQUE KEY uq_booking_seat (booking_id, seat_id),
			CONSTRAINT fk_bs_booking FOREIGN KEY (booking_id) REFERENCES bookings(id),
			CONSTRAINT fk_bs_seat FOREIGN KEY (seat_id) REFERENCES seats(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
