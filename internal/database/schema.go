package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the service reads and writes.  Statements are
// idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('CUSTOMER','ADMIN') NOT NULL DEFAULT 'CUSTOMER',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) PRIMARY KEY,
		schedule_id BIGINT NOT NULL,
		movie_id BIGINT NOT NULL,
		show_date CHAR(10) NOT NULL,
		seats JSON NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		movie_title VARCHAR(255) NULL,
		theater VARCHAR(64) NULL,
		show_time VARCHAR(16) NULL,
		total_price BIGINT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_bookings_schedule (movie_id, show_date, schedule_id),
		INDEX idx_bookings_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS likes (
		id CHAR(36) PRIMARY KEY,
		movie_id BIGINT NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_likes_movie_user (movie_id, user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS comments (
		id CHAR(36) PRIMARY KEY,
		movie_id BIGINT NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		user_name VARCHAR(255) NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_comments_movie (movie_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
