package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name     VARCHAR(255) NOT NULL,
		phone         VARCHAR(20)  NULL,
		role          ENUM('PATIENT','DOCTOR','STAFF','ADMIN') NOT NULL DEFAULT 'PATIENT',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT      NOT NULL,
		token_hash CHAR(64)    NOT NULL,
		expires_at DATETIME    NOT NULL,
		revoked_at DATETIME    NULL,
		created_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		title         VARCHAR(255) NOT NULL,
		content       MEDIUMTEXT   NOT NULL,
		excerpt       VARCHAR(500) NULL,
		image         VARCHAR(500) NULL,
		category      VARCHAR(100) NOT NULL,
		category_slug VARCHAR(100) NOT NULL,
		status        ENUM('DRAFT','PUBLISHED') NOT NULL DEFAULT 'DRAFT',
		author        VARCHAR(100) NULL,
		read_time     VARCHAR(50)  NULL,
		views         INT          NOT NULL DEFAULT 0,
		is_featured   TINYINT(1)   NOT NULL DEFAULT 0,
		created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		KEY idx_blog_status_created (status, created_at),
		KEY idx_blog_category_slug (category_slug)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the API needs when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
