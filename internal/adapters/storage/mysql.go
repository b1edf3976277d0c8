package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQL executes one statement per Exec, so the schema is split.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		org_id BIGINT NOT NULL,
		key_hash VARCHAR(64) NOT NULL UNIQUE,
		key_prefix VARCHAR(16) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_api_keys_org (org_id),
		FOREIGN KEY (org_id) REFERENCES organizations(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(320) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scan_events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		org_id BIGINT NOT NULL,
		domain VARCHAR(255) NOT NULL,
		risk_category VARCHAR(16) NOT NULL,
		source VARCHAR(32) NOT NULL,
		occurred_at DATETIME NOT NULL,
		INDEX idx_scan_events_org_time (org_id, occurred_at),
		INDEX idx_scan_events_domain (domain)
	)`,
}

// NewMySQLStore connects to MySQL and bootstraps the schema. The DSN
// must enable parseTime so DATETIME columns scan into time.Time.
func NewMySQLStore(dsn string, logger *zap.Logger, retention time.Duration) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	for _, stmt := range mysqlSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return newSQLStore(db, logger, retention), nil
}
