package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/core"
)

// SQLStore implements Store on top of database/sql. The SQLite and
// MySQL constructors share this implementation; only schema bootstrap
// differs per driver.
type SQLStore struct {
	db        *sql.DB
	logger    *zap.Logger
	retention time.Duration
	stopCh    chan struct{}
}

// newSQLStore wraps an opened database whose schema already exists.
// When retention is positive, a background task prunes scan events older
// than the retention window.
func newSQLStore(db *sql.DB, logger *zap.Logger, retention time.Duration) *SQLStore {
	store := &SQLStore{
		db:        db,
		logger:    logger,
		retention: retention,
		stopCh:    make(chan struct{}),
	}

	if retention > 0 {
		go store.startRetentionTask()
	}

	return store
}

func (s *SQLStore) CreateOrganization(ctx context.Context, name string) (Organization, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM organizations WHERE name = ?`, name).Scan(&existing)
	if err != nil {
		return Organization{}, fmt.Errorf("failed to check organization name: %w", err)
	}
	if existing > 0 {
		return Organization{}, ErrAlreadyExists
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (name, created_at) VALUES (?, ?)`, name, now)
	if err != nil {
		return Organization{}, fmt.Errorf("failed to insert organization: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Organization{}, fmt.Errorf("failed to read organization id: %w", err)
	}
	return Organization{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *SQLStore) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	var org Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM organizations WHERE id = ?`, id).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return Organization{}, ErrNotFound
	}
	if err != nil {
		return Organization{}, fmt.Errorf("failed to query organization: %w", err)
	}
	return org, nil
}

func (s *SQLStore) ListOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM organizations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (s *SQLStore) CreateAPIKey(ctx context.Context, key APIKey) (APIKey, error) {
	if _, err := s.GetOrganization(ctx, key.OrgID); err != nil {
		return APIKey{}, err
	}

	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (org_id, key_hash, key_prefix, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, key.OrgID, key.KeyHash, key.KeyPrefix, key.Active, key.CreatedAt)
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to insert API key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to read API key id: %w", err)
	}
	key.ID = id
	return key, nil
}

func (s *SQLStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (APIKey, error) {
	var (
		key       APIKey
		revokedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, key_hash, key_prefix, is_active, revoked_at, created_at
		FROM api_keys WHERE key_hash = ?
	`, keyHash).Scan(&key.ID, &key.OrgID, &key.KeyHash, &key.KeyPrefix, &key.Active, &revokedAt, &key.CreatedAt)
	if err == sql.ErrNoRows {
		return APIKey{}, ErrNotFound
	}
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to query API key: %w", err)
	}
	if revokedAt.Valid {
		key.RevokedAt = &revokedAt.Time
	}
	return key, nil
}

func (s *SQLStore) RevokeAPIKey(ctx context.Context, id int64, revokedAt time.Time) (APIKey, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE api_keys SET is_active = 0, revoked_at = ? WHERE id = ?
	`, revokedAt, id)
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to revoke API key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return APIKey{}, ErrNotFound
	}

	var (
		key   APIKey
		rvkAt sql.NullTime
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT id, org_id, key_hash, key_prefix, is_active, revoked_at, created_at
		FROM api_keys WHERE id = ?
	`, id).Scan(&key.ID, &key.OrgID, &key.KeyHash, &key.KeyPrefix, &key.Active, &rvkAt, &key.CreatedAt)
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to reload API key: %w", err)
	}
	if rvkAt.Valid {
		key.RevokedAt = &rvkAt.Time
	}
	return key, nil
}

func (s *SQLStore) CreateAdminUser(ctx context.Context, user AdminUser) (AdminUser, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_users WHERE email = ?`, user.Email).Scan(&existing)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to check admin email: %w", err)
	}
	if existing > 0 {
		return AdminUser{}, ErrAlreadyExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_users (email, password_hash, is_active, created_at)
		VALUES (?, ?, ?, ?)
	`, user.Email, user.PasswordHash, user.Active, user.CreatedAt)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to insert admin user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to read admin user id: %w", err)
	}
	user.ID = id
	return user, nil
}

func (s *SQLStore) GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error) {
	var user AdminUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_active, created_at
		FROM admin_users WHERE LOWER(email) = LOWER(?)
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Active, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return AdminUser{}, ErrNotFound
	}
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to query admin user: %w", err)
	}
	return user, nil
}

func (s *SQLStore) GetAdminUser(ctx context.Context, id int64) (AdminUser, error) {
	var user AdminUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_active, created_at
		FROM admin_users WHERE id = ?
	`, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Active, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return AdminUser{}, ErrNotFound
	}
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to query admin user: %w", err)
	}
	return user, nil
}

func (s *SQLStore) RecordScanEvent(ctx context.Context, event core.ScanEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_events (org_id, domain, risk_category, source, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.OrgID, event.Domain, string(event.Category), event.Source, event.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert scan event: %w", err)
	}
	return nil
}

func (s *SQLStore) Stats(ctx context.Context, filter StatsFilter) (Stats, error) {
	stats := emptyStats()
	where := `1 = 1`
	var args []interface{}
	if filter.OrgID != 0 {
		where += ` AND org_id = ?`
		args = append(args, filter.OrgID)
	}
	if !filter.From.IsZero() {
		where += ` AND occurred_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		where += ` AND occurred_at <= ?`
		args = append(args, filter.To.UTC())
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT risk_category, COUNT(*) FROM scan_events WHERE `+where+` GROUP BY risk_category`, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query risk distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		stats.RiskDistribution[core.RiskCategory(category)] = count
		stats.TotalScans += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	domainRows, err := s.db.QueryContext(ctx, `
		SELECT domain, COUNT(*) AS cnt FROM scan_events
		WHERE `+where+` AND risk_category != 'SAFE'
		GROUP BY domain ORDER BY cnt DESC, domain ASC LIMIT ?
	`, append(append([]interface{}{}, args...), topDomainsLimit)...)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query top domains: %w", err)
	}
	defer domainRows.Close()
	for domainRows.Next() {
		var dc DomainCount
		if err := domainRows.Scan(&dc.Domain, &dc.Count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan domain row: %w", err)
		}
		stats.TopRiskyDomains = append(stats.TopRiskyDomains, dc)
	}
	if err := domainRows.Err(); err != nil {
		return Stats{}, err
	}

	trendRows, err := s.db.QueryContext(ctx, `
		SELECT date(occurred_at) AS day, COUNT(*) FROM scan_events
		WHERE `+where+` GROUP BY day ORDER BY day ASC
	`, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query daily trend: %w", err)
	}
	defer trendRows.Close()
	for trendRows.Next() {
		var dc DayCount
		if err := trendRows.Scan(&dc.Day, &dc.Count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan trend row: %w", err)
		}
		stats.DailyTrend = append(stats.DailyTrend, dc)
	}
	if err := trendRows.Err(); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

// startRetentionTask periodically prunes scan events older than the
// retention window.
func (s *SQLStore) startRetentionTask() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.retention)
			res, err := s.db.Exec(`DELETE FROM scan_events WHERE occurred_at < ?`, cutoff)
			if err != nil {
				s.logger.Error("Failed to prune scan events", zap.Error(err))
				continue
			}
			if pruned, err := res.RowsAffected(); err == nil && pruned > 0 {
				s.logger.Debug("Pruned old scan events", zap.Int64("pruned", pruned))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the retention task and closes the database.
func (s *SQLStore) Close() error {
	close(s.stopCh)
	return s.db.Close()
}
