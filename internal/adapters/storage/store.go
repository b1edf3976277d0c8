package storage

import (
	"context"
	"errors"
	"time"

	"github.com/linkguard/linkguard/internal/core"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Organization is a registered tenant.
type Organization struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// APIKey is a tenant credential. Only the peppered hash and a short
// prefix are stored; the plaintext key is returned once at mint time.
type APIKey struct {
	ID        int64
	OrgID     int64
	KeyHash   string
	KeyPrefix string
	Active    bool
	RevokedAt *time.Time
	CreatedAt time.Time
}

// AdminUser is an operator account for the admin plane.
type AdminUser struct {
	ID           int64
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// DomainCount pairs a scanned domain with how often it was flagged.
type DomainCount struct {
	Domain string
	Count  int64
}

// DayCount is one day of scan volume for the trend report.
type DayCount struct {
	Day   string // YYYY-MM-DD
	Count int64
}

// StatsFilter bounds a stats query. Zero From/To mean unbounded; a
// zero OrgID means all organizations.
type StatsFilter struct {
	OrgID int64
	From  time.Time
	To    time.Time
}

// Stats is the admin-plane aggregate over recorded scan events.
type Stats struct {
	TotalScans       int64
	RiskDistribution map[core.RiskCategory]int64
	TopRiskyDomains  []DomainCount
	DailyTrend       []DayCount
}

// topDomainsLimit caps the top-risky-domains report.
const topDomainsLimit = 10

// Store persists tenants, credentials and scan events. Implementations
// must be safe for concurrent use. Store satisfies core.ScanEventSink.
type Store interface {
	core.ScanEventSink

	CreateOrganization(ctx context.Context, name string) (Organization, error)
	GetOrganization(ctx context.Context, id int64) (Organization, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)

	CreateAPIKey(ctx context.Context, key APIKey) (APIKey, error)
	GetAPIKeyByHash(ctx context.Context, keyHash string) (APIKey, error)
	RevokeAPIKey(ctx context.Context, id int64, revokedAt time.Time) (APIKey, error)

	CreateAdminUser(ctx context.Context, user AdminUser) (AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error)
	GetAdminUser(ctx context.Context, id int64) (AdminUser, error)

	Stats(ctx context.Context, filter StatsFilter) (Stats, error)

	Close() error
}

// emptyStats returns a zero-valued but fully shaped Stats so callers
// always render a stable response.
func emptyStats() Stats {
	return Stats{
		RiskDistribution: map[core.RiskCategory]int64{
			core.RiskSafe:       0,
			core.RiskSuspicious: 0,
			core.RiskDangerous:  0,
		},
		TopRiskyDomains: []DomainCount{},
		DailyTrend:      []DayCount{},
	}
}
