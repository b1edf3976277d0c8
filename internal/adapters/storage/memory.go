package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/linkguard/linkguard/internal/core"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu sync.RWMutex

	orgs   map[int64]Organization
	keys   map[int64]APIKey
	admins map[int64]AdminUser
	events []core.ScanEvent

	nextOrgID   int64
	nextKeyID   int64
	nextAdminID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:   make(map[int64]Organization),
		keys:   make(map[int64]APIKey),
		admins: make(map[int64]AdminUser),
	}
}

func (s *MemoryStore) CreateOrganization(_ context.Context, name string) (Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, org := range s.orgs {
		if org.Name == name {
			return Organization{}, ErrAlreadyExists
		}
	}

	s.nextOrgID++
	org := Organization{ID: s.nextOrgID, Name: name, CreatedAt: time.Now()}
	s.orgs[org.ID] = org
	return org, nil
}

func (s *MemoryStore) GetOrganization(_ context.Context, id int64) (Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return org, nil
}

func (s *MemoryStore) ListOrganizations(_ context.Context) ([]Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgs := make([]Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs, nil
}

func (s *MemoryStore) CreateAPIKey(_ context.Context, key APIKey) (APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[key.OrgID]; !ok {
		return APIKey{}, ErrNotFound
	}

	s.nextKeyID++
	key.ID = s.nextKeyID
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}
	s.keys[key.ID] = key
	return key, nil
}

func (s *MemoryStore) GetAPIKeyByHash(_ context.Context, keyHash string) (APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.keys {
		if key.KeyHash == keyHash {
			return key, nil
		}
	}
	return APIKey{}, ErrNotFound
}

func (s *MemoryStore) RevokeAPIKey(_ context.Context, id int64, revokedAt time.Time) (APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[id]
	if !ok {
		return APIKey{}, ErrNotFound
	}
	key.Active = false
	key.RevokedAt = &revokedAt
	s.keys[id] = key
	return key, nil
}

func (s *MemoryStore) CreateAdminUser(_ context.Context, user AdminUser) (AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.admins {
		if strings.EqualFold(existing.Email, user.Email) {
			return AdminUser{}, ErrAlreadyExists
		}
	}

	s.nextAdminID++
	user.ID = s.nextAdminID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.admins[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetAdminUserByEmail(_ context.Context, email string) (AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.admins {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return AdminUser{}, ErrNotFound
}

func (s *MemoryStore) GetAdminUser(_ context.Context, id int64) (AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.admins[id]
	if !ok {
		return AdminUser{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) RecordScanEvent(_ context.Context, event core.ScanEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, filter StatsFilter) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := emptyStats()
	domainCounts := make(map[string]int64)
	dayCounts := make(map[string]int64)

	for _, ev := range s.events {
		if filter.OrgID != 0 && ev.OrgID != filter.OrgID {
			continue
		}
		if !filter.From.IsZero() && ev.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && ev.OccurredAt.After(filter.To) {
			continue
		}

		stats.TotalScans++
		stats.RiskDistribution[ev.Category]++
		if ev.Category != core.RiskSafe {
			domainCounts[ev.Domain]++
		}
		dayCounts[ev.OccurredAt.UTC().Format("2006-01-02")]++
	}

	for domain, count := range domainCounts {
		stats.TopRiskyDomains = append(stats.TopRiskyDomains, DomainCount{Domain: domain, Count: count})
	}
	sort.Slice(stats.TopRiskyDomains, func(i, j int) bool {
		a, b := stats.TopRiskyDomains[i], stats.TopRiskyDomains[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Domain < b.Domain
	})
	if len(stats.TopRiskyDomains) > topDomainsLimit {
		stats.TopRiskyDomains = stats.TopRiskyDomains[:topDomainsLimit]
	}

	for day, count := range dayCounts {
		stats.DailyTrend = append(stats.DailyTrend, DayCount{Day: day, Count: count})
	}
	sort.Slice(stats.DailyTrend, func(i, j int) bool {
		return stats.DailyTrend[i].Day < stats.DailyTrend[j].Day
	})

	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
