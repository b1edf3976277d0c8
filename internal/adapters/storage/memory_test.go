package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkguard/linkguard/internal/core"
)

func TestMemoryStore_Organizations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	org, err := store.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), org.ID)

	_, err = store.CreateOrganization(ctx, "Acme")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = store.CreateOrganization(ctx, "Globex")
	require.NoError(t, err)

	orgs, err := store.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme", orgs[0].Name)
	assert.Equal(t, "Globex", orgs[1].Name)

	_, err = store.GetOrganization(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_APIKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	org, err := store.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)

	_, err = store.CreateAPIKey(ctx, APIKey{OrgID: 99, KeyHash: "h"})
	assert.ErrorIs(t, err, ErrNotFound)

	key, err := store.CreateAPIKey(ctx, APIKey{
		OrgID:     org.ID,
		KeyHash:   "hash-1",
		KeyPrefix: "abcd1234",
		Active:    true,
	})
	require.NoError(t, err)

	found, err := store.GetAPIKeyByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, key.ID, found.ID)
	assert.True(t, found.Active)

	_, err = store.GetAPIKeyByHash(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	revokedAt := time.Now()
	revoked, err := store.RevokeAPIKey(ctx, key.ID, revokedAt)
	require.NoError(t, err)
	assert.False(t, revoked.Active)
	require.NotNil(t, revoked.RevokedAt)
	assert.Equal(t, revokedAt, *revoked.RevokedAt)
}

func TestMemoryStore_AdminUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user, err := store.CreateAdminUser(ctx, AdminUser{
		Email:        "ops@example.com",
		PasswordHash: "hash",
		Active:       true,
	})
	require.NoError(t, err)

	_, err = store.CreateAdminUser(ctx, AdminUser{Email: "OPS@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	byEmail, err := store.GetAdminUserByEmail(ctx, "OPS@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := store.GetAdminUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", byID.Email)
}

func TestMemoryStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	day1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	events := []core.ScanEvent{
		{OrgID: 1, Domain: "example.com", Category: core.RiskSafe, OccurredAt: day1},
		{OrgID: 1, Domain: "bad.xyz", Category: core.RiskSuspicious, OccurredAt: day1},
		{OrgID: 1, Domain: "bad.xyz", Category: core.RiskDangerous, OccurredAt: day2},
		{OrgID: 1, Domain: "evil.tk", Category: core.RiskDangerous, OccurredAt: day2},
		{OrgID: 2, Domain: "other.org", Category: core.RiskSafe, OccurredAt: day1},
	}
	for _, ev := range events {
		require.NoError(t, store.RecordScanEvent(ctx, ev))
	}

	stats, err := store.Stats(ctx, StatsFilter{OrgID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalScans)
	assert.Equal(t, int64(1), stats.RiskDistribution[core.RiskSafe])
	assert.Equal(t, int64(1), stats.RiskDistribution[core.RiskSuspicious])
	assert.Equal(t, int64(2), stats.RiskDistribution[core.RiskDangerous])

	require.Len(t, stats.TopRiskyDomains, 2)
	assert.Equal(t, DomainCount{Domain: "bad.xyz", Count: 2}, stats.TopRiskyDomains[0])
	assert.Equal(t, DomainCount{Domain: "evil.tk", Count: 1}, stats.TopRiskyDomains[1])

	require.Len(t, stats.DailyTrend, 2)
	assert.Equal(t, DayCount{Day: "2025-03-01", Count: 2}, stats.DailyTrend[0])
	assert.Equal(t, DayCount{Day: "2025-03-02", Count: 2}, stats.DailyTrend[1])

	// Zero org ID aggregates across every organization.
	all, err := store.Stats(ctx, StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.TotalScans)
}

func TestMemoryStore_StatsWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	day1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordScanEvent(ctx, core.ScanEvent{OrgID: 1, Domain: "a.com", Category: core.RiskSafe, OccurredAt: day1}))
	require.NoError(t, store.RecordScanEvent(ctx, core.ScanEvent{OrgID: 1, Domain: "b.com", Category: core.RiskSafe, OccurredAt: day2}))

	stats, err := store.Stats(ctx, StatsFilter{
		OrgID: 1,
		From:  time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalScans)

	stats, err = store.Stats(ctx, StatsFilter{
		OrgID: 1,
		To:    time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalScans)
}

func TestMemoryStore_StatsEmptyShape(t *testing.T) {
	stats, err := NewMemoryStore().Stats(context.Background(), StatsFilter{OrgID: 1})
	require.NoError(t, err)

	assert.Zero(t, stats.TotalScans)
	assert.NotNil(t, stats.RiskDistribution)
	assert.NotNil(t, stats.TopRiskyDomains)
	assert.NotNil(t, stats.DailyTrend)
}
