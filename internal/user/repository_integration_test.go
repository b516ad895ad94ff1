// AngelaMos | 2026
// repository_integration_test.go

package user

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/core"
)

// newIntegrationRepo needs a disposable Postgres in TEST_DATABASE_URL.
func newIntegrationRepo(t *testing.T) Repository {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return NewRepository(db.DB)
}

func createTestUser(t *testing.T, repo Repository) *User {
	t.Helper()
	u := &User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@example.test",
		Username:     "it-" + uuid.New().String()[:8],
		PasswordHash: "x",
		Role:         core.RoleUser,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestIntegrationConcurrentMutateCountsEveryStrike(t *testing.T) {
	repo := newIntegrationRepo(t)
	u := createTestUser(t, repo)

	const n = 12
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Mutate(context.Background(), u.ID, func(u *User) error {
				u.StrikeCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored.StrikeCount)
}

func TestIntegrationLazyClearLosesToFreshSuspension(t *testing.T) {
	repo := newIntegrationRepo(t)
	u := createTestUser(t, repo)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Mutate(ctx, u.ID, func(u *User) error {
		u.Suspend(now.Add(-time.Minute))
		return nil
	})
	require.NoError(t, err)

	_, err = repo.Mutate(ctx, u.ID, func(u *User) error {
		u.Suspend(now.Add(time.Hour))
		return nil
	})
	require.NoError(t, err)

	cleared, err := repo.ClearExpiredSuspension(ctx, u.ID, now)
	require.NoError(t, err)
	assert.False(t, cleared)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSuspended)
}

func TestIntegrationDowngradeExpiredAuthor(t *testing.T) {
	repo := newIntegrationRepo(t)
	u := createTestUser(t, repo)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Mutate(ctx, u.ID, func(u *User) error {
		plan := PlanWeekly
		expired := now.Add(-time.Hour)
		u.Role = core.RoleAuthor
		u.SubscriptionPlan = &plan
		u.SubscriptionExpiresAt = &expired
		return nil
	})
	require.NoError(t, err)

	ids, err := repo.ListStaleIDs(ctx, now, 1000)
	require.NoError(t, err)
	assert.Contains(t, ids, u.ID)

	downgraded, err := repo.DowngradeExpiredAuthor(ctx, u.ID, now)
	require.NoError(t, err)
	assert.True(t, downgraded)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, stored.Role)
	assert.Nil(t, stored.SubscriptionPlan)
	assert.Nil(t, stored.SubscriptionExpiresAt)
}
