// AngelaMos | 2026
// gate_test.go

package trust

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/middleware"
	"github.com/carterperez-dev/inkpost/internal/user"
	"github.com/carterperez-dev/inkpost/internal/user/usertest"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGate(store Store, c *clock) *Gate {
	g := NewGate(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.now = c.Now
	return g
}

func requireCode(t *testing.T, err error, code string) *core.AppError {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected *core.AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestAdmitSuspensionLapses(t *testing.T) {
	c := &clock{t: now}
	store := usertest.NewMemory(user.User{
		ID:             "u1",
		Role:           core.RoleUser,
		StrikeCount:    4,
		IsSuspended:    true,
		SuspendedUntil: ptr(now.Add(2 * time.Hour)),
	})
	g := newTestGate(store, c)
	ctx := context.Background()

	_, err := g.Admit(ctx, "u1", middleware.AccessAny)
	requireCode(t, err, "SUSPENDED")

	c.Advance(2 * time.Hour)

	principal, err := g.Admit(ctx, "u1", middleware.AccessAny)
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)

	stored := store.Get("u1")
	assert.False(t, stored.IsSuspended)
	assert.Nil(t, stored.SuspendedUntil)
	assert.Equal(t, 4, stored.StrikeCount)
}

func TestAdmitExpiredAuthorDowngraded(t *testing.T) {
	c := &clock{t: now}
	store := usertest.NewMemory(user.User{
		ID:                    "a1",
		Role:                  core.RoleAuthor,
		SubscriptionPlan:      ptr(user.PlanMonthly),
		SubscriptionExpiresAt: ptr(now.Add(-24 * time.Hour)),
	})
	g := newTestGate(store, c)

	_, err := g.Admit(context.Background(), "a1", middleware.AccessAuthor)
	requireCode(t, err, "SUBSCRIPTION_EXPIRED")

	stored := store.Get("a1")
	assert.Equal(t, core.RoleUser, stored.Role)
	assert.Nil(t, stored.SubscriptionPlan)
	assert.Nil(t, stored.SubscriptionExpiresAt)

	_, err = g.Admit(context.Background(), "a1", middleware.AccessAuthor)
	requireCode(t, err, "AUTHOR_REQUIRED")
}

func TestAdmitExpiredAuthorKeepsRoleOnPlainAccess(t *testing.T) {
	c := &clock{t: now}
	store := usertest.NewMemory(user.User{
		ID:                    "a1",
		Role:                  core.RoleAuthor,
		SubscriptionPlan:      ptr(user.PlanWeekly),
		SubscriptionExpiresAt: ptr(now.Add(-time.Hour)),
	})
	g := newTestGate(store, c)

	principal, err := g.Admit(context.Background(), "a1", middleware.AccessAny)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAuthor, principal.Role)
	assert.Equal(t, core.RoleAuthor, store.Get("a1").Role)
}

func TestAdmitAuthorAccess(t *testing.T) {
	c := &clock{t: now}
	store := usertest.NewMemory(
		user.User{ID: "plain", Role: core.RoleUser},
		user.User{ID: "admin", Role: core.RoleAdmin},
		user.User{ID: "creator", Role: core.RoleCreator},
		user.User{
			ID:                    "author",
			Role:                  core.RoleAuthor,
			SubscriptionPlan:      ptr(user.PlanYearly),
			SubscriptionExpiresAt: ptr(now.AddDate(1, 0, 0)),
		},
	)
	g := newTestGate(store, c)
	ctx := context.Background()

	_, err := g.Admit(ctx, "plain", middleware.AccessAuthor)
	requireCode(t, err, "AUTHOR_REQUIRED")

	for _, id := range []string{"admin", "creator", "author"} {
		principal, err := g.Admit(ctx, id, middleware.AccessAuthor)
		require.NoError(t, err, id)
		assert.Equal(t, id, principal.UserID)
	}
}

func TestAdmitBannedCarriesReason(t *testing.T) {
	c := &clock{t: now}
	store := usertest.NewMemory(user.User{
		ID:               "b1",
		Role:             core.RoleUser,
		IsBanned:         true,
		ModerationReason: ptr("spam"),
	})
	g := newTestGate(store, c)

	_, err := g.Admit(context.Background(), "b1", middleware.AccessAny)
	appErr := requireCode(t, err, "BANNED")
	assert.Equal(t, "spam", appErr.Details["reason"])
}

func TestAdmitUnknownUser(t *testing.T) {
	g := newTestGate(usertest.NewMemory(), &clock{t: now})

	_, err := g.Admit(context.Background(), "ghost", middleware.AccessAny)
	appErr := requireCode(t, err, "USER_NOT_FOUND")
	assert.Equal(t, 401, appErr.StatusCode)
}

// racingStore simulates a moderator re-suspending the user between the
// gate's read and its lazy clear.
type racingStore struct {
	*usertest.Memory
	raced bool
}

func (s *racingStore) ClearExpiredSuspension(
	ctx context.Context,
	id string,
	at time.Time,
) (bool, error) {
	if !s.raced {
		s.raced = true
		u := s.Get(id)
		u.Suspend(at.Add(time.Hour))
		s.Put(u)
	}
	return s.Memory.ClearExpiredSuspension(ctx, id, at)
}

func TestAdmitLazyClearLosesToConcurrentSuspension(t *testing.T) {
	c := &clock{t: now}
	store := &racingStore{Memory: usertest.NewMemory(user.User{
		ID:             "u1",
		Role:           core.RoleUser,
		IsSuspended:    true,
		SuspendedUntil: ptr(now.Add(-time.Minute)),
	})}
	g := newTestGate(store, c)

	_, err := g.Admit(context.Background(), "u1", middleware.AccessAny)
	requireCode(t, err, "SUSPENDED")

	stored := store.Get("u1")
	assert.True(t, stored.IsSuspended)
	require.NotNil(t, stored.SuspendedUntil)
	assert.Equal(t, now.Add(time.Hour), *stored.SuspendedUntil)
}

func TestSweepReconcilesStaleUsers(t *testing.T) {
	c := &clock{t: now}
	store := usertest.NewMemory(
		user.User{ID: "lapsed", IsSuspended: true, SuspendedUntil: ptr(now.Add(-time.Hour))},
		user.User{ID: "active", IsSuspended: true, SuspendedUntil: ptr(now.Add(time.Hour))},
		user.User{ID: "expired", Role: core.RoleAuthor, SubscriptionExpiresAt: ptr(now.Add(-time.Hour))},
		user.User{ID: "banned", IsBanned: true},
	)
	g := newTestGate(store, c)
	sweeper := NewSweeper(g, store, config.TrustConfig{
		SweepSchedule:  "@every 1m",
		SweepBatchSize: 10,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	corrected, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, corrected)

	assert.False(t, store.Get("lapsed").IsSuspended)
	assert.True(t, store.Get("active").IsSuspended)
	assert.Equal(t, core.RoleUser, store.Get("expired").Role)
	assert.True(t, store.Get("banned").IsBanned)
}
