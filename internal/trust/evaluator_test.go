// AngelaMos | 2026
// evaluator_test.go

package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		user     user.User
		req      Requirement
		outcome  Outcome
		effects  SideEffects
		remained time.Duration
	}{
		{
			name:    "plain user allowed",
			user:    user.User{Role: core.RoleUser},
			req:     RequireAny,
			outcome: Allowed,
		},
		{
			name: "banned is terminal even with lapsed suspension",
			user: user.User{
				Role:           core.RoleAuthor,
				IsBanned:       true,
				IsSuspended:    true,
				SuspendedUntil: ptr(now.Add(-time.Hour)),
			},
			req:     RequireAuthor,
			outcome: Banned,
		},
		{
			name: "active suspension blocks",
			user: user.User{
				IsSuspended:    true,
				SuspendedUntil: ptr(now.Add(90 * time.Minute)),
			},
			req:      RequireAny,
			outcome:  Suspended,
			remained: 90 * time.Minute,
		},
		{
			name: "suspension ending exactly now is lapsed",
			user: user.User{
				IsSuspended:    true,
				SuspendedUntil: ptr(now),
			},
			req:     RequireAny,
			outcome: Allowed,
			effects: SideEffects{ClearSuspension: true},
		},
		{
			name:    "suspension without end is cleared",
			user:    user.User{IsSuspended: true},
			req:     RequireAny,
			outcome: Allowed,
			effects: SideEffects{ClearSuspension: true},
		},
		{
			name: "expired author ignored without author requirement",
			user: user.User{
				Role:                  core.RoleAuthor,
				SubscriptionPlan:      ptr(user.PlanWeekly),
				SubscriptionExpiresAt: ptr(now.Add(-time.Second)),
			},
			req:     RequireAny,
			outcome: Allowed,
		},
		{
			name: "expired author downgraded under author requirement",
			user: user.User{
				Role:                  core.RoleAuthor,
				SubscriptionPlan:      ptr(user.PlanWeekly),
				SubscriptionExpiresAt: ptr(now.Add(-time.Second)),
			},
			req:     RequireAuthor,
			outcome: SubscriptionExpired,
			effects: SideEffects{Downgrade: true},
		},
		{
			name:    "author without expiry is treated as expired",
			user:    user.User{Role: core.RoleAuthor},
			req:     RequireAuthor,
			outcome: SubscriptionExpired,
			effects: SideEffects{Downgrade: true},
		},
		{
			name: "author expiring exactly now is still active",
			user: user.User{
				Role:                  core.RoleAuthor,
				SubscriptionPlan:      ptr(user.PlanMonthly),
				SubscriptionExpiresAt: ptr(now),
			},
			req:     RequireAuthor,
			outcome: Allowed,
		},
		{
			name: "lapsed suspension then expired author",
			user: user.User{
				Role:                  core.RoleAuthor,
				IsSuspended:           true,
				SuspendedUntil:        ptr(now.Add(-time.Minute)),
				SubscriptionExpiresAt: ptr(now.Add(-time.Hour)),
			},
			req:     RequireAuthor,
			outcome: SubscriptionExpired,
			effects: SideEffects{ClearSuspension: true, Downgrade: true},
		},
		{
			name:    "admin has no subscription check",
			user:    user.User{Role: core.RoleAdmin},
			req:     RequireAuthor,
			outcome: Allowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, effects := Evaluate(tt.user, now, tt.req)

			assert.Equal(t, tt.outcome, decision.Outcome)
			assert.Equal(t, tt.effects, effects)
			assert.Equal(t, tt.remained, decision.Remaining)
		})
	}
}

func TestEvaluateDoesNotMutateCaller(t *testing.T) {
	u := user.User{IsSuspended: true, SuspendedUntil: ptr(now.Add(-time.Hour))}

	_, effects := Evaluate(u, now, RequireAny)

	assert.True(t, effects.ClearSuspension)
	assert.True(t, u.IsSuspended)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Outcome: Allowed}.Err())

	appErr, ok := core.AsAppError(Decision{Outcome: Banned, Reason: "spam"}.Err())
	assert.True(t, ok)
	assert.Equal(t, "BANNED", appErr.Code)
	assert.Equal(t, "spam", appErr.Details["reason"])

	appErr, ok = core.AsAppError(Decision{
		Outcome:        Suspended,
		SuspendedUntil: now.Add(2 * time.Hour),
		Remaining:      2 * time.Hour,
	}.Err())
	assert.True(t, ok)
	assert.Equal(t, "SUSPENDED", appErr.Code)
	assert.Equal(t, int64(7200), appErr.Details["remaining_seconds"])
	assert.Equal(t, int64(2), appErr.Details["remaining_hours"])

	appErr, ok = core.AsAppError(Decision{Outcome: SubscriptionExpired}.Err())
	assert.True(t, ok)
	assert.Equal(t, "SUBSCRIPTION_EXPIRED", appErr.Code)
}
