// AngelaMos | 2026
// lifecycle.go

package subscription

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

type Mutator interface {
	Mutate(ctx context.Context, id string, fn func(u *user.User) error) (*user.User, error)
}

// Grant puts u on plan as of now. An existing plan is overwritten, never
// extended. Staff keep their role; everyone else becomes an author.
func Grant(u *user.User, plan user.Plan, now time.Time) {
	expiresAt := ExpiresAt(plan, now)

	if !u.Role.IsStaff() {
		u.Role = core.RoleAuthor
	}
	u.SubscriptionPlan = &plan
	u.SubscriptionExpiresAt = &expiresAt
}

type Lifecycle struct {
	users  Mutator
	logger *slog.Logger
	now    func() time.Time
}

func NewLifecycle(users Mutator, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

func (l *Lifecycle) GrantAuthorPlan(
	ctx context.Context,
	userID string,
	plan user.Plan,
) (*user.User, error) {
	ctx, span := core.StartSpan(ctx, "subscription.GrantAuthorPlan",
		attribute.String("user.id", userID),
		attribute.String("plan", string(plan)),
	)
	defer span.End()

	if !plan.Valid() {
		return nil, core.ValidationError("invalid subscription plan")
	}

	updated, err := l.users.Mutate(ctx, userID, func(u *user.User) error {
		Grant(u, plan, l.now())
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	l.logger.InfoContext(ctx, "author plan granted",
		"user_id", updated.ID,
		"plan", string(plan),
		"expires_at", updated.SubscriptionExpiresAt,
	)

	return updated, nil
}
