// AngelaMos | 2026
// gate.go

package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/middleware"
	"github.com/carterperez-dev/inkpost/internal/user"
)

// Store is the slice of the user repository the gate reads and lazily
// corrects through.
type Store interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	ClearExpiredSuspension(ctx context.Context, id string, now time.Time) (bool, error)
	DowngradeExpiredAuthor(ctx context.Context, id string, now time.Time) (bool, error)
}

// maxAttempts bounds re-evaluation when a lazy write loses to a concurrent
// writer.
const maxAttempts = 3

var errStateChanged = errors.New("user state changed during evaluation")

type Gate struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewGate(store Store, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Admit runs the trust gate for userID. Lazy corrections are persisted
// before the decision is returned. For author access a plain user is
// refused with AuthorRequired; staff always pass.
func (g *Gate) Admit(
	ctx context.Context,
	userID string,
	access middleware.Access,
) (*middleware.Principal, error) {
	req := RequireAny
	if access == middleware.AccessAuthor {
		req = RequireAuthor
	}

	ctx, span := core.StartSpan(ctx, "trust.Admit",
		attribute.String("user.id", userID),
		attribute.Bool("require_author", req == RequireAuthor),
	)
	defer span.End()

	u, decision, err := g.resolve(ctx, userID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UserNotFoundError()
		}
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("decision", decision.Outcome.String()))

	if !decision.Allowed() {
		g.logger.InfoContext(ctx, "request blocked by trust gate",
			"user_id", userID,
			"decision", decision.Outcome.String(),
		)
		return nil, decision.Err()
	}

	if req == RequireAuthor && !u.Role.CanAuthor() {
		return nil, core.AuthorRequiredError()
	}

	return &middleware.Principal{UserID: u.ID, Role: u.Role}, nil
}

// Reconcile applies any pending lazy correction for userID without acting
// on the decision. The sweep uses it to correct users who never come back.
func (g *Gate) Reconcile(ctx context.Context, userID string) (SideEffects, error) {
	ctx, span := core.StartSpan(ctx, "trust.Reconcile",
		attribute.String("user.id", userID),
	)
	defer span.End()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		u, err := g.store.GetByID(ctx, userID)
		if err != nil {
			return SideEffects{}, err
		}

		now := g.now()
		_, effects := Evaluate(*u, now, RequireAuthor)
		if !effects.Any() {
			return SideEffects{}, nil
		}

		err = g.persist(ctx, u, effects, now)
		if errors.Is(err, errStateChanged) {
			continue
		}
		if err != nil {
			core.SetSpanError(ctx, err)
			return SideEffects{}, err
		}
		return effects, nil
	}

	return SideEffects{}, fmt.Errorf("reconcile %s: %w", userID, errStateChanged)
}

func (g *Gate) resolve(
	ctx context.Context,
	userID string,
	req Requirement,
) (*user.User, Decision, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		u, err := g.store.GetByID(ctx, userID)
		if err != nil {
			return nil, Decision{}, err
		}

		now := g.now()
		decision, effects := Evaluate(*u, now, req)
		if !effects.Any() {
			return u, decision, nil
		}

		err = g.persist(ctx, u, effects, now)
		if errors.Is(err, errStateChanged) {
			g.logger.DebugContext(ctx, "lazy correction lost to concurrent write",
				"user_id", userID,
				"attempt", attempt+1,
			)
			continue
		}
		if err != nil {
			return nil, Decision{}, err
		}

		effects.Apply(u)
		return u, decision, nil
	}

	return nil, Decision{}, fmt.Errorf("admit %s: %w", userID, errStateChanged)
}

// persist writes effects as compare-and-set updates. If the row no longer
// holds the state that was evaluated, errStateChanged is returned and the
// caller re-reads. A concurrent moderator or payment write always wins.
func (g *Gate) persist(
	ctx context.Context,
	u *user.User,
	effects SideEffects,
	now time.Time,
) error {
	if effects.ClearSuspension {
		ok, err := g.store.ClearExpiredSuspension(ctx, u.ID, now)
		if err != nil {
			return fmt.Errorf("clear suspension: %w", err)
		}
		if !ok {
			return errStateChanged
		}
		g.logger.InfoContext(ctx, "suspension lapsed and cleared",
			"user_id", u.ID,
			"strike_count", u.StrikeCount,
		)
		core.AddSpanEvent(ctx, "suspension.cleared")
	}

	if effects.Downgrade {
		ok, err := g.store.DowngradeExpiredAuthor(ctx, u.ID, now)
		if err != nil {
			return fmt.Errorf("downgrade author: %w", err)
		}
		if !ok {
			return errStateChanged
		}
		g.logger.InfoContext(ctx, "expired author downgraded",
			"user_id", u.ID,
		)
		core.AddSpanEvent(ctx, "subscription.downgraded")
	}

	return nil
}

var _ middleware.Admitter = (*Gate)(nil)
