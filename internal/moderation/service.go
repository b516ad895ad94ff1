// AngelaMos | 2026
// service.go

package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

const (
	DefaultReason    = "Policy Violation"
	maxDurationHours = 8760
)

type Mutator interface {
	Mutate(ctx context.Context, id string, fn func(u *user.User) error) (*user.User, error)
}

type Outcome string

const (
	OutcomeSuspended  Outcome = "suspended"
	OutcomeAutoBanned Outcome = "auto_banned"
	OutcomeBanned     Outcome = "banned"
)

type StrikeRequest struct {
	ActorID       string
	TargetID      string
	ManualBan     bool
	DurationHours float64
	Reason        string
}

type StrikeResult struct {
	User    *user.User
	Outcome Outcome
	Message string
}

type Service struct {
	users           Mutator
	threshold       int
	defaultDuration time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

func NewService(users Mutator, cfg config.TrustConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.StrikeThreshold
	if threshold < 1 {
		threshold = 5
	}
	defaultDuration := cfg.DefaultSuspension
	if defaultDuration <= 0 {
		defaultDuration = time.Hour
	}
	return &Service{
		users:           users,
		threshold:       threshold,
		defaultDuration: defaultDuration,
		logger:          logger,
		now:             time.Now,
	}
}

// ApplyStrike records one violation against the target under its row lock.
// A manual ban skips the counter. Otherwise the strike that reaches the
// threshold bans and every earlier strike suspends. Striking a banned user
// fails with AlreadyBanned and writes nothing. Not idempotent.
func (s *Service) ApplyStrike(ctx context.Context, req StrikeRequest) (*StrikeResult, error) {
	ctx, span := core.StartSpan(ctx, "moderation.ApplyStrike",
		attribute.String("user.id", req.TargetID),
		attribute.Bool("manual_ban", req.ManualBan),
	)
	defer span.End()

	if req.TargetID == req.ActorID {
		return nil, core.ValidationError("you cannot moderate your own account")
	}

	duration := s.defaultDuration
	if req.DurationHours != 0 {
		if req.DurationHours < 0 || req.DurationHours > maxDurationHours {
			return nil, core.ValidationError(
				fmt.Sprintf("duration_hours must be in (0, %d]", maxDurationHours),
			)
		}
		duration = time.Duration(req.DurationHours * float64(time.Hour))
	}

	reason := req.Reason
	if reason == "" {
		reason = DefaultReason
	}

	var outcome Outcome
	updated, err := s.users.Mutate(ctx, req.TargetID, func(u *user.User) error {
		if u.IsBanned {
			return core.AlreadyBannedError()
		}

		u.ModerationReason = &reason

		if req.ManualBan {
			u.Ban()
			outcome = OutcomeBanned
			return nil
		}

		u.StrikeCount++
		if u.StrikeCount >= s.threshold {
			u.Ban()
			outcome = OutcomeAutoBanned
			return nil
		}

		u.Suspend(s.now().Add(duration))
		outcome = OutcomeSuspended
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "strike applied",
		"actor_id", req.ActorID,
		"user_id", updated.ID,
		"strike_count", updated.StrikeCount,
		"decision", string(outcome),
	)

	return &StrikeResult{
		User:    updated,
		Outcome: outcome,
		Message: s.message(outcome, duration),
	}, nil
}

// Unsuspend lifts a suspension early. Strike count and ban are untouched.
func (s *Service) Unsuspend(ctx context.Context, actorID, targetID string) (*user.User, error) {
	ctx, span := core.StartSpan(ctx, "moderation.Unsuspend",
		attribute.String("user.id", targetID),
	)
	defer span.End()

	updated, err := s.users.Mutate(ctx, targetID, func(u *user.User) error {
		u.ClearSuspension()
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "user unsuspended",
		"actor_id", actorID,
		"user_id", updated.ID,
		"strike_count", updated.StrikeCount,
	)

	return updated, nil
}

func (s *Service) message(outcome Outcome, duration time.Duration) string {
	switch outcome {
	case OutcomeBanned:
		return "User has been banned."
	case OutcomeAutoBanned:
		return fmt.Sprintf(
			"User has been automatically banned after reaching %d strikes.",
			s.threshold,
		)
	}
	hours := strconv.FormatFloat(duration.Hours(), 'f', -1, 64)
	return fmt.Sprintf("User suspended for %s hour(s).", hours)
}
