// AngelaMos | 2026
// evaluator.go

package trust

import (
	"time"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

type Requirement int

const (
	RequireAny Requirement = iota
	RequireAuthor
)

type Outcome int

const (
	Allowed Outcome = iota
	Banned
	Suspended
	SubscriptionExpired
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Banned:
		return "banned"
	case Suspended:
		return "suspended"
	case SubscriptionExpired:
		return "subscription_expired"
	}
	return "unknown"
}

type Decision struct {
	Outcome        Outcome
	SuspendedUntil time.Time
	Remaining      time.Duration
	Reason         string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allowed
}

// Err maps a blocking decision to its API error. Allowed returns nil.
func (d Decision) Err() error {
	switch d.Outcome {
	case Banned:
		return core.AccountBannedError(d.Reason)
	case Suspended:
		return core.AccountSuspendedError(d.SuspendedUntil, d.Remaining)
	case SubscriptionExpired:
		return core.SubscriptionExpiredError()
	}
	return nil
}

// SideEffects are the lazy corrections a decision depends on. They must be
// persisted before the decision is acted on.
type SideEffects struct {
	ClearSuspension bool
	Downgrade       bool
}

func (e SideEffects) Any() bool {
	return e.ClearSuspension || e.Downgrade
}

func (e SideEffects) Apply(u *user.User) {
	if e.ClearSuspension {
		u.ClearSuspension()
	}
	if e.Downgrade {
		u.Downgrade()
	}
}

// Evaluate decides whether u may act at now. It performs no I/O. A ban is
// terminal and short-circuits every other check. A lapsed suspension is
// cleared and evaluation continues against the cleared state. An author
// whose plan has no expiry or has expired is downgraded, but only when the
// caller asked for author privilege.
func Evaluate(u user.User, now time.Time, req Requirement) (Decision, SideEffects) {
	var effects SideEffects

	if u.IsBanned {
		return Decision{Outcome: Banned, Reason: u.Reason()}, effects
	}

	if u.IsSuspended {
		if u.SuspendedUntil != nil && now.Before(*u.SuspendedUntil) {
			return Decision{
				Outcome:        Suspended,
				SuspendedUntil: *u.SuspendedUntil,
				Remaining:      u.SuspendedUntil.Sub(now),
				Reason:         u.Reason(),
			}, effects
		}

		effects.ClearSuspension = true
		u.ClearSuspension()
	}

	if req == RequireAuthor && u.Role == core.RoleAuthor {
		expiresAt := u.SubscriptionExpiresAt
		if expiresAt == nil || now.After(*expiresAt) {
			effects.Downgrade = true
			return Decision{Outcome: SubscriptionExpired}, effects
		}
	}

	return Decision{Outcome: Allowed}, effects
}
