// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/inkpost/internal/core"
)

type Plan string

const (
	PlanWeekly  Plan = "WEEKLY"
	PlanMonthly Plan = "MONTHLY"
	PlanYearly  Plan = "YEARLY"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanWeekly, PlanMonthly, PlanYearly:
		return true
	}
	return false
}

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         core.Role `db:"role"`

	IsBanned         bool       `db:"is_banned"`
	IsSuspended      bool       `db:"is_suspended"`
	SuspendedUntil   *time.Time `db:"suspended_until"`
	StrikeCount      int        `db:"strike_count"`
	ModerationReason *string    `db:"moderation_reason"`

	SubscriptionPlan      *Plan      `db:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `db:"subscription_expires_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u *User) IsStaff() bool {
	return u.Role.IsStaff()
}

func (u *User) Reason() string {
	if u.ModerationReason == nil {
		return ""
	}
	return *u.ModerationReason
}

// Ban moves the user to the terminal state. Ban supersedes suspension.
func (u *User) Ban() {
	u.IsBanned = true
	u.IsSuspended = false
	u.SuspendedUntil = nil
}

func (u *User) Suspend(until time.Time) {
	u.IsSuspended = true
	u.SuspendedUntil = &until
}

func (u *User) ClearSuspension() {
	u.IsSuspended = false
	u.SuspendedUntil = nil
}

// Downgrade drops an author back to a plain user with no plan.
func (u *User) Downgrade() {
	u.Role = core.RoleUser
	u.SubscriptionPlan = nil
	u.SubscriptionExpiresAt = nil
}
