// AngelaMos | 2026
// dto.go

package moderation

import (
	"time"

	"github.com/carterperez-dev/inkpost/internal/user"
)

type StrikeBody struct {
	Reason        string  `json:"reason"         validate:"max=500"`
	DurationHours float64 `json:"duration_hours" validate:"omitempty,gt=0,lte=8760"`
	ManualBan     bool    `json:"manual_ban"`
}

type ModeratedUser struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	StrikeCount    int        `json:"strike_count"`
	IsSuspended    bool       `json:"is_suspended"`
	IsBanned       bool       `json:"is_banned"`
	SuspendedUntil *time.Time `json:"suspended_until"`
}

type ModerationResponse struct {
	Message string        `json:"message"`
	User    ModeratedUser `json:"user"`
}

func toModeratedUser(u *user.User) ModeratedUser {
	return ModeratedUser{
		ID:             u.ID,
		Username:       u.Username,
		StrikeCount:    u.StrikeCount,
		IsSuspended:    u.IsSuspended,
		IsBanned:       u.IsBanned,
		SuspendedUntil: u.SuspendedUntil,
	}
}
