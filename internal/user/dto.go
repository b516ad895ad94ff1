// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UserResponse struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	Role                  string     `json:"role"`
	IsBanned              bool       `json:"is_banned"`
	IsSuspended           bool       `json:"is_suspended"`
	SuspendedUntil        *time.Time `json:"suspended_until"`
	StrikeCount           int        `json:"strike_count"`
	SubscriptionPlan      *Plan      `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type ListUsersParams struct {
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	Search    string `json:"search"`
	Role      string `json:"role"`
	Banned    *bool  `json:"banned"`
	Suspended *bool  `json:"suspended"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Email:                 u.Email,
		Username:              u.Username,
		Role:                  u.Role.String(),
		IsBanned:              u.IsBanned,
		IsSuspended:           u.IsSuspended,
		SuspendedUntil:        u.SuspendedUntil,
		StrikeCount:           u.StrikeCount,
		SubscriptionPlan:      u.SubscriptionPlan,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
