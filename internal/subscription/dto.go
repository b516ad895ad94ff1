// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"

	"github.com/carterperez-dev/inkpost/internal/user"
)

type PlanBody struct {
	Plan string `json:"plan" validate:"required"`
}

type VerifyBody struct {
	TransactionID string `json:"transaction_id" validate:"required_without=TxRef"`
	TxRef         string `json:"tx_ref"         validate:"required_without=TransactionID"`
}

type SubscriberResponse struct {
	ID                    string     `json:"id"`
	Username              string     `json:"username"`
	Role                  string     `json:"role"`
	SubscriptionPlan      *user.Plan `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
}

type UpgradeResponse struct {
	Message string             `json:"message"`
	User    SubscriberResponse `json:"user"`
}

type CheckoutResponse struct {
	PaymentLink string `json:"payment_link"`
	TxRef       string `json:"tx_ref"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Plan        string `json:"plan"`
}

type VerifyResponse struct {
	Message       string             `json:"message"`
	TxRef         string             `json:"tx_ref"`
	TransactionID string             `json:"transaction_id,omitempty"`
	User          SubscriberResponse `json:"user"`
}

type SubscriptionRecord struct {
	PaymentID             string     `json:"payment_id"`
	UserID                string     `json:"user_id"`
	Username              *string    `json:"username"`
	Email                 *string    `json:"email"`
	Plan                  string     `json:"plan"`
	Amount                int64      `json:"amount"`
	Currency              string     `json:"currency"`
	TxRef                 string     `json:"tx_ref"`
	PaidAt                time.Time  `json:"paid_at"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	IsActive              bool       `json:"is_active"`
}

type SubscriptionListResponse struct {
	Timeframe     string               `json:"timeframe"`
	Count         int                  `json:"count"`
	Subscriptions []SubscriptionRecord `json:"subscriptions"`
}

func toSubscriber(u *user.User) SubscriberResponse {
	return SubscriberResponse{
		ID:                    u.ID,
		Username:              u.Username,
		Role:                  u.Role.String(),
		SubscriptionPlan:      u.SubscriptionPlan,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
	}
}

func toSubscriptionList(res *ListResult) SubscriptionListResponse {
	records := make([]SubscriptionRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		records = append(records, SubscriptionRecord{
			PaymentID:             rec.ID,
			UserID:                rec.UserID,
			Username:              rec.Username,
			Email:                 rec.Email,
			Plan:                  string(rec.Plan),
			Amount:                rec.Amount,
			Currency:              rec.Currency,
			TxRef:                 rec.TxRef,
			PaidAt:                rec.CreatedAt,
			SubscriptionExpiresAt: rec.SubscriptionExpiresAt,
			IsActive:              rec.IsActive(res.Now),
		})
	}

	return SubscriptionListResponse{
		Timeframe:     timeframeLabel(res.Days),
		Count:         len(records),
		Subscriptions: records,
	}
}

func timeframeLabel(days int) string {
	switch days {
	case 7:
		return "last_7_days"
	case 100:
		return "last_100_days"
	}
	return "last_30_days"
}
