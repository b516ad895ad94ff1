// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"

	"github.com/carterperez-dev/inkpost/internal/user"
)

const StatusCompleted = "completed"

type Payment struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Plan          user.Plan `db:"plan"`
	Amount        int64     `db:"amount"`
	Currency      string    `db:"currency"`
	Status        string    `db:"status"`
	TxRef         string    `db:"tx_ref"`
	TransactionID *string   `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Record is a payment joined with its payer's current subscription.
type Record struct {
	Payment
	Username              *string    `db:"username"`
	Email                 *string    `db:"email"`
	SubscriptionExpiresAt *time.Time `db:"subscription_expires_at"`
}

func (r Record) IsActive(now time.Time) bool {
	return r.SubscriptionExpiresAt != nil && r.SubscriptionExpiresAt.After(now)
}
