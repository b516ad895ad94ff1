// AngelaMos | 2026
// gateway.go

package subscription

import (
	"context"

	"github.com/carterperez-dev/inkpost/internal/user"
)

const TransactionSuccessful = "successful"

type CheckoutRequest struct {
	TxRef    string
	Amount   int64
	Currency string
	Plan     user.Plan
	UserID   string
	Email    string
	Username string
}

// Transaction is the provider's view of a payment. Plan and UserID come
// from the metadata attached at checkout.
type Transaction struct {
	ID       string
	TxRef    string
	Status   string
	Amount   float64
	Currency string
	Plan     string
	UserID   string
}

type Gateway interface {
	CreatePaymentLink(ctx context.Context, req CheckoutRequest) (string, error)
	VerifyTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	VerifyByReference(ctx context.Context, txRef string) (*Transaction, error)
}
