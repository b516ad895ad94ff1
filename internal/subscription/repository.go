// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

type Repository interface {
	// ApplyPayment records p and runs grant against the payer's locked row
	// in one transaction. A tx_ref seen before fails with
	// PaymentAlreadyApplied and grants nothing.
	ApplyPayment(
		ctx context.Context,
		p *Payment,
		grant func(u *user.User) error,
	) (*user.User, error)
	ListSince(ctx context.Context, since time.Time) ([]Record, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ApplyPayment(
	ctx context.Context,
	p *Payment,
	grant func(u *user.User) error,
) (*user.User, error) {
	var updated *user.User

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO payments (
				id, user_id, plan, amount, currency, status, tx_ref, transaction_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (tx_ref) DO NOTHING
			RETURNING created_at`

		err := tx.GetContext(ctx, &p.CreatedAt, query,
			p.ID,
			p.UserID,
			p.Plan,
			p.Amount,
			p.Currency,
			p.Status,
			p.TxRef,
			p.TransactionID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return core.PaymentAlreadyAppliedError()
		}
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		u, err := user.LockForUpdate(ctx, tx, p.UserID)
		if err != nil {
			return err
		}

		if err := grant(u); err != nil {
			return err
		}

		if err := user.SaveState(ctx, tx, u); err != nil {
			return err
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *repository) ListSince(ctx context.Context, since time.Time) ([]Record, error) {
	query := `
		SELECT p.id, p.user_id, p.plan, p.amount, p.currency, p.status,
		       p.tx_ref, p.transaction_id, p.created_at,
		       u.username, u.email, u.subscription_expires_at
		FROM payments p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.created_at >= $1
		ORDER BY p.created_at DESC`

	var records []Record
	if err := r.db.SelectContext(ctx, &records, query, since); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return records, nil
}
