// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

const verifyLockTTL = 30 * time.Second

type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Locker serializes work on one key across instances. release is safe to
// call when ok is false.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

var ErrVerificationInProgress = errors.New("payment verification in progress")

type Service struct {
	lifecycle *Lifecycle
	payments  Repository
	users     UserReader
	gateway   Gateway
	pricing   Pricing
	locker    Locker
	logger    *slog.Logger
	now       func() time.Time
}

type ServiceConfig struct {
	Lifecycle *Lifecycle
	Payments  Repository
	Users     UserReader
	Gateway   Gateway
	Pricing   Pricing
	Locker    Locker
	Logger    *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		lifecycle: cfg.Lifecycle,
		payments:  cfg.Payments,
		users:     cfg.Users,
		gateway:   cfg.Gateway,
		pricing:   cfg.Pricing,
		locker:    cfg.Locker,
		logger:    logger,
		now:       time.Now,
	}
}

// Upgrade grants plan directly without a payment.
func (s *Service) Upgrade(ctx context.Context, userID, plan string) (*user.User, error) {
	p, err := ParsePlan(plan)
	if err != nil {
		return nil, core.ValidationError("invalid subscription plan")
	}
	return s.lifecycle.GrantAuthorPlan(ctx, userID, p)
}

type Checkout struct {
	PaymentLink string
	TxRef       string
	Amount      int64
	Currency    string
	Plan        user.Plan
}

func (s *Service) Initiate(ctx context.Context, userID, plan string) (*Checkout, error) {
	p, err := ParsePlan(plan)
	if err != nil {
		return nil, core.ValidationError("invalid subscription plan")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	checkout := &Checkout{
		TxRef:    uuid.New().String(),
		Amount:   s.pricing.Price(p),
		Currency: s.pricing.Currency,
		Plan:     p,
	}

	link, err := s.gateway.CreatePaymentLink(ctx, CheckoutRequest{
		TxRef:    checkout.TxRef,
		Amount:   checkout.Amount,
		Currency: checkout.Currency,
		Plan:     p,
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
	})
	if err != nil {
		return nil, gatewayError(err)
	}
	checkout.PaymentLink = link

	s.logger.InfoContext(ctx, "payment initiated",
		"user_id", u.ID,
		"plan", string(p),
		"tx_ref", checkout.TxRef,
	)

	return checkout, nil
}

type VerifyRequest struct {
	UserID        string
	TransactionID string
	TxRef         string
}

type Verified struct {
	User          *user.User
	Plan          user.Plan
	TxRef         string
	TransactionID string
}

// Verify confirms a payment with the gateway and grants its plan. Recording
// the payment and granting the plan commit together; a replayed reference
// fails with PaymentAlreadyApplied.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*Verified, error) {
	ctx, span := core.StartSpan(ctx, "subscription.Verify",
		attribute.String("user.id", req.UserID),
	)
	defer span.End()

	if req.TransactionID == "" && req.TxRef == "" {
		return nil, core.ValidationError("transaction_id or tx_ref is required")
	}

	lockKey := "payment:verify:" + req.TxRef
	if req.TransactionID != "" {
		lockKey = "payment:verify:txn:" + req.TransactionID
	}
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, lockKey, verifyLockTTL)
		if err != nil {
			s.logger.WarnContext(ctx, "verification lock unavailable", "error", err)
		} else {
			defer release()
			if !ok {
				return nil, core.NewAppError(
					ErrVerificationInProgress,
					"payment verification already in progress",
					409,
					"VERIFICATION_IN_PROGRESS",
				)
			}
		}
	}

	var (
		tx  *Transaction
		err error
	)
	if req.TransactionID != "" {
		tx, err = s.gateway.VerifyTransaction(ctx, req.TransactionID)
	} else {
		tx, err = s.gateway.VerifyByReference(ctx, req.TxRef)
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, gatewayError(err)
	}

	plan, err := s.checkTransaction(req.UserID, tx)
	if err != nil {
		s.logger.WarnContext(ctx, "payment rejected",
			"user_id", req.UserID,
			"tx_ref", tx.TxRef,
			"status", tx.Status,
			"error", err,
		)
		return nil, err
	}

	payment := &Payment{
		ID:       uuid.New().String(),
		UserID:   req.UserID,
		Plan:     plan,
		Amount:   int64(tx.Amount),
		Currency: tx.Currency,
		Status:   StatusCompleted,
		TxRef:    tx.TxRef,
	}
	if tx.ID != "" {
		payment.TransactionID = &tx.ID
	}

	now := s.now()
	updated, err := s.payments.ApplyPayment(ctx, payment, func(u *user.User) error {
		Grant(u, plan, now)
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment verified and plan granted",
		"user_id", updated.ID,
		"plan", string(plan),
		"tx_ref", payment.TxRef,
		"expires_at", updated.SubscriptionExpiresAt,
	)

	return &Verified{
		User:          updated,
		Plan:          plan,
		TxRef:         payment.TxRef,
		TransactionID: tx.ID,
	}, nil
}

func (s *Service) checkTransaction(userID string, tx *Transaction) (user.Plan, error) {
	if tx.Status != TransactionSuccessful {
		return "", core.PaymentNotSuccessfulError(tx.Status)
	}

	if tx.TxRef == "" {
		return "", core.PaymentNotSuccessfulError("missing_reference")
	}

	plan, err := ParsePlan(tx.Plan)
	if err != nil {
		return "", core.ValidationError("invalid plan in payment metadata")
	}

	// Initiate always stamps the payer, so a transaction without one was
	// not started here and cannot be claimed by whoever knows its id.
	if tx.UserID == "" || tx.UserID != userID {
		return "", core.PaymentMismatchError()
	}

	if tx.Currency != "" && tx.Currency != s.pricing.Currency {
		return "", core.PaymentNotSuccessfulError("currency_mismatch")
	}

	if int64(tx.Amount) < s.pricing.Price(plan) {
		return "", core.PaymentNotSuccessfulError("underpaid")
	}

	return plan, nil
}

type ListResult struct {
	Days    int
	Records []Record
	Now     time.Time
}

// ListSubscriptions returns payments from the last days days. Only 7, 30
// and 100 are accepted; anything else falls back to 30.
func (s *Service) ListSubscriptions(ctx context.Context, days int) (*ListResult, error) {
	days = NormalizeDays(days)
	now := s.now()

	records, err := s.payments.ListSince(ctx, now.Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return &ListResult{Days: days, Records: records, Now: now}, nil
}

func NormalizeDays(days int) int {
	switch days {
	case 7, 30, 100:
		return days
	}
	return 30
}

func gatewayError(err error) error {
	if errors.Is(err, ErrGatewayRejected) {
		return core.PaymentNotSuccessfulError("rejected")
	}
	return core.GatewayUnavailableError(err)
}
