// AngelaMos | 2026
// flutterwave.go

package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/carterperez-dev/inkpost/internal/config"
)

const (
	maxGatewayBody = 1 << 20
	verifyRetries  = 2
)

var ErrGatewayRejected = errors.New("gateway rejected request")

type Flutterwave struct {
	baseURL     string
	secretKey   string
	redirectURL string
	client      *http.Client
	backoff     func() retry.Backoff
}

func NewFlutterwave(cfg config.PaymentConfig) *Flutterwave {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Flutterwave{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		redirectURL: cfg.RedirectURL,
		client:      &http.Client{Timeout: timeout},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(verifyRetries, retry.NewExponential(200*time.Millisecond))
		},
	}
}

type flwEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type flwCheckout struct {
	TxRef          string            `json:"tx_ref"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	RedirectURL    string            `json:"redirect_url"`
	Customer       flwCustomer       `json:"customer"`
	Meta           map[string]string `json:"meta"`
	Customizations flwCustomizations `json:"customizations"`
}

type flwCustomer struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type flwCustomizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type flwTransaction struct {
	ID       json.Number    `json:"id"`
	TxRef    string         `json:"tx_ref"`
	Status   string         `json:"status"`
	Amount   float64        `json:"amount"`
	Currency string         `json:"currency"`
	Meta     map[string]any `json:"meta"`
}

func (f *Flutterwave) CreatePaymentLink(
	ctx context.Context,
	req CheckoutRequest,
) (string, error) {
	body := flwCheckout{
		TxRef:       req.TxRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: f.redirectURL,
		Customer: flwCustomer{
			Email:    req.Email,
			FullName: req.Username,
		},
		Meta: map[string]string{
			"plan":   string(req.Plan),
			"userId": req.UserID,
		},
		Customizations: flwCustomizations{
			Title:       "Blog Subscription",
			Description: fmt.Sprintf("Payment for %s subscription", req.Plan),
		},
	}

	var data struct {
		Link string `json:"link"`
	}
	if err := f.do(ctx, http.MethodPost, "/payments", body, &data); err != nil {
		return "", fmt.Errorf("create payment link: %w", err)
	}
	if data.Link == "" {
		return "", fmt.Errorf("create payment link: empty link: %w", ErrGatewayRejected)
	}

	return data.Link, nil
}

func (f *Flutterwave) VerifyTransaction(
	ctx context.Context,
	transactionID string,
) (*Transaction, error) {
	path := "/transactions/" + url.PathEscape(transactionID) + "/verify"
	return f.verify(ctx, path)
}

func (f *Flutterwave) VerifyByReference(
	ctx context.Context,
	txRef string,
) (*Transaction, error) {
	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	return f.verify(ctx, path)
}

// verify is a read, so transport failures and 5xx answers are retried.
func (f *Flutterwave) verify(ctx context.Context, path string) (*Transaction, error) {
	var tx flwTransaction

	err := retry.Do(ctx, f.backoff(), func(ctx context.Context) error {
		err := f.do(ctx, http.MethodGet, path, nil, &tx)
		var retryable *retryableError
		if errors.As(err, &retryable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("verify transaction: %w", err)
	}

	return &Transaction{
		ID:       tx.ID.String(),
		TxRef:    tx.TxRef,
		Status:   tx.Status,
		Amount:   tx.Amount,
		Currency: tx.Currency,
		Plan:     metaString(tx.Meta, "plan"),
		UserID:   metaString(tx.Meta, "userId"),
	}, nil
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (f *Flutterwave) do(
	ctx context.Context,
	method, path string,
	body, out any,
) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("send request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope flwEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxGatewayBody)).Decode(&envelope)

	if resp.StatusCode >= http.StatusInternalServerError {
		return &retryableError{err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if envelope.Status != "success" {
		return fmt.Errorf("%w: %s", ErrGatewayRejected, envelope.Message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}

	return nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

var _ Gateway = (*Flutterwave)(nil)
