// AngelaMos | 2026
// flutterwave_test.go

package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/user"
)

func newTestFlutterwave(t *testing.T, h http.HandlerFunc) *Flutterwave {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	f := NewFlutterwave(config.PaymentConfig{
		BaseURL:     srv.URL + "/",
		SecretKey:   "FLWSECK_TEST-abc",
		RedirectURL: "https://app.example/payment/callback",
		Timeout:     2 * time.Second,
	})
	f.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(verifyRetries, retry.NewConstant(time.Millisecond))
	}
	return f
}

func writeEnvelope(w http.ResponseWriter, status int, env map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func TestFlutterwaveCreatePaymentLink(t *testing.T) {
	var got flwCheckout
	f := newTestFlutterwave(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST-abc", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeEnvelope(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]any{"link": "https://checkout.flutterwave.com/v3/hosted/pay/abc"},
		})
	})

	link, err := f.CreatePaymentLink(context.Background(), CheckoutRequest{
		TxRef:    "ref-1",
		Amount:   3500,
		Currency: "NGN",
		Plan:     user.PlanMonthly,
		UserID:   "u1",
		Email:    "a@b.co",
		Username: "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/abc", link)
	assert.Equal(t, "ref-1", got.TxRef)
	assert.Equal(t, int64(3500), got.Amount)
	assert.Equal(t, "MONTHLY", got.Meta["plan"])
	assert.Equal(t, "u1", got.Meta["userId"])
	assert.Equal(t, "https://app.example/payment/callback", got.RedirectURL)
}

func TestFlutterwaveVerifyTransaction(t *testing.T) {
	f := newTestFlutterwave(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/9001/verify", r.URL.Path)

		writeEnvelope(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Transaction fetched successfully",
			"data": map[string]any{
				"id":       9001,
				"tx_ref":   "ref-1",
				"status":   "successful",
				"amount":   3500,
				"currency": "NGN",
				"meta":     map[string]any{"plan": "MONTHLY", "userId": "u1"},
			},
		})
	})

	tx, err := f.VerifyTransaction(context.Background(), "9001")
	require.NoError(t, err)

	assert.Equal(t, &Transaction{
		ID:       "9001",
		TxRef:    "ref-1",
		Status:   TransactionSuccessful,
		Amount:   3500,
		Currency: "NGN",
		Plan:     "MONTHLY",
		UserID:   "u1",
	}, tx)
}

func TestFlutterwaveVerifyByReferenceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	f := newTestFlutterwave(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/verify_by_reference", r.URL.Path)
		assert.Equal(t, "ref-1", r.URL.Query().Get("tx_ref"))

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"status": "success",
			"data":   map[string]any{"id": 7, "tx_ref": "ref-1", "status": "successful"},
		})
	})

	tx, err := f.VerifyByReference(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "7", tx.ID)
}

func TestFlutterwaveVerifyGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	f := newTestFlutterwave(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := f.VerifyByReference(context.Background(), "ref-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayRejected)
	assert.Equal(t, int32(verifyRetries+1), calls.Load())
}

func TestFlutterwaveRejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	f := newTestFlutterwave(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusNotFound, map[string]any{
			"status":  "error",
			"message": "No transaction was found for this id",
			"data":    nil,
		})
	})

	_, err := f.VerifyTransaction(context.Background(), "404")
	require.ErrorIs(t, err, ErrGatewayRejected)
	assert.Equal(t, int32(1), calls.Load())
}
