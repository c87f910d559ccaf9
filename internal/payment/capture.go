package payment

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// CaptureStatus tags the outcome of a capture attempt.
type CaptureStatus int

const (
	// StatusCaptured means the processor confirmed funds were collected.
	StatusCaptured CaptureStatus = iota
	// StatusDeclined means the processor rejected the payment method.
	StatusDeclined
	// StatusAdapterError covers transport failures and timeouts. A timeout
	// after a successful remote capture is indistinguishable from a failed
	// one here; callers must never treat it as success.
	StatusAdapterError
)

// CaptureRequest describes one capture attempt against the processor.
// AmountCents is in minor currency units; use MinorUnits to convert.
type CaptureRequest struct {
	AmountCents      int64
	Currency         string
	PaymentMethodRef string
	DonorEmail       string
}

// CaptureResult is the tagged outcome of a capture attempt. CaptureID is
// set only when Status is StatusCaptured.
type CaptureResult struct {
	Status    CaptureStatus
	CaptureID string
	Reason    string
}

// Capturer is the boundary to the external payment processor.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) CaptureResult
}

// MinorUnits converts a major-unit decimal amount (e.g. 25.00) to minor
// units (2500) with round-half-up. Silent truncation is a defect: 10.005
// must become 1001, not 1000.
func MinorUnits(major float64) int64 {
	return int64(math.Floor(major*100 + 0.5))
}

// MajorUnits is the inverse conversion, for response bodies.
func MajorUnits(cents int64) float64 {
	return float64(cents) / 100
}

// MidtransCapturer captures card payments through the Midtrans Core API.
type MidtransCapturer struct {
	client  coreapi.Client
	timeout time.Duration
}

func NewMidtransCapturer(serverKey string, timeout time.Duration) *MidtransCapturer {
	var c coreapi.Client
	c.New(serverKey, midtrans.Sandbox)

	return &MidtransCapturer{client: c, timeout: timeout}
}

// Capture charges the tokenized card synchronously. The SDK call takes no
// context, so it runs in its own goroutine and the result is abandoned on
// timeout; an abandoned call reports StatusAdapterError, never success.
func (m *MidtransCapturer) Capture(ctx context.Context, req CaptureRequest) CaptureResult {
	// One idempotency key per attempt; the gateway dedupes retries on it.
	orderID := "DONATION-" + uuid.NewString()

	chargeReq := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: req.AmountCents,
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID: req.PaymentMethodRef,
		},
		CustomerDetails: &midtrans.CustomerDetails{
			Email: req.DonorEmail,
		},
	}

	type chargeOutcome struct {
		resp *coreapi.ChargeResponse
		err  *midtrans.Error
	}

	done := make(chan chargeOutcome, 1)
	go func() {
		resp, err := m.client.ChargeTransaction(chargeReq)
		done <- chargeOutcome{resp: resp, err: err}
	}()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var outcome chargeOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		log.Printf("Midtrans charge timed out for order %s: %v", orderID, ctx.Err())
		return CaptureResult{Status: StatusAdapterError, Reason: "payment gateway timeout"}
	}

	if outcome.resp == nil {
		log.Println("Midtrans charge failed (nil response):", outcome.err)
		return CaptureResult{Status: StatusAdapterError, Reason: "payment gateway error"}
	}
	if outcome.err != nil {
		log.Printf("Midtrans returned a valid response but also a non-nil error: %v", outcome.err)
	}

	switch outcome.resp.TransactionStatus {
	case "capture", "settlement":
		return CaptureResult{Status: StatusCaptured, CaptureID: outcome.resp.TransactionID}
	case "deny":
		log.Printf("Midtrans declined order %s: %s", orderID, outcome.resp.StatusMessage)
		return CaptureResult{Status: StatusDeclined, Reason: "card declined"}
	default:
		// pending/expire/etc. never count as captured in a synchronous flow.
		log.Printf("Midtrans order %s in non-captured status %q", orderID, outcome.resp.TransactionStatus)
		return CaptureResult{Status: StatusDeclined, Reason: "payment not completed"}
	}
}
