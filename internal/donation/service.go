package donation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pet-platform/internal/models"
	"pet-platform/internal/payment"
	"pet-platform/internal/store"
	ws "pet-platform/internal/websocket"
)

var (
	ErrInvalidAmount    = errors.New("donation amount must be positive")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignPaused   = errors.New("campaign is paused")
)

// PaymentError reports a capture that did not succeed. Declined separates
// a processor rejection (402) from an adapter/transport failure (500).
// Either way no ledger write has happened.
type PaymentError struct {
	Reason   string
	Declined bool
}

func (e *PaymentError) Error() string {
	return "payment failed: " + e.Reason
}

// LedgerWriteError reports the one genuinely bad state: funds were
// captured but the donation could not be recorded. It carries the capture
// id so an operator can reconcile against the processor; it must never be
// retried as a fresh capture.
type LedgerWriteError struct {
	CaptureID string
	Err       error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write failed after capture %s: %v", e.CaptureID, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }

// Ledger is the slice of the campaign ledger the orchestrator drives.
type Ledger interface {
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	InsertDonation(ctx context.Context, campaignID, donorEmail string, amountCents int64, capturePaymentID string) (*models.Donation, error)
	AddToCampaignTotal(ctx context.Context, id string, amountCents int64) error
	CampaignBalances(ctx context.Context) ([]store.CampaignBalance, error)
}

// AlertSink receives best-effort notifications of recorded donations.
type AlertSink interface {
	Publish(alert ws.DonationAlert)
}

// Service sequences capture, donation insert and total increment into one
// user-facing outcome. There is no cross-store transaction: capture always
// precedes ledger writes, the insert always precedes the increment, and
// the only allowed inconsistency is a recorded donation whose increment
// has not landed yet, which Reconcile can detect.
type Service struct {
	ledger   Ledger
	capturer payment.Capturer
	alerts   AlertSink
}

func NewService(ledger Ledger, capturer payment.Capturer, alerts AlertSink) *Service {
	return &Service{ledger: ledger, capturer: capturer, alerts: alerts}
}

type DonateRequest struct {
	CampaignID       string
	AmountCents      int64
	Currency         string
	DonorEmail       string
	PaymentMethodRef string
}

type DonateResult struct {
	DonationID string
	CaptureID  string
}

// Donate runs the full donation flow for one request.
func (s *Service) Donate(ctx context.Context, req DonateRequest) (*DonateResult, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	campaign, err := s.ledger.GetCampaign(ctx, req.CampaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	if campaign.Paused {
		return nil, ErrCampaignPaused
	}

	result := s.capturer.Capture(ctx, payment.CaptureRequest{
		AmountCents:      req.AmountCents,
		Currency:         req.Currency,
		PaymentMethodRef: req.PaymentMethodRef,
		DonorEmail:       req.DonorEmail,
	})

	switch result.Status {
	case payment.StatusCaptured:
	case payment.StatusDeclined:
		return nil, &PaymentError{Reason: result.Reason, Declined: true}
	default:
		return nil, &PaymentError{Reason: result.Reason}
	}

	// Funds are captured from here on. The client disconnecting must not
	// abort persistence, so the ledger writes run on a detached context.
	ledgerCtx := context.WithoutCancel(ctx)

	donation, err := s.ledger.InsertDonation(ledgerCtx, campaign.ID, req.DonorEmail, req.AmountCents, result.CaptureID)
	if err != nil {
		log.Printf("RECONCILE: captured payment %s for campaign %s has no donation record: %v",
			result.CaptureID, campaign.ID, err)
		return nil, &LedgerWriteError{CaptureID: result.CaptureID, Err: err}
	}

	if err := s.ledger.AddToCampaignTotal(ledgerCtx, campaign.ID, req.AmountCents); err != nil {
		// The donation row exists, so the money is recorded; the stale
		// total is picked up by the next reconciliation sweep. The donor
		// still gets a success.
		log.Printf("RECONCILE: total increment failed for campaign %s (donation %s, capture %s): %v",
			campaign.ID, donation.ID, result.CaptureID, err)
	}

	if s.alerts != nil {
		s.alerts.Publish(ws.DonationAlert{
			TargetCreatorEmail: campaign.CreatorEmail,
			CampaignID:         campaign.ID,
			DonorEmail:         req.DonorEmail,
			Amount:             payment.MajorUnits(req.AmountCents),
		})
	}

	return &DonateResult{DonationID: donation.ID, CaptureID: result.CaptureID}, nil
}

// Discrepancy is a campaign whose stored total disagrees with the sum of
// its donation rows.
type Discrepancy struct {
	CampaignID string `json:"campaignId"`
	Stored     int64  `json:"storedCents"`
	Expected   int64  `json:"expectedCents"`
}

// Reconcile sweeps the ledger and reports campaigns whose stored total
// diverged from their donations, closing the window left open by a failed
// increment after a successful insert.
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	balances, err := s.ledger.CampaignBalances(ctx)
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for _, b := range balances {
		if b.DonatedAmountCents != b.SumCents {
			log.Printf("RECONCILE: campaign %s stored total %d != donation sum %d",
				b.CampaignID, b.DonatedAmountCents, b.SumCents)
			out = append(out, Discrepancy{
				CampaignID: b.CampaignID,
				Stored:     b.DonatedAmountCents,
				Expected:   b.SumCents,
			})
		}
	}
	return out, nil
}
