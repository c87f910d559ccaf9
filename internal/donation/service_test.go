package donation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"pet-platform/internal/models"
	"pet-platform/internal/payment"
	"pet-platform/internal/payment/mocks"
	"pet-platform/internal/store"
	ws "pet-platform/internal/websocket"
)

// fakeLedger is an in-memory campaign ledger. AddToCampaignTotal does an
// atomic add under a lock, mirroring the single-UPDATE store primitive.
type fakeLedger struct {
	mu            sync.Mutex
	campaigns     map[string]*models.Campaign
	donations     []models.Donation
	failInsert    bool
	failIncrement bool
}

func newFakeLedger(campaigns ...*models.Campaign) *fakeLedger {
	l := &fakeLedger{campaigns: map[string]*models.Campaign{}}
	for _, c := range campaigns {
		l.campaigns[c.ID] = c
	}
	return l
}

func (l *fakeLedger) GetCampaign(_ context.Context, id string) (*models.Campaign, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (l *fakeLedger) InsertDonation(_ context.Context, campaignID, donorEmail string, amountCents int64, captureID string) (*models.Donation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failInsert {
		return nil, errors.New("store unavailable")
	}
	d := models.Donation{
		ID:               fmt.Sprintf("don-%d", len(l.donations)+1),
		CampaignID:       campaignID,
		DonorEmail:       donorEmail,
		AmountCents:      amountCents,
		CapturePaymentID: captureID,
	}
	l.donations = append(l.donations, d)
	return &d, nil
}

func (l *fakeLedger) AddToCampaignTotal(_ context.Context, id string, amountCents int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failIncrement {
		return errors.New("store unavailable")
	}
	c, ok := l.campaigns[id]
	if !ok {
		return store.ErrNotFound
	}
	c.DonatedAmountCents += amountCents
	return nil
}

func (l *fakeLedger) CampaignBalances(_ context.Context) ([]store.CampaignBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sums := map[string]int64{}
	for _, d := range l.donations {
		sums[d.CampaignID] += d.AmountCents
	}
	var out []store.CampaignBalance
	for id, c := range l.campaigns {
		out = append(out, store.CampaignBalance{
			CampaignID:         id,
			DonatedAmountCents: c.DonatedAmountCents,
			SumCents:           sums[id],
		})
	}
	return out, nil
}

func (l *fakeLedger) total(id string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.campaigns[id].DonatedAmountCents
}

func (l *fakeLedger) donationCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.donations)
}

func testCampaign() *models.Campaign {
	return &models.Campaign{
		ID:                "camp-1",
		CreatorEmail:      "creator@example.com",
		PetName:           "Rex",
		TargetAmountCents: 100000,
	}
}

func donateReq(cents int64) DonateRequest {
	return DonateRequest{
		CampaignID:       "camp-1",
		AmountCents:      cents,
		Currency:         "USD",
		DonorEmail:       "donor@example.com",
		PaymentMethodRef: "tok_visa",
	}
}

func TestDonateSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusCaptured, CaptureID: "cap-1"})

	svc := NewService(ledger, capturer, nil)
	result, err := svc.Donate(context.Background(), donateReq(2500))
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if result.CaptureID != "cap-1" {
		t.Errorf("capture id = %q, want cap-1", result.CaptureID)
	}
	if got := ledger.total("camp-1"); got != 2500 {
		t.Errorf("campaign total = %d, want 2500", got)
	}
	if got := ledger.donationCount(); got != 1 {
		t.Errorf("donation rows = %d, want 1", got)
	}
	if ledger.donations[0].CapturePaymentID != "cap-1" {
		t.Errorf("donation capture id = %q, want cap-1", ledger.donations[0].CapturePaymentID)
	}
}

func TestDonateInvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())
	// No EXPECT: any capture attempt fails the test.
	svc := NewService(ledger, mocks.NewMockCapturer(ctrl), nil)

	if _, err := svc.Donate(context.Background(), donateReq(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
}

func TestDonateCampaignNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(newFakeLedger(), mocks.NewMockCapturer(ctrl), nil)

	if _, err := svc.Donate(context.Background(), donateReq(2500)); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("got %v, want ErrCampaignNotFound", err)
	}
}

func TestDonatePausedCampaignNoCaptureNoWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	campaign := testCampaign()
	campaign.Paused = true
	ledger := newFakeLedger(campaign)

	svc := NewService(ledger, mocks.NewMockCapturer(ctrl), nil)

	if _, err := svc.Donate(context.Background(), donateReq(2500)); !errors.Is(err, ErrCampaignPaused) {
		t.Fatalf("got %v, want ErrCampaignPaused", err)
	}
	if ledger.donationCount() != 0 || ledger.total("camp-1") != 0 {
		t.Fatal("paused campaign must see zero ledger writes")
	}
}

func TestDonateDeclinedNoWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusDeclined, Reason: "card declined"})

	svc := NewService(ledger, capturer, nil)
	_, err := svc.Donate(context.Background(), donateReq(2500))

	var paymentErr *PaymentError
	if !errors.As(err, &paymentErr) || !paymentErr.Declined {
		t.Fatalf("got %v, want declined PaymentError", err)
	}
	if ledger.donationCount() != 0 || ledger.total("camp-1") != 0 {
		t.Fatal("declined capture must see zero ledger writes")
	}
}

func TestDonateAdapterErrorNotDeclined(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusAdapterError, Reason: "payment gateway timeout"})

	svc := NewService(ledger, capturer, nil)
	_, err := svc.Donate(context.Background(), donateReq(2500))

	var paymentErr *PaymentError
	if !errors.As(err, &paymentErr) || paymentErr.Declined {
		t.Fatalf("got %v, want non-declined PaymentError", err)
	}
	if ledger.donationCount() != 0 {
		t.Fatal("timeout must never be treated as a captured payment")
	}
}

func TestDonateInsertFailureSurfacesCaptureID(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())
	ledger.failInsert = true

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusCaptured, CaptureID: "cap-lost"})

	svc := NewService(ledger, capturer, nil)
	_, err := svc.Donate(context.Background(), donateReq(2500))

	var ledgerErr *LedgerWriteError
	if !errors.As(err, &ledgerErr) {
		t.Fatalf("got %v, want LedgerWriteError", err)
	}
	if ledgerErr.CaptureID != "cap-lost" {
		t.Errorf("capture id = %q, want cap-lost", ledgerErr.CaptureID)
	}
	if ledger.total("camp-1") != 0 {
		t.Error("total must not move when the insert failed")
	}
}

// A failed increment after a successful insert still reports success to
// the donor; the gap shows up in the reconciliation sweep instead.
func TestDonateIncrementFailureIsReconciled(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())
	ledger.failIncrement = true

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusCaptured, CaptureID: "cap-2"})

	svc := NewService(ledger, capturer, nil)
	result, err := svc.Donate(context.Background(), donateReq(2500))
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if result.DonationID == "" {
		t.Fatal("expected a recorded donation")
	}

	discrepancies, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(discrepancies) != 1 {
		t.Fatalf("discrepancies = %d, want 1", len(discrepancies))
	}
	if discrepancies[0].Expected != 2500 || discrepancies[0].Stored != 0 {
		t.Errorf("discrepancy = %+v, want expected 2500 / stored 0", discrepancies[0])
	}
}

func TestReconcileCleanLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusCaptured, CaptureID: "cap-3"})

	svc := NewService(ledger, capturer, nil)
	if _, err := svc.Donate(context.Background(), donateReq(1000)); err != nil {
		t.Fatalf("donate: %v", err)
	}

	discrepancies, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(discrepancies) != 0 {
		t.Fatalf("clean ledger reported discrepancies: %+v", discrepancies)
	}
}

// Concurrent donations to one campaign must converge to the exact sum:
// the increment is an atomic add, so no update may be lost.
func TestConcurrentDonationsConverge(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())

	const donors = 12

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, payment.CaptureRequest) payment.CaptureResult {
			return payment.CaptureResult{Status: payment.StatusCaptured, CaptureID: "cap-conc"}
		}).Times(donors)

	svc := NewService(ledger, capturer, nil)

	var wg sync.WaitGroup
	var wantTotal int64
	for i := 1; i <= donors; i++ {
		amount := int64(i * 100)
		wantTotal += amount
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Donate(context.Background(), donateReq(amount)); err != nil {
				t.Errorf("concurrent donate: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := ledger.total("camp-1"); got != wantTotal {
		t.Fatalf("campaign total = %d, want %d", got, wantTotal)
	}
	if got := ledger.donationCount(); got != donors {
		t.Fatalf("donation rows = %d, want %d", got, donors)
	}
}

// The alert sink is best effort and fed after the ledger writes.
func TestDonatePublishesAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newFakeLedger(testCampaign())

	capturer := mocks.NewMockCapturer(ctrl)
	capturer.EXPECT().Capture(gomock.Any(), gomock.Any()).
		Return(payment.CaptureResult{Status: payment.StatusCaptured, CaptureID: "cap-4"})

	sink := &captureSink{}
	svc := NewService(ledger, capturer, sink)
	if _, err := svc.Donate(context.Background(), donateReq(2500)); err != nil {
		t.Fatalf("donate: %v", err)
	}

	if len(sink.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(sink.alerts))
	}
	alert := sink.alerts[0]
	if alert.TargetCreatorEmail != "creator@example.com" || alert.Amount != 25.0 {
		t.Errorf("alert = %+v", alert)
	}
}

type captureSink struct {
	alerts []ws.DonationAlert
}

func (s *captureSink) Publish(alert ws.DonationAlert) {
	s.alerts = append(s.alerts, alert)
}
