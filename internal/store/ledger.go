package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pet-platform/internal/models"
)

// LedgerStore holds donation campaigns and their append-only donation
// records. The stored campaign total is derived state: it must only ever
// move through AddToCampaignTotal so that concurrent donations serialize
// at the database instead of racing in application code.
type LedgerStore struct {
	DB *sqlx.DB
}

func NewLedgerStore(db *sqlx.DB) *LedgerStore {
	return &LedgerStore{DB: db}
}

func (s *LedgerStore) CreateCampaign(ctx context.Context, creatorEmail, petName, imageURL string, targetCents int64) (*models.Campaign, error) {
	var campaign models.Campaign
	query := `
		INSERT INTO donation_campaigns (id, creator_email, pet_name, image_url, target_amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`
	err := s.DB.GetContext(ctx, &campaign, query, uuid.NewString(), creatorEmail, petName, imageURL, targetCents)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *LedgerStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	query := `SELECT * FROM donation_campaigns WHERE id = $1`
	err := s.DB.GetContext(ctx, &campaign, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// ListCampaigns returns one page of campaigns plus the total row count.
func (s *LedgerStore) ListCampaigns(ctx context.Context, page, limit int) ([]models.Campaign, int, error) {
	var total int
	if err := s.DB.GetContext(ctx, &total, `SELECT count(*) FROM donation_campaigns`); err != nil {
		return nil, 0, err
	}

	campaigns := []models.Campaign{}
	query := `SELECT * FROM donation_campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := s.DB.SelectContext(ctx, &campaigns, query, limit, (page-1)*limit); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (s *LedgerStore) ListCampaignsByCreator(ctx context.Context, email string) ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	query := `SELECT * FROM donation_campaigns WHERE creator_email = $1 ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &campaigns, query, email); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (s *LedgerStore) SetCampaignPaused(ctx context.Context, id string, paused bool) error {
	query := `UPDATE donation_campaigns SET paused = $2 WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, paused)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *LedgerStore) DeleteCampaign(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM donation_campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToCampaignTotal atomically adds amountCents to the campaign's running
// total in a single UPDATE. Read-modify-write of the total is forbidden;
// this statement is the serialization point for concurrent donations.
func (s *LedgerStore) AddToCampaignTotal(ctx context.Context, id string, amountCents int64) error {
	query := `
		UPDATE donation_campaigns
		SET donated_amount_cents = donated_amount_cents + $2
		WHERE id = $1
	`
	res, err := s.DB.ExecContext(ctx, query, id, amountCents)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertDonation appends a donation row. Callers must have a successful
// capture in hand before calling this; capturePaymentID records it.
func (s *LedgerStore) InsertDonation(ctx context.Context, campaignID, donorEmail string, amountCents int64, capturePaymentID string) (*models.Donation, error) {
	var donation models.Donation
	query := `
		INSERT INTO donations (id, campaign_id, donor_email, amount_cents, capture_payment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`
	err := s.DB.GetContext(ctx, &donation, query, uuid.NewString(), campaignID, donorEmail, amountCents, capturePaymentID)
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func (s *LedgerStore) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	err := s.DB.GetContext(ctx, &donation, `SELECT * FROM donations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (s *LedgerStore) ListDonationsByDonor(ctx context.Context, email string) ([]models.Donation, error) {
	donations := []models.Donation{}
	query := `SELECT * FROM donations WHERE donor_email = $1 ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &donations, query, email); err != nil {
		return nil, err
	}
	return donations, nil
}

// CampaignBalance is one row of the reconciliation sweep: a campaign's
// stored total next to the sum of its donation rows.
type CampaignBalance struct {
	CampaignID         string `db:"campaign_id"`
	DonatedAmountCents int64  `db:"donated_amount_cents"`
	SumCents           int64  `db:"sum_cents"`
}

// CampaignBalances compares every campaign's stored total against the sum
// of its donations. Used by the reconciliation sweep to find totals that
// fell behind after a post-insert increment failure.
func (s *LedgerStore) CampaignBalances(ctx context.Context) ([]CampaignBalance, error) {
	balances := []CampaignBalance{}
	query := `
		SELECT c.id AS campaign_id,
		       c.donated_amount_cents,
		       coalesce(sum(d.amount_cents), 0) AS sum_cents
		FROM donation_campaigns c
		LEFT JOIN donations d ON d.campaign_id = c.id
		GROUP BY c.id, c.donated_amount_cents
	`
	if err := s.DB.SelectContext(ctx, &balances, query); err != nil {
		return nil, err
	}
	return balances, nil
}
