package models

import "time"

// We use 'db' tags for sqlx to automatically map
// the database column names (snake_case) to our Go fields (CamelCase).

// Account roles. Every account holds exactly one of these.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleBanned = "banned"
)

// Account represents a registered user and their current role.
type Account struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	PhotoURL  string    `db:"photo_url" json:"photoUrl"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Campaign represents a donation campaign for a pet.
// DonatedAmountCents is written exclusively by the donation orchestrator's
// increment step; no other code path may touch it.
type Campaign struct {
	ID                 string    `db:"id" json:"id"`
	CreatorEmail       string    `db:"creator_email" json:"creatorEmail"`
	PetName            string    `db:"pet_name" json:"petName"`
	ImageURL           string    `db:"image_url" json:"imageUrl"`
	TargetAmountCents  int64     `db:"target_amount_cents" json:"-"`
	DonatedAmountCents int64     `db:"donated_amount_cents" json:"-"`
	Paused             bool      `db:"paused" json:"paused"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// Donation is a single captured donation. Rows are append-only: once
// written they are never mutated or deleted.
type Donation struct {
	ID               string    `db:"id" json:"id"`
	CampaignID       string    `db:"campaign_id" json:"campaignId"`
	DonorEmail       string    `db:"donor_email" json:"donorEmail"`
	AmountCents      int64     `db:"amount_cents" json:"-"`
	CapturePaymentID string    `db:"capture_payment_id" json:"capturePaymentId"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Pet represents a pet listed for adoption.
type Pet struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Age              string    `db:"age" json:"age"`
	Category         string    `db:"category" json:"category"`
	Location         string    `db:"location" json:"location"`
	ImageURL         string    `db:"image_url" json:"imageUrl"`
	ShortDescription string    `db:"short_description" json:"shortDescription"`
	LongDescription  string    `db:"long_description" json:"longDescription"`
	AddedBy          string    `db:"added_by" json:"addedBy"`
	Adopted          bool      `db:"adopted" json:"adopted"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
