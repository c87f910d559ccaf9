package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pet-platform/internal/models"
)

// AccountStore is the identity store: the durable email -> role mapping.
type AccountStore struct {
	DB *sqlx.DB
}

func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{DB: db}
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM accounts WHERE email = $1`
	err := s.DB.GetContext(ctx, &account, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM accounts WHERE id = $1`
	err := s.DB.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Create registers a new account with role 'user'. Registration is
// idempotent on email: if an account already exists the existing row is
// returned with created=false and no second row is written.
func (s *AccountStore) Create(ctx context.Context, email, name, photoURL string) (*models.Account, bool, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	var account models.Account
	query := `
		INSERT INTO accounts (id, email, name, photo_url, role)
		VALUES ($1, $2, $3, $4, 'user')
		ON CONFLICT (email) DO NOTHING
		RETURNING *
	`
	err = s.DB.GetContext(ctx, &account, query, uuid.NewString(), email, name, photoURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a registration race; the winner's row is the account.
			existing, lookupErr := s.GetByEmail(ctx, email)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return &account, true, nil
}

// SetRole performs a role transition (promote to admin, ban).
func (s *AccountStore) SetRole(ctx context.Context, id, role string) error {
	query := `UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, role)
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

func (s *AccountStore) List(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	query := `SELECT * FROM accounts ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &accounts, query); err != nil {
		return nil, err
	}
	return accounts, nil
}
