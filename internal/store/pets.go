package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pet-platform/internal/models"
)

// PetStore holds adoptable pet listings.
type PetStore struct {
	DB *sqlx.DB
}

func NewPetStore(db *sqlx.DB) *PetStore {
	return &PetStore{DB: db}
}

func (s *PetStore) Create(ctx context.Context, pet *models.Pet) (*models.Pet, error) {
	var created models.Pet
	query := `
		INSERT INTO pets (id, name, age, category, location, image_url,
		                  short_description, long_description, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`
	err := s.DB.GetContext(ctx, &created, query,
		uuid.NewString(), pet.Name, pet.Age, pet.Category, pet.Location,
		pet.ImageURL, pet.ShortDescription, pet.LongDescription, pet.AddedBy)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *PetStore) Get(ctx context.Context, id string) (*models.Pet, error) {
	var pet models.Pet
	err := s.DB.GetContext(ctx, &pet, `SELECT * FROM pets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pet, nil
}

func (s *PetStore) List(ctx context.Context) ([]models.Pet, error) {
	pets := []models.Pet{}
	query := `SELECT * FROM pets ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &pets, query); err != nil {
		return nil, err
	}
	return pets, nil
}

func (s *PetStore) ListByOwner(ctx context.Context, email string) ([]models.Pet, error) {
	pets := []models.Pet{}
	query := `SELECT * FROM pets WHERE added_by = $1 ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &pets, query, email); err != nil {
		return nil, err
	}
	return pets, nil
}

func (s *PetStore) Update(ctx context.Context, pet *models.Pet) error {
	query := `
		UPDATE pets
		SET name = $2, age = $3, category = $4, location = $5, image_url = $6,
		    short_description = $7, long_description = $8
		WHERE id = $1
	`
	res, err := s.DB.ExecContext(ctx, query,
		pet.ID, pet.Name, pet.Age, pet.Category, pet.Location,
		pet.ImageURL, pet.ShortDescription, pet.LongDescription)
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

func (s *PetStore) MarkAdopted(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE pets SET adopted = true WHERE id = $1`, id)
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

func (s *PetStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
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
