package farmer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	// ErrNotFound is returned when no profile matches the farmer id.
	ErrNotFound = errors.New("farmer profile not found")
	// ErrProfileExists is returned when the user already owns a profile.
	ErrProfileExists = errors.New("farmer profile already exists for user")
	// ErrUserNotFound is returned when the owning user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Repository persists farmer profiles.
type Repository interface {
	Create(ctx context.Context, profile Profile) error
	Get(ctx context.Context, farmerID string) (Profile, error)
	GetByUser(ctx context.Context, userID int64) (Profile, error)
	Update(ctx context.Context, profile Profile) error
}

// PostgresRepository stores profiles in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a profile. The UNIQUE constraint on user_id settles races
// between concurrent creates for the same user.
func (r *PostgresRepository) Create(ctx context.Context, p Profile) error {
	id, err := uuid.Parse(p.FarmerID)
	if err != nil {
		return fmt.Errorf("parse farmer id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO farmer_profiles
        (farmer_id, user_id, name, district, state, preferred_language, primary_crops, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, p.UserID, p.Name, p.District, p.State, p.PreferredLanguage, nonNil(p.PrimaryCrops), p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return ErrProfileExists
			case foreignKeyViolation:
				return ErrUserNotFound
			}
		}
		return fmt.Errorf("insert farmer profile: %w", err)
	}
	return nil
}

// Get fetches a profile by farmer id.
func (r *PostgresRepository) Get(ctx context.Context, farmerID string) (Profile, error) {
	id, err := uuid.Parse(farmerID)
	if err != nil {
		return Profile{}, ErrNotFound
	}
	return scanProfile(r.db.QueryRow(ctx, selectProfile+` WHERE farmer_id = $1`, id))
}

// GetByUser fetches the profile owned by userID.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID int64) (Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, selectProfile+` WHERE user_id = $1`, userID))
}

// Update overwrites the mutable fields of a profile.
func (r *PostgresRepository) Update(ctx context.Context, p Profile) error {
	id, err := uuid.Parse(p.FarmerID)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE farmer_profiles
        SET name = $2, district = $3, state = $4, preferred_language = $5, primary_crops = $6, updated_at = $7
        WHERE farmer_id = $1`,
		id, p.Name, p.District, p.State, p.PreferredLanguage, nonNil(p.PrimaryCrops), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("update farmer profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const selectProfile = `SELECT farmer_id, user_id, name, district, state, preferred_language, primary_crops, created_at, updated_at
        FROM farmer_profiles`

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p         Profile
		id        uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &p.UserID, &p.Name, &p.District, &p.State, &p.PreferredLanguage, &p.PrimaryCrops, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.FarmerID = id.String()
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}

func nonNil(crops []string) []string {
	if crops == nil {
		return []string{}
	}
	return crops
}
