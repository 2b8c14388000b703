package cropdisease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrImageNotFound is returned when no image matches the id.
var ErrImageNotFound = errors.New("crop image not found")

// Repository stores uploaded images.
type Repository interface {
	Save(ctx context.Context, image Image) error
	Get(ctx context.Context, id string) (Image, error)
}

// PostgresRepository keeps images in the crop_images table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, img Image) error {
	id, err := uuid.Parse(img.ID)
	if err != nil {
		return fmt.Errorf("parse image id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO crop_images
        (id, user_id, filename, original_filename, content_type, size_bytes, data, uploaded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, img.UserID, img.Filename, img.OriginalFilename, img.ContentType, img.Size(), img.Data, img.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert crop image: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Image, error) {
	imageID, err := uuid.Parse(id)
	if err != nil {
		return Image{}, ErrImageNotFound
	}
	var (
		img        Image
		uploadedAt time.Time
	)
	err = r.db.QueryRow(ctx, `SELECT user_id, filename, original_filename, content_type, data, uploaded_at
        FROM crop_images WHERE id = $1`, imageID).
		Scan(&img.UserID, &img.Filename, &img.OriginalFilename, &img.ContentType, &img.Data, &uploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Image{}, ErrImageNotFound
		}
		return Image{}, err
	}
	img.ID = imageID.String()
	img.UploadedAt = uploadedAt.UTC()
	return img, nil
}

type memoryRepository struct {
	mu     sync.RWMutex
	images map[string]Image
}

// NewMemoryRepository builds an in-memory image store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{images: make(map[string]Image)}
}

func (r *memoryRepository) Save(_ context.Context, img Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img.Data = append([]byte(nil), img.Data...)
	r.images[img.ID] = img
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[id]
	if !ok {
		return Image{}, ErrImageNotFound
	}
	return img, nil
}
