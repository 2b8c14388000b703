package cropdisease_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/cropdisease"
	"github.com/farma-sahayak/sahayak-server/internal/identity"
	"github.com/farma-sahayak/sahayak-server/internal/infra/pgtest"
)

func TestPostgresRepository(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()

	user, err := identity.NewPostgresRepository(pool).Create(ctx, identity.User{Phone: "+919812345678", PINHash: "h"})
	require.NoError(t, err)

	repo := cropdisease.NewPostgresRepository(pool)
	img := cropdisease.Image{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		Filename:         "crop_image_20250726_091530_abcdef12.png",
		OriginalFilename: "leaf.png",
		ContentType:      "image/png",
		Data:             []byte{0x89, 'P', 'N', 'G'},
		UploadedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Save(ctx, img))

	got, err := repo.Get(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img, got)

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, cropdisease.ErrImageNotFound)
	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, cropdisease.ErrImageNotFound)
}
