package farmer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/identity"
)

func newTestService(t *testing.T) (*Service, int64, int64) {
	t.Helper()
	users := identity.NewMemoryRepository()
	ctx := context.Background()
	owner, err := users.Create(ctx, identity.User{Phone: "+919876543210", PINHash: "h"})
	require.NoError(t, err)
	other, err := users.Create(ctx, identity.User{Phone: "+919123456789", PINHash: "h"})
	require.NoError(t, err)
	return NewService(NewMemoryRepository(), users), owner.ID, other.ID
}

func sampleInput() CreateInput {
	return CreateInput{
		Name:              " Ramesh ",
		District:          "Nashik",
		State:             "Maharashtra",
		PreferredLanguage: "mr",
		PrimaryCrops:      []string{"onion", " ", "grapes"},
	}
}

func TestCreateProfile(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)
	assert.NotEmpty(t, profile.FarmerID)
	assert.Equal(t, "Ramesh", profile.Name)
	assert.Equal(t, []string{"onion", "grapes"}, profile.PrimaryCrops)

	_, err = svc.Create(ctx, owner, sampleInput())
	assert.ErrorIs(t, err, ErrProfileExists)

	_, err = svc.Create(ctx, 999, sampleInput())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Create(ctx, owner, CreateInput{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetProfileChecksOwner(t *testing.T) {
	svc, owner, other := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, created.FarmerID)
	require.NoError(t, err)
	assert.Equal(t, created.FarmerID, got.FarmerID)

	_, err = svc.Get(ctx, other, created.FarmerID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, owner, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileIsPartial(t *testing.T) {
	svc, owner, other := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)

	district := "Pune"
	crops := []string{"sugarcane"}
	updated, err := svc.Update(ctx, owner, created.FarmerID, UpdateInput{District: &district, PrimaryCrops: &crops})
	require.NoError(t, err)
	assert.Equal(t, "Pune", updated.District)
	assert.Equal(t, "Ramesh", updated.Name)
	assert.Equal(t, []string{"sugarcane"}, updated.PrimaryCrops)

	blank := " "
	_, err = svc.Update(ctx, owner, created.FarmerID, UpdateInput{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, other, created.FarmerID, UpdateInput{District: &district})
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := svc.Get(ctx, owner, created.FarmerID)
	require.NoError(t, err)
	assert.Equal(t, "Ramesh", stored.Name)
	assert.Equal(t, "Pune", stored.District)
}
