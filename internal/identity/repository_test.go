package identity_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/identity"
	"github.com/farma-sahayak/sahayak-server/internal/infra/pgtest"
)

func TestPostgresRepository(t *testing.T) {
	repo := identity.NewPostgresRepository(pgtest.NewPool(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, identity.User{Phone: "+919876543210", PINHash: "hash"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	byPhone, err := repo.FindByPhone(ctx, "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)
	assert.Equal(t, "hash", byPhone.PINHash)

	_, err = repo.Create(ctx, identity.User{Phone: "+919876543210", PINHash: "other"})
	assert.ErrorIs(t, err, identity.ErrDuplicatePhone)

	_, err = repo.FindByID(ctx, user.ID+1000)
	assert.ErrorIs(t, err, identity.ErrNotFound)

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.InTx(ctx, func(tx identity.Repository) error {
			if _, err := tx.Create(ctx, identity.User{Phone: "+919111111111", PINHash: "h"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = repo.FindByPhone(ctx, "+919111111111")
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})

	t.Run("concurrent signups keep one row", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
			dupes   int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.InTx(ctx, func(tx identity.Repository) error {
					_, err := tx.Create(ctx, identity.User{Phone: "+919222222222", PINHash: "h"})
					return err
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, identity.ErrDuplicatePhone):
					dupes++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)
		assert.Equal(t, 7, dupes)
	})
}
