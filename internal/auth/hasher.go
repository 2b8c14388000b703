package auth

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and checks one-way digests of numeric PINs. Callers
// validate the PIN range before reaching it.
type Hasher interface {
	Hash(pin int) (string, error)
	Verify(pin int, digest string) (bool, error)
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt hasher. Costs below bcrypt.MinCost or
// above bcrypt.MaxCost fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(pin int) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(strconv.Itoa(pin)), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(digest), nil
}

// Verify returns false without an error when the PIN does not match. An
// error means the stored digest is unusable.
func (h *BcryptHasher) Verify(pin int, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(strconv.Itoa(pin)))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify pin: %w", err)
	}
}
