package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/farma-sahayak/sahayak-server/internal/config"
	"github.com/farma-sahayak/sahayak-server/internal/identity"
	"github.com/farma-sahayak/sahayak-server/internal/notification"
)

// TokenPair is returned by every successful signup, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service drives the session lifecycle: signup, login, logout, refresh and
// access token validation. It holds no per-user state of its own.
type Service struct {
	store      identity.Store
	hasher     Hasher
	codec      *Codec
	revoked    RevocationList
	notifier   notification.Notifier
	logger     *slog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService wires the auth service. A nil notifier disables notifications.
func NewService(cfg config.JWTConfig, store identity.Store, hasher Hasher, codec *Codec, revoked RevocationList, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		hasher:     hasher,
		codec:      codec,
		revoked:    revoked,
		notifier:   notifier,
		logger:     logger,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// Signup registers a phone number and returns the first token pair. The user
// row and the pair are produced in one transaction, so a failure to mint
// tokens leaves nothing behind.
func (s *Service) Signup(ctx context.Context, phone string, pin int) (TokenPair, error) {
	normalized, err := identity.NormalizePhone(phone)
	if err != nil {
		return TokenPair{}, ErrInvalidFormat
	}
	if err := identity.ValidatePIN(pin); err != nil {
		return TokenPair{}, ErrInvalidFormat
	}

	if _, err := s.store.FindByPhone(ctx, normalized); err == nil {
		return TokenPair{}, ErrAlreadyExists
	} else if !errors.Is(err, identity.ErrNotFound) {
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	digest, err := s.hasher.Hash(pin)
	if err != nil {
		return TokenPair{}, err
	}

	var pair TokenPair
	err = s.store.InTx(ctx, func(tx identity.Repository) error {
		user, err := tx.Create(ctx, identity.User{Phone: normalized, PINHash: digest})
		if err != nil {
			return err
		}
		pair, err = s.issue(user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, identity.ErrDuplicatePhone) {
			return TokenPair{}, ErrAlreadyExists
		}
		return TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	s.notify(ctx, notification.KindSignup, normalized, "Welcome to Sahayak")
	return pair, nil
}

// Login checks the PIN against the stored digest before issuing a pair.
func (s *Service) Login(ctx context.Context, phone string, pin int) (TokenPair, error) {
	normalized, err := identity.NormalizePhone(phone)
	if err != nil {
		return TokenPair{}, ErrInvalidFormat
	}
	if err := identity.ValidatePIN(pin); err != nil {
		return TokenPair{}, ErrInvalidFormat
	}

	user, err := s.findByPhone(ctx, normalized)
	if err != nil {
		return TokenPair{}, err
	}

	ok, err := s.hasher.Verify(pin, user.PINHash)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issue(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	s.notify(ctx, notification.KindLogin, user.Phone, "New login to your Sahayak account")
	return pair, nil
}

// Logout confirms the user still exists and revokes refreshToken when it is
// a refresh token belonging to that user. A token that cannot be decoded is
// ignored; it cannot be used for a refresh either.
func (s *Service) Logout(ctx context.Context, refreshToken string, userID int64) error {
	if _, err := s.findByID(ctx, userID); err != nil {
		return err
	}

	claims, err := s.codec.Decode(refreshToken)
	if err != nil || claims.Kind != KindRefresh || claims.UserID != userID || claims.ID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.Expire); err != nil {
		return err
	}
	return nil
}

// RefreshTokenPair mints a new pair from a refresh token. The presented
// token stays usable until it expires or is logged out.
func (s *Service) RefreshTokenPair(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Kind != KindRefresh {
		return TokenPair{}, ErrInvalidToken
	}

	revoked, err := s.revoked.Revoked(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if revoked {
		return TokenPair{}, ErrRevoked
	}

	user, err := s.findByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issue(user.ID)
}

// ValidateToken resolves an access token to the user it was issued for.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (identity.User, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return identity.User{}, err
	}
	if claims.Kind != KindAccess {
		return identity.User{}, ErrInvalidToken
	}
	return s.findByID(ctx, claims.UserID)
}

func (s *Service) issue(userID int64) (TokenPair, error) {
	access, err := s.codec.Encode(Claims{UserID: userID, Kind: KindAccess}, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Encode(Claims{UserID: userID, Kind: KindRefresh}, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) findByPhone(ctx context.Context, phone string) (identity.User, error) {
	user, err := s.store.FindByPhone(ctx, phone)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, ErrNotFound
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *Service) findByID(ctx context.Context, id int64) (identity.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, ErrNotFound
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *Service) notify(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: destination, Body: body}); err != nil && s.logger != nil {
		s.logger.Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
