package farmer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farma-sahayak/sahayak-server/internal/identity"
)

var (
	// ErrForbidden is returned when a caller touches a profile it does not own.
	ErrForbidden = errors.New("farmer profile belongs to another user")
	// ErrInvalidInput is returned when a required field is blank.
	ErrInvalidInput = errors.New("invalid farmer profile")
)

// Service exposes farmer profile operations. Every call is made on behalf of
// an authenticated user and only touches that user's profile.
type Service struct {
	repo  Repository
	users identity.Repository
	now   func() time.Time
}

// NewService builds a farmer profile service.
func NewService(repo Repository, users identity.Repository) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Create stores the first and only profile of userID.
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (Profile, error) {
	profile := Profile{
		UserID:            userID,
		Name:              strings.TrimSpace(input.Name),
		District:          strings.TrimSpace(input.District),
		State:             strings.TrimSpace(input.State),
		PreferredLanguage: strings.TrimSpace(input.PreferredLanguage),
		PrimaryCrops:      cleanCrops(input.PrimaryCrops),
	}
	if err := validate(profile); err != nil {
		return Profile{}, err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("lookup user: %w", err)
	}
	if _, err := s.repo.GetByUser(ctx, userID); err == nil {
		return Profile{}, ErrProfileExists
	} else if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	now := s.now().UTC()
	profile.FarmerID = uuid.NewString()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	if err := s.repo.Create(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Get returns a profile owned by userID.
func (s *Service) Get(ctx context.Context, userID int64, farmerID string) (Profile, error) {
	profile, err := s.repo.Get(ctx, farmerID)
	if err != nil {
		return Profile{}, err
	}
	if profile.UserID != userID {
		return Profile{}, ErrForbidden
	}
	return profile, nil
}

// Update applies a partial update to a profile owned by userID.
func (s *Service) Update(ctx context.Context, userID int64, farmerID string, input UpdateInput) (Profile, error) {
	profile, err := s.Get(ctx, userID, farmerID)
	if err != nil {
		return Profile{}, err
	}

	input.apply(&profile)
	profile.Name = strings.TrimSpace(profile.Name)
	profile.District = strings.TrimSpace(profile.District)
	profile.State = strings.TrimSpace(profile.State)
	profile.PreferredLanguage = strings.TrimSpace(profile.PreferredLanguage)
	profile.PrimaryCrops = cleanCrops(profile.PrimaryCrops)
	if err := validate(profile); err != nil {
		return Profile{}, err
	}
	profile.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func validate(p Profile) error {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.District == "" {
		missing = append(missing, "district")
	}
	if p.State == "" {
		missing = append(missing, "state")
	}
	if p.PreferredLanguage == "" {
		missing = append(missing, "preferred_language")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func cleanCrops(crops []string) []string {
	out := make([]string, 0, len(crops))
	for _, crop := range crops {
		if crop = strings.TrimSpace(crop); crop != "" {
			out = append(out, crop)
		}
	}
	return out
}
