package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// ProfileService manages the one-per-user public profile.
type ProfileService struct {
	storage Storage
	logger  *zap.Logger
}

func NewProfile(s Storage, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		storage: s,
		logger:  logger,
	}
}

// CreateProfile claims a slug for the user. Slug uniqueness is enforced
// by the store; a taken slug surfaces as storage.ErrConflict.
func (s *ProfileService) CreateProfile(ctx context.Context, userID, slug, displayName, bio string) (*storage.Profile, error) {
	slug = NormalizeUsername(slug)
	if ok, err := ValidateUsername(slug); !ok {
		if err == nil {
			err = ErrUsernameTooShort
		}
		return nil, err
	}

	profile, err := s.storage.CreateProfile(ctx, storage.Profile{
		UserID:      userID,
		Slug:        slug,
		DisplayName: displayName,
		Bio:         bio,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile created", zap.String("slug", slug), zap.String("userID", userID))
	return profile, nil
}

// PublicProfile loads the public page payload for a slug: the profile
// plus its links and drops in display order.
func (s *ProfileService) PublicProfile(ctx context.Context, slug string) (*storage.Profile, []storage.Link, []storage.Drop, error) {
	profile, err := s.storage.FindProfileBySlug(ctx, slug)
	if err != nil {
		return nil, nil, nil, err
	}

	links, err := s.storage.LinksByProfile(ctx, profile.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	drops, err := s.storage.DropsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	return profile, links, drops, nil
}

// ProfileForUser resolves the caller's own profile.
func (s *ProfileService) ProfileForUser(ctx context.Context, userID string) (*storage.Profile, error) {
	return s.storage.FindProfileByUserID(ctx, userID)
}

// UpdateProfile writes display fields on the caller's profile. The slug
// is immutable here; ownership is enforced by resolving through userID.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID, displayName, bio, avatarURL string) (*storage.Profile, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = displayName
	profile.Bio = bio
	profile.AvatarURL = avatarURL

	if err := s.storage.UpdateProfile(ctx, *profile); err != nil {
		return nil, err
	}
	return profile, nil
}
