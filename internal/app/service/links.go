package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// Free-plan caps. Premium accounts are uncapped.
const (
	FreePlanLinkLimit = 50
	FreePlanDropLimit = 5
)

// PlanPremium is the plan value set after a completed checkout.
const PlanPremium = "premium"

var (
	// ErrPlanLimit means the free-plan cap for this entity is reached.
	ErrPlanLimit = errors.New("plan limit reached")
	// ErrUnsafeURL means the link target is not an absolute http(s) URL.
	ErrUnsafeURL = errors.New("link URL must be a valid http(s) URL")
)

// LinksService manages a profile's links: CRUD, drag reordering and
// click-through redirects.
type LinksService struct {
	storage Storage
	logger  *zap.Logger
	clicks  chan<- storage.ClickEvent

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewLinks wires the service to the storage and the click-flush worker's
// input channel.
func NewLinks(s Storage, clicks chan<- storage.ClickEvent, logger *zap.Logger) *LinksService {
	return &LinksService{
		storage:  s,
		logger:   logger,
		clicks:   clicks,
		inflight: make(map[string]struct{}),
	}
}

func (s *LinksService) ownedProfile(ctx context.Context, userID string) (*storage.Profile, *storage.User, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.storage.FindUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return profile, user, nil
}

// AddLink appends a link at the end of the caller's list.
func (s *LinksService) AddLink(ctx context.Context, userID, title, url string) (*storage.Link, error) {
	if !IsSafeHTTPURL(url) {
		return nil, ErrUnsafeURL
	}

	profile, user, err := s.ownedProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	links, err := s.storage.LinksByProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	if user.Plan != PlanPremium && len(links) >= FreePlanLinkLimit {
		return nil, ErrPlanLimit
	}

	return s.storage.CreateLink(ctx, storage.Link{
		ProfileID: profile.ID,
		Title:     title,
		URL:       url,
		Order:     len(links) + 1,
	})
}

// Links returns the caller's links in display order.
func (s *LinksService) Links(ctx context.Context, userID string) ([]storage.Link, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.storage.LinksByProfile(ctx, profile.ID)
}

// UpdateLink edits display fields of one owned link.
func (s *LinksService) UpdateLink(ctx context.Context, userID, linkID, title, url string) (*storage.Link, error) {
	if !IsSafeHTTPURL(url) {
		return nil, ErrUnsafeURL
	}

	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	link, err := s.storage.FindLink(ctx, profile.ID, linkID)
	if err != nil {
		return nil, err
	}

	link.Title = title
	link.URL = url
	if err := s.storage.UpdateLink(ctx, *link); err != nil {
		return nil, err
	}
	return link, nil
}

// DeleteLink removes one owned link and renumbers the remainder so the
// order sequence stays dense.
func (s *LinksService) DeleteLink(ctx context.Context, userID, linkID string) error {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteLink(ctx, profile.ID, linkID); err != nil {
		return err
	}

	links, err := s.storage.LinksByProfile(ctx, profile.ID)
	if err != nil {
		return err
	}
	for i, l := range links {
		if l.Order != i+1 {
			if err := s.storage.UpdateLinkOrder(ctx, profile.ID, l.ID, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReorderLinks moves the caller's link at index from to index to and
// persists the dense renumbering. A second reorder for the same profile
// while one is committing returns ErrReorderInFlight.
func (s *LinksService) ReorderLinks(ctx context.Context, userID string, from, to int) ([]storage.Link, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, busy := s.inflight[profile.ID]; busy {
		s.mu.Unlock()
		return nil, ErrReorderInFlight
	}
	s.inflight[profile.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, profile.ID)
		s.mu.Unlock()
	}()

	links, err := s.storage.LinksByProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	profileID := profile.ID
	ctrl := NewReorderController(links,
		func(l *storage.Link, order int) { l.Order = order },
		func(ctx context.Context, l storage.Link) error {
			return s.storage.UpdateLinkOrder(ctx, profileID, l.ID, l.Order)
		},
		s.logger,
	)

	if err := ctrl.Reorder(ctx, from, to); err != nil {
		return nil, err
	}
	return ctrl.Items(), nil
}

// RecordRedirect resolves a public link, queues a click event for the
// batch flush worker and returns the target URL.
func (s *LinksService) RecordRedirect(ctx context.Context, slug, linkID, referrer string) (string, error) {
	profile, err := s.storage.FindProfileBySlug(ctx, slug)
	if err != nil {
		return "", err
	}

	link, err := s.storage.FindLink(ctx, profile.ID, linkID)
	if err != nil {
		return "", err
	}

	if s.clicks != nil {
		select {
		case s.clicks <- storage.ClickEvent{
			LinkID:     link.ID,
			ProfileID:  profile.ID,
			Referrer:   referrer,
			OccurredAt: time.Now(),
		}:
		default:
			// Dropping a click beats blocking the redirect.
			s.logger.Warn("click channel full, event dropped", zap.String("linkID", link.ID))
		}
	}

	return link.URL, nil
}
