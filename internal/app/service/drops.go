package service

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// ObjectStore is the file storage surface submissions are written to.
type ObjectStore interface {
	Save(ctx context.Context, ownerID, filename string, r io.Reader) (key string, size int64, err error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// DropsService manages a profile's file-drop inboxes and the files
// visitors submit to them.
type DropsService struct {
	storage Storage
	objects ObjectStore
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewDrops(s Storage, objects ObjectStore, logger *zap.Logger) *DropsService {
	return &DropsService{
		storage:  s,
		objects:  objects,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// AddDrop appends a drop at the end of the caller's list.
func (s *DropsService) AddDrop(ctx context.Context, userID, title, description string) (*storage.Drop, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.storage.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	drops, err := s.storage.DropsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	if user.Plan != PlanPremium && len(drops) >= FreePlanDropLimit {
		return nil, ErrPlanLimit
	}

	return s.storage.CreateDrop(ctx, storage.Drop{
		ProfileID:   profile.ID,
		Title:       title,
		Description: description,
		Order:       len(drops) + 1,
	})
}

// Drops returns the caller's drops in display order.
func (s *DropsService) Drops(ctx context.Context, userID string) ([]storage.Drop, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.storage.DropsByProfile(ctx, profile.ID)
}

// UpdateDrop edits display fields of one owned drop.
func (s *DropsService) UpdateDrop(ctx context.Context, userID, dropID, title, description string) (*storage.Drop, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	drop, err := s.storage.FindDrop(ctx, profile.ID, dropID)
	if err != nil {
		return nil, err
	}

	drop.Title = title
	drop.Description = description
	if err := s.storage.UpdateDrop(ctx, *drop); err != nil {
		return nil, err
	}
	return drop, nil
}

// DeleteDrop removes one owned drop and keeps the order sequence dense.
func (s *DropsService) DeleteDrop(ctx context.Context, userID, dropID string) error {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteDrop(ctx, profile.ID, dropID); err != nil {
		return err
	}

	drops, err := s.storage.DropsByProfile(ctx, profile.ID)
	if err != nil {
		return err
	}
	for i, d := range drops {
		if d.Order != i+1 {
			if err := s.storage.UpdateDropOrder(ctx, profile.ID, d.ID, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReorderDrops mirrors LinksService.ReorderLinks for drops.
func (s *DropsService) ReorderDrops(ctx context.Context, userID string, from, to int) ([]storage.Drop, error) {
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

	drops, err := s.storage.DropsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	profileID := profile.ID
	ctrl := NewReorderController(drops,
		func(d *storage.Drop, order int) { d.Order = order },
		func(ctx context.Context, d storage.Drop) error {
			return s.storage.UpdateDropOrder(ctx, profileID, d.ID, d.Order)
		},
		s.logger,
	)

	if err := ctrl.Reorder(ctx, from, to); err != nil {
		return nil, err
	}
	return ctrl.Items(), nil
}

// Submit stores a visitor's file in the object store and records the
// submission row. The object key is namespaced by the owning user.
func (s *DropsService) Submit(ctx context.Context, slug, dropID, filename string, r io.Reader) (*storage.Submission, error) {
	profile, err := s.storage.FindProfileBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	drop, err := s.storage.FindDrop(ctx, profile.ID, dropID)
	if err != nil {
		return nil, err
	}

	key, size, err := s.objects.Save(ctx, profile.UserID, filename, r)
	if err != nil {
		return nil, err
	}

	submission, err := s.storage.CreateSubmission(ctx, storage.Submission{
		DropID:    drop.ID,
		ProfileID: profile.ID,
		FileKey:   key,
		FileName:  filename,
		Size:      size,
	})
	if err != nil {
		// The row is the source of truth; an orphaned object is
		// cleaned up immediately rather than left behind.
		if rerr := s.objects.Remove(ctx, key); rerr != nil {
			s.logger.Warn("orphaned object cleanup failed", zap.String("key", key), zap.Error(rerr))
		}
		return nil, err
	}

	s.logger.Info("submission stored",
		zap.String("drop", drop.ID),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return submission, nil
}

// Submissions lists the caller's received files, oldest first, with
// public URLs resolved.
func (s *DropsService) Submissions(ctx context.Context, userID string) ([]storage.Submission, []string, error) {
	profile, err := s.storage.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	subs, err := s.storage.SubmissionsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, nil, err
	}

	urls := make([]string, len(subs))
	for i, sub := range subs {
		urls[i] = s.objects.PublicURL(sub.FileKey)
	}
	return subs, urls, nil
}
