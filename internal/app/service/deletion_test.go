package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/models"
	"github.com/linkdropapp/linkdrop/internal/storage"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, email, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, email+": "+subject)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// seedAccount creates a user with a profile, some content and an
// enrolled TOTP factor, returning the factor secret.
func seedAccount(t *testing.T, store *storage.MemoryStorage, userID string) string {
	ctx := context.Background()

	_, err := store.CreateUser(ctx, storage.User{ID: userID, Email: "ada@example.com", Plan: "free"})
	require.NoError(t, err)

	profile, err := store.CreateProfile(ctx, storage.Profile{UserID: userID, Slug: "ada"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = store.CreateLink(ctx, storage.Link{ProfileID: profile.ID, Title: "l", URL: "https://example.com", Order: i + 1})
		require.NoError(t, err)
	}
	_, err = store.CreateDrop(ctx, storage.Drop{ProfileID: profile.ID, Title: "inbox", Order: 1})
	require.NoError(t, err)

	mfa := NewMFA(store, "linkdrop.local", zap.NewNop())
	secret, _, err := mfa.GenerateSecret("ada@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	_, err = mfa.Enroll(ctx, userID, secret, code, "phone")
	require.NoError(t, err)

	return secret
}

func newDeletionService(store *storage.MemoryStorage, notifier Notifier, enabled bool) *DeletionService {
	mfa := NewMFA(store, "linkdrop.local", zap.NewNop())
	return NewDeletion(store, mfa, notifier, enabled, zap.NewNop())
}

func asDeletionError(t *testing.T, err error) *DeletionError {
	var de *DeletionError
	require.True(t, errors.As(err, &de), "expected DeletionError, got %v", err)
	return de
}

func TestDeleteAccountWithoutMFA(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), storage.User{ID: "user-1", Email: "ada@example.com"})
	require.NoError(t, err)

	s := newDeletionService(store, nil, true)

	_, err = s.DeleteAccount(context.Background(), "user-1", "123456")
	de := asDeletionError(t, err)
	assert.Equal(t, models.CodeMFANotEnabled, de.Code)
	assert.Equal(t, http.StatusForbidden, de.Status)

	// The user must still exist.
	_, err = store.FindUserByID(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestDeleteAccountWrongCode(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)
	seedAccount(t, store, "user-1")

	s := newDeletionService(store, nil, true)

	_, err = s.DeleteAccount(context.Background(), "user-1", "000000")
	de := asDeletionError(t, err)
	assert.Equal(t, models.CodeMFACodeInvalid, de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.Status)

	_, err = store.FindUserByID(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestDeleteAccountKillSwitchAfterMFA(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)
	secret := seedAccount(t, store, "user-1")

	s := newDeletionService(store, nil, false)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	_, err = s.DeleteAccount(context.Background(), "user-1", code)
	de := asDeletionError(t, err)
	assert.Equal(t, models.CodeDeleteDisabled, de.Code)
	assert.Equal(t, http.StatusServiceUnavailable, de.Status)

	_, err = store.FindUserByID(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestDeleteAccountSuccess(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)
	secret := seedAccount(t, store, "user-1")
	notifier := &recordingNotifier{}

	s := newDeletionService(store, notifier, true)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	stats, err := s.DeleteAccount(context.Background(), "user-1", code)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 1, stats.Profiles)
	assert.Equal(t, 3, stats.Links)
	assert.Equal(t, 1, stats.Drops)
	assert.Equal(t, 1, stats.MFAFactors)

	_, err = store.FindUserByID(context.Background(), "user-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.FindProfileBySlug(context.Background(), "ada")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Notification is best effort and asynchronous.
	assert.Eventually(t, func() bool { return notifier.count() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestDeleteAccountStoreFailure(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)
	secret := seedAccount(t, store, "user-1")

	mfa := NewMFA(store, "linkdrop.local", zap.NewNop())
	s := NewDeletion(failingDeleteStorage{store}, mfa, nil, true, zap.NewNop())

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	_, err = s.DeleteAccount(context.Background(), "user-1", code)
	de := asDeletionError(t, err)
	assert.Equal(t, models.CodeDeleteFailed, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.Status)
}

// failingDeleteStorage wraps a working store but fails the cascade.
type failingDeleteStorage struct {
	*storage.MemoryStorage
}

func (f failingDeleteStorage) DeleteAccount(ctx context.Context, userID string) (*storage.DeletionStats, error) {
	return nil, errors.New("disk on fire")
}
