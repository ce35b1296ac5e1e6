package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/models"
	"github.com/linkdropapp/linkdrop/internal/storage"
)

// Notifier sends best-effort user notifications. Failures are logged
// and never affect the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, email, subject, body string) error
}

// DeletionError carries the stable machine code and HTTP status for a
// failed deletion step.
type DeletionError struct {
	Code    string
	Status  int
	Message string
	err     error
}

func (e *DeletionError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.err)
	}
	return e.Code
}

func (e *DeletionError) Unwrap() error { return e.err }

// DeletionService irreversibly deletes an account and everything it
// owns. MFA verification strictly precedes the kill-switch check, which
// strictly precedes the destructive step; the cascade itself runs as a
// single transaction in the store.
type DeletionService struct {
	storage  Storage
	mfa      *MFAService
	notifier Notifier
	enabled  bool
	logger   *zap.Logger
}

func NewDeletion(s Storage, mfa *MFAService, notifier Notifier, enabled bool, logger *zap.Logger) *DeletionService {
	return &DeletionService{
		storage:  s,
		mfa:      mfa,
		notifier: notifier,
		enabled:  enabled,
		logger:   logger,
	}
}

// DeleteAccount runs the verification and deletion sequence for userID
// with the supplied TOTP code. The returned stats count the rows
// removed, gathered before the destructive step.
func (s *DeletionService) DeleteAccount(ctx context.Context, userID, code string) (*storage.DeletionStats, error) {
	factors, err := s.mfa.Factors(ctx, userID)
	if err != nil {
		return nil, &DeletionError{
			Code:    models.CodeMFAVerificationFailed,
			Status:  http.StatusInternalServerError,
			Message: "Could not verify MFA factors",
			err:     err,
		}
	}

	if len(factors) == 0 {
		return nil, &DeletionError{
			Code:    models.CodeMFANotEnabled,
			Status:  http.StatusForbidden,
			Message: "MFA must be enabled to delete your account",
		}
	}

	challengeID, err := s.mfa.Challenge(factors[0])
	if err != nil {
		return nil, &DeletionError{
			Code:    models.CodeMFAChallengeFailed,
			Status:  http.StatusInternalServerError,
			Message: "Could not issue MFA challenge",
			err:     err,
		}
	}

	if err := s.mfa.Verify(challengeID, code); err != nil {
		if errors.Is(err, ErrCodeInvalid) {
			return nil, &DeletionError{
				Code:    models.CodeMFACodeInvalid,
				Status:  http.StatusUnauthorized,
				Message: "Invalid MFA code",
			}
		}
		return nil, &DeletionError{
			Code:    models.CodeMFAVerificationFailed,
			Status:  http.StatusInternalServerError,
			Message: "MFA verification failed",
			err:     err,
		}
	}

	// The kill switch is consulted only after MFA succeeds, so the
	// endpoint does not reveal to unverified callers whether deletion
	// is currently enabled.
	if !s.enabled {
		return nil, &DeletionError{
			Code:    models.CodeDeleteDisabled,
			Status:  http.StatusServiceUnavailable,
			Message: "Account deletion is temporarily disabled",
		}
	}

	// Grab the email before the rows are gone.
	var email string
	if user, uerr := s.storage.FindUserByID(ctx, userID); uerr == nil {
		email = user.Email
	}

	stats, err := s.storage.DeleteAccount(ctx, userID)
	if err != nil {
		return nil, &DeletionError{
			Code:    models.CodeDeleteFailed,
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
			err:     err,
		}
	}

	s.logger.Info("account deleted",
		zap.String("userID", userID),
		zap.Int("profiles", stats.Profiles),
		zap.Int("links", stats.Links),
		zap.Int("drops", stats.Drops),
	)

	if s.notifier != nil && email != "" {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if nerr := s.notifier.Notify(nctx, email, "Your account has been deleted",
				"Your linkdrop account and all associated data have been permanently removed."); nerr != nil {
				s.logger.Warn("deletion notification failed", zap.Error(nerr))
			}
		}()
	}

	return stats, nil
}
