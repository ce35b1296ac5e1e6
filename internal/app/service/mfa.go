package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

var (
	// ErrNoFactors means the user has no enrolled TOTP factor.
	ErrNoFactors = errors.New("no MFA factors enrolled")
	// ErrCodeInvalid means the supplied code did not verify.
	ErrCodeInvalid = errors.New("invalid MFA code")
	// ErrChallengeNotFound means the challenge is unknown or expired.
	ErrChallengeNotFound = errors.New("challenge not found or expired")
)

// challengeTTL bounds how long an issued challenge stays verifiable.
const challengeTTL = 5 * time.Minute

// FactorStore is the persistence surface the MFA service needs.
type FactorStore interface {
	CreateMFAFactor(context.Context, storage.MFAFactor) (*storage.MFAFactor, error)
	MFAFactorsByUser(context.Context, string) ([]storage.MFAFactor, error)
}

type mfaChallenge struct {
	factor    storage.MFAFactor
	expiresAt time.Time
}

// MFAService manages TOTP factor enrollment and the challenge/verify
// flow. Challenges are process-local and short-lived.
type MFAService struct {
	store  FactorStore
	issuer string
	logger *zap.Logger

	mu         sync.Mutex
	challenges map[string]mfaChallenge
}

func NewMFA(store FactorStore, issuer string, logger *zap.Logger) *MFAService {
	return &MFAService{
		store:      store,
		issuer:     issuer,
		logger:     logger,
		challenges: make(map[string]mfaChallenge),
	}
}

// GenerateSecret creates a fresh TOTP secret for enrollment. The
// otpauth URL is what the user's authenticator app consumes.
func (s *MFAService) GenerateSecret(accountName string) (secret, otpauthURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// Enroll verifies the first code against the pending secret and, on
// success, persists the factor. A wrong code returns ErrCodeInvalid and
// nothing is stored.
func (s *MFAService) Enroll(ctx context.Context, userID, secret, code, friendlyName string) (*storage.MFAFactor, error) {
	if !totp.Validate(code, secret) {
		return nil, ErrCodeInvalid
	}

	factor, err := s.store.CreateMFAFactor(ctx, storage.MFAFactor{
		UserID:       userID,
		Secret:       secret,
		FriendlyName: friendlyName,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("MFA factor enrolled", zap.String("userID", userID))
	return factor, nil
}

// Factors lists the user's enrolled factors, oldest first.
func (s *MFAService) Factors(ctx context.Context, userID string) ([]storage.MFAFactor, error) {
	return s.store.MFAFactorsByUser(ctx, userID)
}

// Challenge issues a short-lived challenge against the given factor and
// returns its ID. Verification must reference the same challenge.
func (s *MFAService) Challenge(factor storage.MFAFactor) (string, error) {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[id] = mfaChallenge{
		factor:    factor,
		expiresAt: time.Now().Add(challengeTTL),
	}
	return id, nil
}

// Verify checks the code against the challenged factor. The challenge
// is consumed whether or not the code matches.
func (s *MFAService) Verify(challengeID, code string) error {
	s.mu.Lock()
	ch, ok := s.challenges[challengeID]
	delete(s.challenges, challengeID)
	s.mu.Unlock()

	if !ok || time.Now().After(ch.expiresAt) {
		return ErrChallengeNotFound
	}

	if !totp.Validate(code, ch.factor.Secret) {
		return ErrCodeInvalid
	}

	return nil
}
