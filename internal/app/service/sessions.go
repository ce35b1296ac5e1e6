package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// SessionService turns completed identity-provider sign-ins into local
// users and JWT sessions. Session and login-history bookkeeping runs as
// observers on the auth state machine rather than inline.
type SessionService struct {
	storage Storage
	auth    AuthIface
	logger  *zap.Logger
}

func NewSessions(s Storage, auth AuthIface, logger *zap.Logger) *SessionService {
	return &SessionService{
		storage: s,
		auth:    auth,
		logger:  logger,
	}
}

// machineFor builds a state machine whose observers record session and
// login-history rows for the given user.
func (s *SessionService) machineFor(ctx context.Context, userID, ip string) *AuthStateMachine {
	m := NewAuthStateMachine()
	m.Subscribe(func(from, to AuthState, e AuthEvent) {
		switch to {
		case StateAuthenticatedAAL1, StateAuthenticatedAAL2:
			aal := "aal1"
			if to == StateAuthenticatedAAL2 {
				aal = "aal2"
			}
			if err := s.storage.CreateSession(ctx, storage.Session{UserID: userID, AAL: aal}); err != nil {
				s.logger.Warn("session bookkeeping failed", zap.Error(err))
			}
		}
	})
	m.Subscribe(func(from, to AuthState, e AuthEvent) {
		if e == EventSignedInAAL1 {
			if err := s.storage.RecordLogin(ctx, storage.LoginEvent{UserID: userID, IP: ip}); err != nil {
				s.logger.Warn("login history write failed", zap.Error(err))
			}
		}
	})
	return m
}

// CompleteSignIn upserts the user for a verified provider identity and
// issues an aal1 session token.
func (s *SessionService) CompleteSignIn(ctx context.Context, email, name, ip string) (*storage.User, string, error) {
	user, err := s.storage.FindUserByEmail(ctx, email)
	if err != nil {
		user, err = s.storage.CreateUser(ctx, storage.User{
			Email: email,
			Name:  name,
			Plan:  "free",
		})
		if err != nil {
			return nil, "", err
		}
	}

	m := s.machineFor(ctx, user.ID, ip)
	if _, err := m.Apply(EventSignedInAAL1); err != nil {
		return nil, "", err
	}

	token, err := s.auth.BuildJWTString(user.ID, "aal1")
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ElevateToAAL2 issues an aal2 token after a successful MFA
// verification on an aal1 session.
func (s *SessionService) ElevateToAAL2(ctx context.Context, userID, ip string) (string, error) {
	m := s.machineFor(ctx, userID, ip)
	if _, err := m.Apply(EventSignedInAAL1); err != nil {
		return "", err
	}
	if _, err := m.Apply(EventMFARequired); err != nil {
		return "", err
	}
	if _, err := m.Apply(EventMFAVerified); err != nil {
		return "", err
	}

	return s.auth.BuildJWTString(userID, "aal2")
}
