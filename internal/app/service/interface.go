package service

import (
	"context"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// Storage is the full persistence surface consumed by the service layer.
// Implemented by repository.Repository (Postgres) and storage.MemoryStorage.
type Storage interface {
	CreateUser(context.Context, storage.User) (*storage.User, error)
	FindUserByEmail(context.Context, string) (*storage.User, error)
	FindUserByID(context.Context, string) (*storage.User, error)
	SetUserCustomerID(ctx context.Context, userID, customerID string) error

	CreateProfile(context.Context, storage.Profile) (*storage.Profile, error)
	FindProfileBySlug(context.Context, string) (*storage.Profile, error)
	FindProfileByUserID(context.Context, string) (*storage.Profile, error)
	UpdateProfile(context.Context, storage.Profile) error
	SlugExists(context.Context, string) (bool, error)

	CreateLink(context.Context, storage.Link) (*storage.Link, error)
	FindLink(ctx context.Context, profileID, linkID string) (*storage.Link, error)
	UpdateLink(context.Context, storage.Link) error
	UpdateLinkOrder(ctx context.Context, profileID, linkID string, order int) error
	DeleteLink(ctx context.Context, profileID, linkID string) error
	LinksByProfile(context.Context, string) ([]storage.Link, error)

	CreateDrop(context.Context, storage.Drop) (*storage.Drop, error)
	FindDrop(ctx context.Context, profileID, dropID string) (*storage.Drop, error)
	UpdateDrop(context.Context, storage.Drop) error
	UpdateDropOrder(ctx context.Context, profileID, dropID string, order int) error
	DeleteDrop(ctx context.Context, profileID, dropID string) error
	DropsByProfile(context.Context, string) ([]storage.Drop, error)

	CreateSubmission(context.Context, storage.Submission) (*storage.Submission, error)
	SubmissionsByProfile(context.Context, string) ([]storage.Submission, error)

	InsertClicks(context.Context, []storage.ClickEvent) error

	CreateMFAFactor(context.Context, storage.MFAFactor) (*storage.MFAFactor, error)
	MFAFactorsByUser(context.Context, string) ([]storage.MFAFactor, error)

	CreateSession(context.Context, storage.Session) error
	RecordLogin(context.Context, storage.LoginEvent) error

	DeleteAccount(context.Context, string) (*storage.DeletionStats, error)
	Totals(context.Context) (*storage.Totals, error)
	PingContext(context.Context) error
}

// SlugChecker is the narrow lookup the availability checker needs.
type SlugChecker interface {
	SlugExists(context.Context, string) (bool, error)
}

// AccountDeleter is what the account-deletion handler calls.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, userID, code string) (*storage.DeletionStats, error)
}

// BillingIface creates payment-provider redirect sessions.
type BillingIface interface {
	CheckoutURL(ctx context.Context, userID string) (string, error)
	PortalURL(ctx context.Context, userID string) (string, error)
}
