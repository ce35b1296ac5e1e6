// Package models defines the request and response data structures used
// for communication between clients and the linkdrop API.
package models

import "github.com/linkdropapp/linkdrop/internal/storage"

// Stable machine-readable error codes. Clients branch on the Error field
// of ErrorResponse; the Message field is for humans and may change.
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeMFACodeRequired       = "MFA_CODE_REQUIRED"
	CodeMFANotEnabled         = "MFA_NOT_ENABLED"
	CodeMFACodeInvalid        = "MFA_CODE_INVALID"
	CodeMFAChallengeFailed    = "MFA_CHALLENGE_FAILED"
	CodeMFAVerificationFailed = "MFA_VERIFICATION_FAILED"
	CodeDeleteDisabled        = "DELETE_ACCOUNT_DISABLED"
	CodeDeleteFailed          = "DELETE_FAILED"
	CodeUnauthorized          = "Unauthorized"
	CodeInternalError         = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON error envelope used by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DeleteAccountRequest is the body of POST /api/account/delete.
type DeleteAccountRequest struct {
	MFACode string `json:"mfa_code"`
}

// DeleteAccountResponse reports a completed deletion.
type DeleteAccountResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Stats   *storage.DeletionStats `json:"stats"`
}

// AvailabilityResponse is the result of a username availability check.
type AvailabilityResponse struct {
	Available *bool  `json:"available"`
	Error     string `json:"error,omitempty"`
}

// CreateProfileRequest creates the caller's profile.
type CreateProfileRequest struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// UpdateProfileRequest updates display fields on the caller's profile.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// PublicProfileResponse is the public page payload for one slug.
type PublicProfileResponse struct {
	Profile storage.Profile `json:"profile"`
	Links   []storage.Link  `json:"links"`
	Drops   []storage.Drop  `json:"drops"`
}

// CreateLinkRequest adds a link to a profile.
type CreateLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// UpdateLinkRequest edits link display fields.
type UpdateLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CreateDropRequest adds a file-drop inbox to a profile.
type CreateDropRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateDropRequest edits drop display fields.
type UpdateDropRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReorderRequest moves the item at From to position To (0-based indexes
// into the current display order).
type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// BillingSessionResponse carries the payment-provider redirect URL.
type BillingSessionResponse struct {
	URL string `json:"url"`
}

// EnrollMFARequest verifies the first code against a fresh TOTP secret.
type EnrollMFARequest struct {
	Secret       string `json:"secret"`
	Code         string `json:"code"`
	FriendlyName string `json:"friendly_name"`
}

// SubmissionsResponse lists received files with resolved public URLs,
// index-aligned with Submissions.
type SubmissionsResponse struct {
	Submissions []storage.Submission `json:"submissions"`
	URLs        []string             `json:"urls"`
}

// MFASetupResponse carries a fresh TOTP secret for enrollment.
type MFASetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// MFAVerifyRequest verifies a code against the first enrolled factor.
type MFAVerifyRequest struct {
	Code string `json:"code"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// StatsResponse is the trusted-subnet internal stats payload.
type StatsResponse struct {
	Profiles int `json:"profiles"`
	Links    int `json:"links"`
	Drops    int `json:"drops"`
}
