package storage

import "time"

// User is the account owner. One user owns exactly one profile.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Plan       string    `json:"plan"`
	CustomerID string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is the public-facing page addressed by its slug.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Link is a reorderable outbound link on a profile page.
// Order values within one profile form a dense 1..N sequence.
type Link struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Drop is a reorderable file inbox visitors can submit files to.
type Drop struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

// Submission is one file a visitor uploaded to a drop.
type Submission struct {
	ID        string    `json:"id"`
	DropID    string    `json:"drop_id"`
	ProfileID string    `json:"profile_id"`
	FileKey   string    `json:"file_key"`
	FileName  string    `json:"file_name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ClickEvent is a single recorded redirect through a profile link.
type ClickEvent struct {
	ID         string    `json:"id"`
	LinkID     string    `json:"link_id"`
	ProfileID  string    `json:"profile_id"`
	Referrer   string    `json:"referrer"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CustomDomain maps an external domain onto a profile.
type CustomDomain struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Domain    string `json:"domain"`
}

// MFAFactor is an enrolled TOTP second factor.
type MFAFactor struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Secret       string    `json:"-"`
	FriendlyName string    `json:"friendly_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a bookkeeping row written on every sign-in.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AAL       string    `json:"aal"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginEvent is a login-history row.
type LoginEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	IP         string    `json:"ip"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Totals are the aggregate row counts served on the trusted-subnet
// stats endpoint.
type Totals struct {
	Profiles int `json:"profiles"`
	Links    int `json:"links"`
	Drops    int `json:"drops"`
}

// DeletionStats counts the rows removed by an account deletion,
// gathered before the destructive step so the caller sees exactly
// what was destroyed.
type DeletionStats struct {
	Preferences   int `json:"preferences"`
	Sessions      int `json:"sessions"`
	LoginHistory  int `json:"login_history"`
	ExportAudit   int `json:"export_audit"`
	Profiles      int `json:"profiles"`
	Links         int `json:"links"`
	Drops         int `json:"drops"`
	Submissions   int `json:"submissions"`
	LinkClicks    int `json:"link_clicks"`
	CustomDomains int `json:"custom_domains"`
	MFAFactors    int `json:"mfa_factors"`
}
