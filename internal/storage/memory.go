package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint is violated.
var ErrConflict = errors.New("data conflict")

// MemoryStorage keeps everything in process memory. Used when no
// database DSN is configured and throughout the test suite.
type MemoryStorage struct {
	mu sync.RWMutex

	users       map[string]User
	profiles    map[string]Profile
	links       map[string]Link
	drops       map[string]Drop
	submissions map[string]Submission
	clicks      []ClickEvent
	domains     map[string]CustomDomain
	factors     map[string]MFAFactor
	sessions    []Session
	logins      []LoginEvent
	prefs       map[string]int
	exportAudit map[string]int
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:       make(map[string]User),
		profiles:    make(map[string]Profile),
		links:       make(map[string]Link),
		drops:       make(map[string]Drop),
		submissions: make(map[string]Submission),
		domains:     make(map[string]CustomDomain),
		factors:     make(map[string]MFAFactor),
		prefs:       make(map[string]int),
		exportAudit: make(map[string]int),
	}, nil
}

func (m *MemoryStorage) CreateUser(_ context.Context, u User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, ErrConflict
		}
	}

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *MemoryStorage) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) FindUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStorage) SetUserCustomerID(_ context.Context, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.CustomerID = customerID
	m.users[userID] = u
	return nil
}

func (m *MemoryStorage) CreateProfile(_ context.Context, p Profile) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.profiles {
		if existing.Slug == p.Slug {
			return nil, ErrConflict
		}
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.profiles[p.ID] = p
	return &p, nil
}

func (m *MemoryStorage) FindProfileBySlug(_ context.Context, slug string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) FindProfileByUserID(_ context.Context, userID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) UpdateProfile(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *MemoryStorage) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) CreateLink(_ context.Context, l Link) (*Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	m.links[l.ID] = l
	return &l, nil
}

func (m *MemoryStorage) FindLink(_ context.Context, profileID, linkID string) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.links[linkID]
	if !ok || l.ProfileID != profileID {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *MemoryStorage) UpdateLink(_ context.Context, l Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.links[l.ID]
	if !ok || existing.ProfileID != l.ProfileID {
		return ErrNotFound
	}
	m.links[l.ID] = l
	return nil
}

func (m *MemoryStorage) UpdateLinkOrder(_ context.Context, profileID, linkID string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[linkID]
	if !ok || l.ProfileID != profileID {
		return ErrNotFound
	}
	l.Order = order
	m.links[linkID] = l
	return nil
}

func (m *MemoryStorage) DeleteLink(_ context.Context, profileID, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[linkID]
	if !ok || l.ProfileID != profileID {
		return ErrNotFound
	}
	delete(m.links, linkID)
	return nil
}

func (m *MemoryStorage) LinksByProfile(_ context.Context, profileID string) ([]Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Link, 0)
	for _, l := range m.links {
		if l.ProfileID == profileID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (m *MemoryStorage) CreateDrop(_ context.Context, d Drop) (*Drop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	m.drops[d.ID] = d
	return &d, nil
}

func (m *MemoryStorage) FindDrop(_ context.Context, profileID, dropID string) (*Drop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drops[dropID]
	if !ok || d.ProfileID != profileID {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *MemoryStorage) UpdateDrop(_ context.Context, d Drop) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.drops[d.ID]
	if !ok || existing.ProfileID != d.ProfileID {
		return ErrNotFound
	}
	m.drops[d.ID] = d
	return nil
}

func (m *MemoryStorage) UpdateDropOrder(_ context.Context, profileID, dropID string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drops[dropID]
	if !ok || d.ProfileID != profileID {
		return ErrNotFound
	}
	d.Order = order
	m.drops[dropID] = d
	return nil
}

func (m *MemoryStorage) DeleteDrop(_ context.Context, profileID, dropID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drops[dropID]
	if !ok || d.ProfileID != profileID {
		return ErrNotFound
	}
	delete(m.drops, dropID)
	return nil
}

func (m *MemoryStorage) DropsByProfile(_ context.Context, profileID string) ([]Drop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Drop, 0)
	for _, d := range m.drops {
		if d.ProfileID == profileID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (m *MemoryStorage) CreateSubmission(_ context.Context, s Submission) (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.submissions[s.ID] = s
	return &s, nil
}

func (m *MemoryStorage) SubmissionsByProfile(_ context.Context, profileID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Submission, 0)
	for _, s := range m.submissions {
		if s.ProfileID == profileID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MemoryStorage) InsertClicks(_ context.Context, events []ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		m.clicks = append(m.clicks, e)
	}
	return nil
}

func (m *MemoryStorage) CreateMFAFactor(_ context.Context, f MFAFactor) (*MFAFactor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	m.factors[f.ID] = f
	return &f, nil
}

func (m *MemoryStorage) MFAFactorsByUser(_ context.Context, userID string) ([]MFAFactor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]MFAFactor, 0)
	for _, f := range m.factors {
		if f.UserID == userID {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MemoryStorage) CreateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *MemoryStorage) RecordLogin(_ context.Context, e LoginEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	m.logins = append(m.logins, e)
	return nil
}

// DeleteAccount removes every row owned directly or transitively by the
// user. Counts are gathered first so the stats reflect what was removed.
func (m *MemoryStorage) DeleteAccount(_ context.Context, userID string) (*DeletionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, ErrNotFound
	}

	stats := &DeletionStats{
		Preferences: m.prefs[userID],
		ExportAudit: m.exportAudit[userID],
	}

	profileIDs := make(map[string]bool)
	for id, p := range m.profiles {
		if p.UserID == userID {
			profileIDs[id] = true
		}
	}
	stats.Profiles = len(profileIDs)

	for _, s := range m.sessions {
		if s.UserID == userID {
			stats.Sessions++
		}
	}
	for _, e := range m.logins {
		if e.UserID == userID {
			stats.LoginHistory++
		}
	}
	for _, l := range m.links {
		if profileIDs[l.ProfileID] {
			stats.Links++
		}
	}
	for _, d := range m.drops {
		if profileIDs[d.ProfileID] {
			stats.Drops++
		}
	}
	for _, s := range m.submissions {
		if profileIDs[s.ProfileID] {
			stats.Submissions++
		}
	}
	for _, c := range m.clicks {
		if profileIDs[c.ProfileID] {
			stats.LinkClicks++
		}
	}
	for _, d := range m.domains {
		if profileIDs[d.ProfileID] {
			stats.CustomDomains++
		}
	}
	for _, f := range m.factors {
		if f.UserID == userID {
			stats.MFAFactors++
		}
	}

	delete(m.prefs, userID)
	delete(m.exportAudit, userID)

	kept := m.sessions[:0]
	for _, s := range m.sessions {
		if s.UserID != userID {
			kept = append(kept, s)
		}
	}
	m.sessions = kept

	keptLogins := m.logins[:0]
	for _, e := range m.logins {
		if e.UserID != userID {
			keptLogins = append(keptLogins, e)
		}
	}
	m.logins = keptLogins

	for id, l := range m.links {
		if profileIDs[l.ProfileID] {
			delete(m.links, id)
		}
	}
	for id, d := range m.drops {
		if profileIDs[d.ProfileID] {
			delete(m.drops, id)
		}
	}
	for id, s := range m.submissions {
		if profileIDs[s.ProfileID] {
			delete(m.submissions, id)
		}
	}
	keptClicks := m.clicks[:0]
	for _, c := range m.clicks {
		if !profileIDs[c.ProfileID] {
			keptClicks = append(keptClicks, c)
		}
	}
	m.clicks = keptClicks

	for id, d := range m.domains {
		if profileIDs[d.ProfileID] {
			delete(m.domains, id)
		}
	}
	for id, f := range m.factors {
		if f.UserID == userID {
			delete(m.factors, id)
		}
	}
	for id := range profileIDs {
		delete(m.profiles, id)
	}
	delete(m.users, userID)

	return stats, nil
}

func (m *MemoryStorage) Totals(_ context.Context) (*Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Totals{
		Profiles: len(m.profiles),
		Links:    len(m.links),
		Drops:    len(m.drops),
	}, nil
}

func (m *MemoryStorage) PingContext(_ context.Context) error {
	return nil
}
