// Package repository is the Postgres implementation of the persistence
// surface, driven through database/sql with the pgx stdlib driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		plan TEXT NOT NULL DEFAULT 'free',
		customer_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		slug TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS links (
		id UUID PRIMARY KEY,
		profile_id UUID NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		position INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS drops (
		id UUID PRIMARY KEY,
		profile_id UUID NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS submissions (
		id UUID PRIMARY KEY,
		drop_id UUID NOT NULL REFERENCES drops(id),
		profile_id UUID NOT NULL REFERENCES profiles(id),
		file_key TEXT NOT NULL,
		file_name TEXT NOT NULL,
		size BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS link_clicks (
		id UUID PRIMARY KEY,
		link_id UUID NOT NULL,
		profile_id UUID NOT NULL,
		referrer TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS custom_domains (
		id UUID PRIMARY KEY,
		profile_id UUID NOT NULL REFERENCES profiles(id),
		domain TEXT UNIQUE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS mfa_factors (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		secret TEXT NOT NULL,
		friendly_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		aal TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS login_history (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		ip TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS preferences (
		user_id UUID PRIMARY KEY REFERENCES users(id),
		payload JSONB NOT NULL DEFAULT '{}'
	);
	CREATE TABLE IF NOT EXISTS export_audit (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		requested_at TIMESTAMPTZ NOT NULL
	);`

// InitDB opens the connection pool and creates the schema.
func InitDB(ps string) *sql.DB {
	db, err := sql.Open("pgx", ps)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	if _, err := db.Exec(schema); err != nil {
		log.Fatal(err)
	}

	return db
}

// Repository implements the service storage interface on Postgres.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// mapErr translates driver errors into the storage sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return storage.ErrConflict
	}
	return err
}

func fill(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

func (r *Repository) CreateUser(ctx context.Context, u storage.User) (*storage.User, error) {
	fill(&u.ID, &u.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id, email, name, plan, customer_id, created_at) VALUES ($1, $2, $3, $4, $5, $6);`,
		u.ID, u.Email, u.Name, u.Plan, u.CustomerID, u.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *Repository) findUser(ctx context.Context, where, arg string) (*storage.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, plan, customer_id, created_at FROM users WHERE `+where+` = $1;`, arg)

	var u storage.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Plan, &u.CustomerID, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return r.findUser(ctx, "email", email)
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*storage.User, error) {
	return r.findUser(ctx, "id", id)
}

func (r *Repository) SetUserCustomerID(ctx context.Context, userID, customerID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET customer_id = $2 WHERE id = $1;`, userID, customerID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateProfile(ctx context.Context, p storage.Profile) (*storage.Profile, error) {
	fill(&p.ID, &p.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles(id, user_id, slug, display_name, bio, avatar_url, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		p.ID, p.UserID, p.Slug, p.DisplayName, p.Bio, p.AvatarURL, p.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *Repository) findProfile(ctx context.Context, where, arg string) (*storage.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, slug, display_name, bio, avatar_url, created_at FROM profiles WHERE `+where+` = $1;`, arg)

	var p storage.Profile
	if err := row.Scan(&p.ID, &p.UserID, &p.Slug, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *Repository) FindProfileBySlug(ctx context.Context, slug string) (*storage.Profile, error) {
	return r.findProfile(ctx, "slug", slug)
}

func (r *Repository) FindProfileByUserID(ctx context.Context, userID string) (*storage.Profile, error) {
	return r.findProfile(ctx, "user_id", userID)
}

func (r *Repository) UpdateProfile(ctx context.Context, p storage.Profile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET display_name = $2, bio = $3, avatar_url = $4 WHERE id = $1;`,
		p.ID, p.DisplayName, p.Bio, p.AvatarURL,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE slug = $1);`, slug)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Repository) CreateLink(ctx context.Context, l storage.Link) (*storage.Link, error) {
	fill(&l.ID, &l.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO links(id, profile_id, title, url, position, created_at) VALUES ($1, $2, $3, $4, $5, $6);`,
		l.ID, l.ProfileID, l.Title, l.URL, l.Order, l.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *Repository) FindLink(ctx context.Context, profileID, linkID string) (*storage.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, profile_id, title, url, position, created_at FROM links WHERE profile_id = $1 AND id = $2;`,
		profileID, linkID,
	)

	var l storage.Link
	if err := row.Scan(&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Order, &l.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *Repository) UpdateLink(ctx context.Context, l storage.Link) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE links SET title = $3, url = $4 WHERE profile_id = $1 AND id = $2;`,
		l.ProfileID, l.ID, l.Title, l.URL,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateLinkOrder(ctx context.Context, profileID, linkID string, order int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE links SET position = $3 WHERE profile_id = $1 AND id = $2;`,
		profileID, linkID, order,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteLink(ctx context.Context, profileID, linkID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM links WHERE profile_id = $1 AND id = $2;`, profileID, linkID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) LinksByProfile(ctx context.Context, profileID string) ([]storage.Link, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, profile_id, title, url, position, created_at FROM links WHERE profile_id = $1 ORDER BY position;`,
		profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]storage.Link, 0)
	for rows.Next() {
		var l storage.Link
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Order, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *Repository) CreateDrop(ctx context.Context, d storage.Drop) (*storage.Drop, error) {
	fill(&d.ID, &d.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO drops(id, profile_id, title, description, position, created_at) VALUES ($1, $2, $3, $4, $5, $6);`,
		d.ID, d.ProfileID, d.Title, d.Description, d.Order, d.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (r *Repository) FindDrop(ctx context.Context, profileID, dropID string) (*storage.Drop, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, profile_id, title, description, position, created_at FROM drops WHERE profile_id = $1 AND id = $2;`,
		profileID, dropID,
	)

	var d storage.Drop
	if err := row.Scan(&d.ID, &d.ProfileID, &d.Title, &d.Description, &d.Order, &d.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (r *Repository) UpdateDrop(ctx context.Context, d storage.Drop) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE drops SET title = $3, description = $4 WHERE profile_id = $1 AND id = $2;`,
		d.ProfileID, d.ID, d.Title, d.Description,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateDropOrder(ctx context.Context, profileID, dropID string, order int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE drops SET position = $3 WHERE profile_id = $1 AND id = $2;`,
		profileID, dropID, order,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteDrop(ctx context.Context, profileID, dropID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM drops WHERE profile_id = $1 AND id = $2;`, profileID, dropID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) DropsByProfile(ctx context.Context, profileID string) ([]storage.Drop, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, profile_id, title, description, position, created_at FROM drops WHERE profile_id = $1 ORDER BY position;`,
		profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drops := make([]storage.Drop, 0)
	for rows.Next() {
		var d storage.Drop
		if err := rows.Scan(&d.ID, &d.ProfileID, &d.Title, &d.Description, &d.Order, &d.CreatedAt); err != nil {
			return nil, err
		}
		drops = append(drops, d)
	}
	return drops, rows.Err()
}

func (r *Repository) CreateSubmission(ctx context.Context, s storage.Submission) (*storage.Submission, error) {
	fill(&s.ID, &s.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO submissions(id, drop_id, profile_id, file_key, file_name, size, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		s.ID, s.DropID, s.ProfileID, s.FileKey, s.FileName, s.Size, s.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *Repository) SubmissionsByProfile(ctx context.Context, profileID string) ([]storage.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, drop_id, profile_id, file_key, file_name, size, created_at FROM submissions WHERE profile_id = $1 ORDER BY created_at DESC;`,
		profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]storage.Submission, 0)
	for rows.Next() {
		var s storage.Submission
		if err := rows.Scan(&s.ID, &s.DropID, &s.ProfileID, &s.FileKey, &s.FileName, &s.Size, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *Repository) InsertClicks(ctx context.Context, events []storage.ClickEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO link_clicks(id, link_id, profile_id, referrer, occurred_at) VALUES ($1, $2, $3, $4, $5);`,
			e.ID, e.LinkID, e.ProfileID, e.Referrer, e.OccurredAt,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) CreateMFAFactor(ctx context.Context, f storage.MFAFactor) (*storage.MFAFactor, error) {
	fill(&f.ID, &f.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mfa_factors(id, user_id, secret, friendly_name, created_at) VALUES ($1, $2, $3, $4, $5);`,
		f.ID, f.UserID, f.Secret, f.FriendlyName, f.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

func (r *Repository) MFAFactorsByUser(ctx context.Context, userID string) ([]storage.MFAFactor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, secret, friendly_name, created_at FROM mfa_factors WHERE user_id = $1;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	factors := make([]storage.MFAFactor, 0)
	for rows.Next() {
		var f storage.MFAFactor
		if err := rows.Scan(&f.ID, &f.UserID, &f.Secret, &f.FriendlyName, &f.CreatedAt); err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

func (r *Repository) CreateSession(ctx context.Context, s storage.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions(id, user_id, aal, created_at) VALUES ($1, $2, $3, $4);`,
		s.ID, s.UserID, s.AAL, s.CreatedAt,
	)
	return mapErr(err)
}

func (r *Repository) RecordLogin(ctx context.Context, e storage.LoginEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_history(id, user_id, ip, occurred_at) VALUES ($1, $2, $3, $4);`,
		e.ID, e.UserID, e.IP, e.OccurredAt,
	)
	return mapErr(err)
}

func (r *Repository) Totals(ctx context.Context) (*storage.Totals, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM profiles), (SELECT count(*) FROM links), (SELECT count(*) FROM drops);`)

	var t storage.Totals
	if err := row.Scan(&t.Profiles, &t.Links, &t.Drops); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
