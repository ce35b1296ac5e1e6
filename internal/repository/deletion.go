package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// deletion order is child tables before parents so foreign keys hold at
// every step.
var deleteStatements = []struct {
	query string
	arg   string // "user" or "profile"
}{
	{`DELETE FROM preferences WHERE user_id = $1;`, "user"},
	{`DELETE FROM export_audit WHERE user_id = $1;`, "user"},
	{`DELETE FROM sessions WHERE user_id = $1;`, "user"},
	{`DELETE FROM login_history WHERE user_id = $1;`, "user"},
	{`DELETE FROM mfa_factors WHERE user_id = $1;`, "user"},
	{`DELETE FROM link_clicks WHERE profile_id = $1;`, "profile"},
	{`DELETE FROM submissions WHERE profile_id = $1;`, "profile"},
	{`DELETE FROM custom_domains WHERE profile_id = $1;`, "profile"},
	{`DELETE FROM links WHERE profile_id = $1;`, "profile"},
	{`DELETE FROM drops WHERE profile_id = $1;`, "profile"},
	{`DELETE FROM profiles WHERE user_id = $1;`, "user"},
	{`DELETE FROM users WHERE id = $1;`, "user"},
}

// DeleteAccount removes every row belonging to the user in one
// transaction. Counts are gathered before the destructive statements so
// the caller sees exactly what was removed.
func (r *Repository) DeleteAccount(ctx context.Context, userID string) (*storage.DeletionStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var profileID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM profiles WHERE user_id = $1;`, userID).Scan(&profileID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	stats, err := gatherStats(ctx, tx, userID, profileID)
	if err != nil {
		return nil, err
	}

	for _, st := range deleteStatements {
		arg := userID
		if st.arg == "profile" {
			if profileID == "" {
				continue
			}
			arg = profileID
		}
		if _, err := tx.ExecContext(ctx, st.query, arg); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}

func gatherStats(ctx context.Context, tx *sql.Tx, userID, profileID string) (*storage.DeletionStats, error) {
	var s storage.DeletionStats

	userCounts := []struct {
		table string
		dst   *int
	}{
		{"preferences", &s.Preferences},
		{"sessions", &s.Sessions},
		{"login_history", &s.LoginHistory},
		{"export_audit", &s.ExportAudit},
		{"mfa_factors", &s.MFAFactors},
	}
	for _, c := range userCounts {
		row := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM `+c.table+` WHERE user_id = $1;`, userID)
		if err := row.Scan(c.dst); err != nil {
			return nil, err
		}
	}

	row := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM profiles WHERE user_id = $1;`, userID)
	if err := row.Scan(&s.Profiles); err != nil {
		return nil, err
	}

	if profileID != "" {
		profileCounts := []struct {
			table string
			dst   *int
		}{
			{"links", &s.Links},
			{"drops", &s.Drops},
			{"submissions", &s.Submissions},
			{"link_clicks", &s.LinkClicks},
			{"custom_domains", &s.CustomDomains},
		}
		for _, c := range profileCounts {
			row := tx.QueryRowContext(ctx,
				`SELECT count(*) FROM `+c.table+` WHERE profile_id = $1;`, profileID)
			if err := row.Scan(c.dst); err != nil {
				return nil, err
			}
		}
	}

	return &s, nil
}
