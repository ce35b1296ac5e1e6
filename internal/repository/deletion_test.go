package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectUserCounts(mock sqlmock.Sqlmock, counts map[string]int) {
	for _, table := range []string{"preferences", "sessions", "login_history", "export_audit", "mfa_factors"} {
		mock.ExpectQuery(`SELECT count\(\*\) FROM ` + table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(counts[table]))
	}
}

func expectProfileCounts(mock sqlmock.Sqlmock, counts map[string]int) {
	for _, table := range []string{"links", "drops", "submissions", "link_clicks", "custom_domains"} {
		mock.ExpectQuery(`SELECT count\(\*\) FROM ` + table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(counts[table]))
	}
}

func TestDeleteAccount(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM profiles WHERE user_id = \$1;`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("profile-1"))

	expectUserCounts(mock, map[string]int{"sessions": 2, "login_history": 5, "mfa_factors": 1})
	mock.ExpectQuery(`SELECT count\(\*\) FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	expectProfileCounts(mock, map[string]int{"links": 4, "drops": 2, "submissions": 3})

	for range deleteStatements {
		mock.ExpectExec(`DELETE FROM`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	stats, err := repo.DeleteAccount(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 5, stats.LoginHistory)
	assert.Equal(t, 1, stats.MFAFactors)
	assert.Equal(t, 1, stats.Profiles)
	assert.Equal(t, 4, stats.Links)
	assert.Equal(t, 2, stats.Drops)
	assert.Equal(t, 3, stats.Submissions)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountNoProfile(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM profiles WHERE user_id = \$1;`).
		WithArgs("user-2").
		WillReturnError(sql.ErrNoRows)

	expectUserCounts(mock, nil)
	mock.ExpectQuery(`SELECT count\(\*\) FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	// Profile-scoped deletes are skipped when there is no profile.
	for _, st := range deleteStatements {
		if st.arg == "profile" {
			continue
		}
		mock.ExpectExec(`DELETE FROM`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	stats, err := repo.DeleteAccount(context.Background(), "user-2")

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Profiles)
	assert.Equal(t, 0, stats.Links)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountRollsBackOnFailure(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM profiles WHERE user_id = \$1;`).
		WithArgs("user-3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("profile-3"))

	expectUserCounts(mock, nil)
	mock.ExpectQuery(`SELECT count\(\*\) FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	expectProfileCounts(mock, nil)

	mock.ExpectExec(`DELETE FROM preferences`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.DeleteAccount(context.Background(), "user-3")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
