package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// Helper to set up a mock DB and repository
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Repository) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := New(db)
	return db, mock, repo
}

func TestCreateUser(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	user := storage.User{Email: "ada@example.com", Name: "Ada", Plan: "free"}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), user.Email, user.Name, user.Plan, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.CreateUser(context.Background(), user)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, user.Email, result.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserConflict(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := repo.CreateUser(context.Background(), storage.User{Email: "dup@example.com"})

	assert.ErrorIs(t, err, storage.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByEmail(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, name, plan, customer_id, created_at FROM users WHERE email = \$1;`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "plan", "customer_id", "created_at"}).
			AddRow("user-1", "ada@example.com", "Ada", "free", "", now))

	result, err := repo.FindUserByEmail(context.Background(), "ada@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "user-1", result.ID)
	assert.Equal(t, "Ada", result.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByIDNotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, email, name, plan, customer_id, created_at FROM users WHERE id = \$1;`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUserByID(context.Background(), "missing")

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileSlugConflict(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO profiles`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := repo.CreateProfile(context.Background(), storage.Profile{UserID: "user-1", Slug: "taken"})

	assert.ErrorIs(t, err, storage.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlugExists(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.SlugExists(context.Background(), "ada")

	assert.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinksByProfileOrdered(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, profile_id, title, url, position, created_at FROM links WHERE profile_id = \$1 ORDER BY position;`).
		WithArgs("profile-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "title", "url", "position", "created_at"}).
			AddRow("link-1", "profile-1", "Blog", "https://blog.example.com", 1, now).
			AddRow("link-2", "profile-1", "Shop", "https://shop.example.com", 2, now))

	links, err := repo.LinksByProfile(context.Background(), "profile-1")

	assert.NoError(t, err)
	assert.Len(t, links, 2)
	assert.Equal(t, 1, links[0].Order)
	assert.Equal(t, "Shop", links[1].Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLinkOrder(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`UPDATE links SET position = \$3 WHERE profile_id = \$1 AND id = \$2;`).
		WithArgs("profile-1", "link-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLinkOrder(context.Background(), "profile-1", "link-1", 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLinkOrderNotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`UPDATE links SET position = \$3 WHERE profile_id = \$1 AND id = \$2;`).
		WithArgs("profile-1", "missing", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLinkOrder(context.Background(), "profile-1", "missing", 3)

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertClicks(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	events := []storage.ClickEvent{
		{LinkID: "link-1", ProfileID: "profile-1", OccurredAt: time.Now()},
		{LinkID: "link-2", ProfileID: "profile-1", OccurredAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO link_clicks`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO link_clicks`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InsertClicks(context.Background(), events)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertClicksEmpty(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	err := repo.InsertClicks(context.Background(), nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTotals(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT \(SELECT count\(\*\) FROM profiles\)`).
		WillReturnRows(sqlmock.NewRows([]string{"profiles", "links", "drops"}).AddRow(10, 42, 7))

	totals, err := repo.Totals(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 10, totals.Profiles)
	assert.Equal(t, 42, totals.Links)
	assert.Equal(t, 7, totals.Drops)

	assert.NoError(t, mock.ExpectationsWereMet())
}
