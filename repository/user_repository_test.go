// file: repository/user_repository_test.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-users-api/model"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "login", "first_name", "last_name", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), dbMock
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()
	query := regexp.QuoteMeta(`SELECT id, login, first_name, last_name, created_at, updated_at FROM users WHERE id = $1`)

	t.Run("found", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		dbMock.ExpectQuery(query).WithArgs(id).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(id.String(), "jdoe", "John", "Doe", now, now))

		user, err := repo.GetByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "jdoe", user.Login)
		assert.Equal(t, "John Doe", user.FullName())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		dbMock.ExpectQuery(query).WithArgs(id).WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByID(ctx, id)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		dbErr := errors.New("connection reset")
		dbMock.ExpectQuery(query).WithArgs(id).WillReturnError(dbErr)

		_, err := repo.GetByID(ctx, id)

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestUserRepository_Insert_AssignsID(t *testing.T) {
	repo, dbMock := newMockRepo(t)
	now := time.Now()
	user := &model.User{Login: "jdoe", FirstName: "John", LastName: "Doe"}

	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, login, first_name, last_name) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`)).
		WithArgs(sqlmock.AnyArg(), "jdoe", "John", "Doe").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := repo.Insert(context.Background(), user)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, now, user.CreatedAt)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	query := regexp.QuoteMeta(`UPDATE users SET login = $2, first_name = $3, last_name = $4, updated_at = now() WHERE id = $1 RETURNING created_at, updated_at`)
	user := &model.User{ID: uuid.New(), Login: "jane", FirstName: "Jane", LastName: "Doe"}

	t.Run("success", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		now := time.Now()
		dbMock.ExpectQuery(query).WithArgs(user.ID, "jane", "Jane", "Doe").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		assert.NoError(t, repo.Update(context.Background(), user))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		dbMock.ExpectQuery(query).WithArgs(user.ID, "jane", "Jane", "Doe").WillReturnError(sql.ErrNoRows)

		assert.ErrorIs(t, repo.Update(context.Background(), user), ErrUserNotFound)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestUserRepository_Upsert(t *testing.T) {
	for _, created := range []bool{true, false} {
		name := "replaced"
		if created {
			name = "created"
		}
		t.Run(name, func(t *testing.T) {
			repo, dbMock := newMockRepo(t)
			now := time.Now()
			user := &model.User{ID: uuid.New(), Login: "jdoe", FirstName: "John", LastName: "Doe"}

			dbMock.ExpectQuery(`INSERT INTO users .* ON CONFLICT \(id\) DO UPDATE`).
				WithArgs(user.ID, "jdoe", "John", "Doe").
				WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at", "inserted"}).AddRow(now, now, created))

			got, err := repo.Upsert(context.Background(), user)

			require.NoError(t, err)
			assert.Equal(t, created, got)
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Delete(t *testing.T) {
	id := uuid.New()
	query := regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)

	t.Run("deleted", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		dbMock.ExpectExec(query).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, dbMock := newMockRepo(t)
		dbMock.ExpectExec(query).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrUserNotFound)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestUserRepository_List(t *testing.T) {
	repo, dbMock := newMockRepo(t)
	now := time.Now()
	first, second := uuid.New(), uuid.New()

	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, first_name, last_name, created_at, updated_at FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`)).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(first.String(), "alice", "Alice", "Liddell", now, now).
			AddRow(second.String(), "bob", "Bob", "Builder", now, now))

	page, err := repo.List(context.Background(), model.PageRequest{PageNumber: 2, PageSize: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(42), page.TotalCount)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first, page.Items[0].ID)
	assert.Equal(t, "bob", page.Items[1].Login)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUserRepository_List_HugePageNumberSendsValidOffset(t *testing.T) {
	repo, dbMock := newMockRepo(t)
	page := model.PageRequest{PageNumber: math.MaxInt, PageSize: 20}.Normalize()

	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, first_name, last_name, created_at, updated_at FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`)).
		WithArgs(20, (model.MaxPageNumber-1)*20).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	result, err := repo.List(context.Background(), page)

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
