package repository_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserRepo(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewUserRepo(db)
	assert.NotNil(t, repo, "NewUserRepo should return a non-nil repository")
}

func TestUserRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewUserRepo(db)
	ctx := t.Context()

	t.Run("CreateUser", func(t *testing.T) {
		expectedSQL := regexp.QuoteMeta(`INSERT INTO users (id, name, email, password, total_purchases, created_at, updated_at)`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			now := time.Now()
			user := &models.User{
				ID:       uuid.New(),
				Name:     "Test User",
				Email:    "test@example.com",
				Password: "$2a$10$hashedpassword",
			}

			mock.ExpectQuery(expectedSQL).
				WithArgs(user.ID, user.Name, user.Email, user.Password).
				WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

			// Act
			err := repo.CreateUser(ctx, user)

			// Assert
			require.NoError(t, err, "CreateUser should not return an error on success")
			assert.WithinDuration(t, now, user.CreatedAt, time.Second)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			// Arrange
			user := &models.User{ID: uuid.New(), Email: "taken@example.com"}

			mock.ExpectQuery(expectedSQL).
				WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

			// Act
			err := repo.CreateUser(ctx, user)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		expectedSQL := regexp.QuoteMeta(`
		SELECT id, name, email, password, total_purchases, fastest_checkout, created_at, updated_at
		FROM users
		WHERE email = $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			userID := uuid.New()
			now := time.Now()
			fastest := 2.5

			mock.ExpectQuery(expectedSQL).
				WithArgs("test@example.com").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "name", "email", "password", "total_purchases", "fastest_checkout", "created_at", "updated_at",
				}).AddRow(userID, "Test User", "test@example.com", "hash", 149.50, fastest, now, now))

			// Act
			user, err := repo.GetUserByEmail(ctx, "test@example.com")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, userID, user.ID)
			assert.InDelta(t, 149.50, user.TotalPurchases, 0.001)
			require.NotNil(t, user.FastestCheckout)
			assert.InDelta(t, fastest, *user.FastestCheckout, 0.001)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("NotFound", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(expectedSQL).WithArgs("missing@example.com").WillReturnError(sql.ErrNoRows)

			// Act
			user, err := repo.GetUserByEmail(ctx, "missing@example.com")

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, sql.ErrNoRows)
			assert.Nil(t, user)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("NullFastestCheckout", func(t *testing.T) {
			// Arrange
			now := time.Now()

			mock.ExpectQuery(expectedSQL).
				WithArgs("new@example.com").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "name", "email", "password", "total_purchases", "fastest_checkout", "created_at", "updated_at",
				}).AddRow(uuid.New(), "New User", "new@example.com", "hash", 0.0, nil, now, now))

			// Act
			user, err := repo.GetUserByEmail(ctx, "new@example.com")

			// Assert
			require.NoError(t, err)
			assert.Nil(t, user.FastestCheckout, "a user who never checked out has no fastest time")
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("UpdatePurchaseStats", func(t *testing.T) {
		userID := uuid.New()

		expectedSQL := regexp.QuoteMeta(`
		UPDATE users
		SET total_purchases = total_purchases + $2,
		    fastest_checkout = LEAST(COALESCE(fastest_checkout, $3), $3),
		    updated_at = NOW()
		WHERE id = $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			mock.ExpectExec(expectedSQL).
				WithArgs(userID, 49.50, 2.5).
				WillReturnResult(sqlmock.NewResult(0, 1))

			// Act
			err := repo.UpdatePurchaseStats(ctx, userID, 49.50, 2.5)

			// Assert
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("UserNotFound", func(t *testing.T) {
			// Arrange
			mock.ExpectExec(expectedSQL).
				WithArgs(userID, 49.50, 2.5).
				WillReturnResult(sqlmock.NewResult(0, 0))

			// Act
			err := repo.UpdatePurchaseStats(ctx, userID, 49.50, 2.5)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, sql.ErrNoRows)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("DatabaseError", func(t *testing.T) {
			// Arrange
			dbError := errors.New("deadlock detected")
			mock.ExpectExec(expectedSQL).
				WithArgs(userID, 49.50, 2.5).
				WillReturnError(dbError)

			// Act
			err := repo.UpdatePurchaseStats(ctx, userID, 49.50, 2.5)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, dbError)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("TopByPurchases", func(t *testing.T) {
		expectedSQL := regexp.QuoteMeta(`
		SELECT id, name, total_purchases, fastest_checkout
		FROM users
		ORDER BY total_purchases DESC
		LIMIT $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			firstID, secondID := uuid.New(), uuid.New()
			fastest := 1.8

			mock.ExpectQuery(expectedSQL).
				WithArgs(10).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_purchases", "fastest_checkout"}).
					AddRow(firstID, "Big Spender", 999.99, fastest).
					AddRow(secondID, "Window Shopper", 10.00, nil))

			// Act
			users, err := repo.TopByPurchases(ctx, 10)

			// Assert
			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.Equal(t, firstID, users[0].ID)
			assert.Nil(t, users[1].FastestCheckout)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("TopByFastestCheckout", func(t *testing.T) {
		expectedSQL := regexp.QuoteMeta(`
		SELECT id, name, total_purchases, fastest_checkout
		FROM users
		WHERE fastest_checkout IS NOT NULL
		ORDER BY fastest_checkout ASC
		LIMIT $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			userID := uuid.New()
			fastest := 1.2

			mock.ExpectQuery(expectedSQL).
				WithArgs(10).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_purchases", "fastest_checkout"}).
					AddRow(userID, "Speed Runner", 120.00, fastest))

			// Act
			users, err := repo.TopByFastestCheckout(ctx, 10)

			// Assert
			require.NoError(t, err)
			require.Len(t, users, 1)
			require.NotNil(t, users[0].FastestCheckout)
			assert.InDelta(t, fastest, *users[0].FastestCheckout, 0.001)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("QueryError", func(t *testing.T) {
			// Arrange
			dbError := errors.New("query failed")
			mock.ExpectQuery(expectedSQL).WithArgs(10).WillReturnError(dbError)

			// Act
			users, err := repo.TopByFastestCheckout(ctx, 10)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, dbError)
			assert.Nil(t, users)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})
}
