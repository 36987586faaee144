package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/kunalverma25/flash-sale-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdatePurchaseStats folds a completed order into the buyer's
	// aggregates: totalPurchases grows by amount; fastestCheckout takes
	// the smaller of the stored and observed durations.
	UpdatePurchaseStats(ctx context.Context, id uuid.UUID, amount, checkoutSeconds float64) error

	TopByPurchases(ctx context.Context, limit int) ([]models.User, error)
	TopByFastestCheckout(ctx context.Context, limit int) ([]models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, name, email, password, total_purchases, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, user.ID, user.Name, user.Email, user.Password).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}

	query := `
		SELECT id, name, email, password, total_purchases, fastest_checkout, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password,
		&user.TotalPurchases, &user.FastestCheckout, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}

	query := `
		SELECT id, name, email, password, total_purchases, fastest_checkout, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password,
		&user.TotalPurchases, &user.FastestCheckout, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return user, nil
}

func (r *userRepository) UpdatePurchaseStats(ctx context.Context, id uuid.UUID, amount, checkoutSeconds float64) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	// LEAST keeps fastest_checkout monotone non-increasing.
	query := `
		UPDATE users
		SET total_purchases = total_purchases + $2,
		    fastest_checkout = LEAST(COALESCE(fastest_checkout, $3), $3),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.DB.ExecContext(dbCtx, query, id, amount, checkoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to update purchase stats: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *userRepository) TopByPurchases(ctx context.Context, limit int) ([]models.User, error) {
	query := `
		SELECT id, name, total_purchases, fastest_checkout
		FROM users
		ORDER BY total_purchases DESC
		LIMIT $1
	`

	return r.queryLeaders(ctx, query, limit)
}

func (r *userRepository) TopByFastestCheckout(ctx context.Context, limit int) ([]models.User, error) {
	// Users who never checked out are excluded, not ranked last.
	query := `
		SELECT id, name, total_purchases, fastest_checkout
		FROM users
		WHERE fastest_checkout IS NOT NULL
		ORDER BY fastest_checkout ASC
		LIMIT $1
	`

	return r.queryLeaders(ctx, query, limit)
}

func (r *userRepository) queryLeaders(ctx context.Context, query string, limit int) ([]models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard users: %w", err)
	}

	defer rows.Close()

	var users []models.User

	for rows.Next() {

		var user models.User

		if err := rows.Scan(&user.ID, &user.Name, &user.TotalPurchases, &user.FastestCheckout); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
