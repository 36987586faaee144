package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/kunalverma25/flash-sale-backend/internal/utils"
	"github.com/google/uuid"
)

// ErrInsufficientStock reports a conditional decrement that found fewer
// units than requested at decrement time.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, filter models.ProductListFilter, page, size int) ([]*models.Product, int, error)

	// DecrementStock moves qty units from stock to sold in one
	// conditional statement, guarded by stock >= qty at execution time.
	// Returns the remaining stock, or ErrInsufficientStock without any
	// partial effect.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int64) (int64, error)

	// IncrementStock is the admin restock path and the compensation hook
	// for a checkout that failed past its first decrement. It does not
	// touch the sold counter's monotonicity guarantee: sold is reduced
	// only when undoing a decrement of the same checkout attempt.
	IncrementStock(ctx context.Context, id uuid.UUID, qty int64, undoSold bool) (int64, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `INSERT INTO products (id, name, description, price, original_price, category, image, stock, sold, is_active, sale_start_time, sale_end_time)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)
			  RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.ID, product.Name, product.Description, product.Price, product.OriginalPrice,
		product.Category, product.Image, product.Stock, product.IsActive,
		product.SaleStartTime, product.SaleEndTime,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{ID: id}

	query := `
		SELECT name, description, price, original_price, category, image, stock, sold, is_active, sale_start_time, sale_end_time, created_at, updated_at
		FROM products
		WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&product.Name, &product.Description, &product.Price, &product.OriginalPrice,
		&product.Category, &product.Image, &product.Stock, &product.Sold, &product.IsActive,
		&product.SaleStartTime, &product.SaleEndTime, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	product.ComputeDiscount()

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	// Deliberately excludes stock and sold: those counters move only
	// through DecrementStock/IncrementStock.
	query := `
		UPDATE products SET name = $1, description = $2, price = $3, original_price = $4, category = $5, image = $6, is_active = $7, sale_start_time = $8, sale_end_time = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.Name, product.Description, product.Price, product.OriginalPrice,
		product.Category, product.Image, product.IsActive,
		product.SaleStartTime, product.SaleEndTime, product.ID,
	).Scan(&product.UpdatedAt)
}

func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	// The guard and the mutation are one statement, so two concurrent
	// checkouts can never both decrement past zero.
	query := `
		UPDATE products
		SET stock = stock - $2, sold = sold + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`

	var newStock int64

	err := r.DB.QueryRowContext(dbCtx, query, id, qty).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientStock
		}
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return newStock, nil
}

func (r *productRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int64, undoSold bool) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock
	`
	if undoSold {
		query = `
		UPDATE products
		SET stock = stock + $2, sold = sold - $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock
	`
	}

	var newStock int64

	err := r.DB.QueryRowContext(dbCtx, query, id, qty).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("failed to increment stock: %w", err)
	}

	return newStock, nil
}

func (r *productRepository) ListProducts(ctx context.Context, filter models.ProductListFilter, page, size int) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	where := ` WHERE 1=1`
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	if filter.ActiveOnly {
		where += " AND is_active = TRUE"
	}

	var total int

	countQuery := `SELECT COUNT(*) FROM products` + where

	err := r.DB.QueryRowContext(dbCtx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	orderBy := ` ORDER BY created_at DESC`

	switch filter.SortBy {
	case "price":
		orderBy = ` ORDER BY price ASC`
	case "sold":
		orderBy = ` ORDER BY sold DESC`
	case "stock":
		orderBy = ` ORDER BY stock DESC`
	}

	offset := (page - 1) * size
	args = append(args, size, offset)

	query := `
		SELECT id, name, description, price, original_price, category, image, stock, sold, is_active, sale_start_time, sale_end_time, created_at, updated_at
		FROM products` + where + orderBy + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}

		err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Price, &product.OriginalPrice,
			&product.Category, &product.Image, &product.Stock, &product.Sold, &product.IsActive,
			&product.SaleStartTime, &product.SaleEndTime, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		product.ComputeDiscount()
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
