package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/kunalverma25/flash-sale-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicateOrderID reports a public order id collision; the caller
// regenerates and retries.
var ErrDuplicateOrderID = errors.New("duplicate order id")

// OrderRepository is append-only: orders are never updated or deleted
// once inserted.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ListOrdersBetween(ctx context.Context, from, to *time.Time) ([]models.Order, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, order_id, user_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING created_at
	`

	err = tx.QueryRowContext(dbCtx, query,
		order.ID, order.OrderID, order.UserID, order.Subtotal, order.Tax, order.Total,
		order.PaymentMethod, order.PaymentStatus, order.TransactionID,
		order.CheckoutDuration, order.CheckoutStartTime,
	).Scan(&order.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrderID
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if _, err := tx.ExecContext(dbCtx, itemQuery, item.ID, order.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("failed to insert an order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{OrderID: orderID}

	query := `
		SELECT id, user_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at
		FROM orders
		WHERE order_id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, orderID).Scan(
		&order.ID, &order.UserID, &order.Subtotal, &order.Tax, &order.Total,
		&order.PaymentMethod, &order.PaymentStatus, &order.TransactionID,
		&order.CheckoutDuration, &order.CheckoutStartTime, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	items, err := r.itemsForOrder(dbCtx, order.ID)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) itemsForOrder(ctx context.Context, id uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT id, product_id, name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {

		var item models.OrderItem

		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = id

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	total, err := r.CountByUser(dbCtx, userID)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, order_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		var order models.Order

		order.UserID = userID

		err := rows.Scan(
			&order.ID, &order.OrderID, &order.Subtotal, &order.Tax, &order.Total,
			&order.PaymentMethod, &order.PaymentStatus, &order.TransactionID,
			&order.CheckoutDuration, &order.CheckoutStartTime, &order.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		items, err := r.itemsForOrder(dbCtx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, total, nil
}

func (r *orderRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return total, nil
}

func (r *orderRepository) ListOrdersBetween(ctx context.Context, from, to *time.Time) ([]models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	where := ""
	args := []any{}

	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}

	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	query := `
		SELECT id, order_id, user_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at
		FROM orders
		WHERE 1=1` + where + `
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		var order models.Order

		err := rows.Scan(
			&order.ID, &order.OrderID, &order.UserID, &order.Subtotal, &order.Tax, &order.Total,
			&order.PaymentMethod, &order.PaymentStatus, &order.TransactionID,
			&order.CheckoutDuration, &order.CheckoutStartTime, &order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan the orders: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsForOrder(dbCtx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}
