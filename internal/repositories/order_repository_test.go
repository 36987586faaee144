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

func TestNewOrderRepo(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewOrderRepo(db)
	assert.NotNil(t, repo, "NewOrderRepo should return a non-nil repository")
}

func TestOrderRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewOrderRepo(db)
	ctx := t.Context()

	insertOrderSQL := regexp.QuoteMeta(`INSERT INTO orders (id, order_id, user_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at)`)
	insertItemSQL := regexp.QuoteMeta(`INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, created_at)`)

	newOrder := func() *models.Order {
		return &models.Order{
			ID:                uuid.New(),
			OrderID:           "ORD1748779210123ABCDEF",
			UserID:            uuid.New(),
			Subtotal:          45.00,
			Tax:               4.50,
			Total:             49.50,
			PaymentMethod:     "card",
			PaymentStatus:     "completed",
			TransactionID:     "TXN1748779212345",
			CheckoutDuration:  2.5,
			CheckoutStartTime: time.Now().Add(-3 * time.Second),
			Items: []models.OrderItem{
				{ID: uuid.New(), ProductID: uuid.New(), Name: "Flash Widget", Quantity: 3, UnitPrice: 15.00},
			},
		}
	}

	t.Run("CreateOrder", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			// Arrange
			order := newOrder()
			now := time.Now()

			mock.ExpectBegin()
			mock.ExpectQuery(insertOrderSQL).
				WithArgs(order.ID, order.OrderID, order.UserID, order.Subtotal, order.Tax, order.Total,
					order.PaymentMethod, order.PaymentStatus, order.TransactionID,
					order.CheckoutDuration, order.CheckoutStartTime).
				WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
			mock.ExpectExec(insertItemSQL).
				WithArgs(order.Items[0].ID, order.ID, order.Items[0].ProductID, order.Items[0].Name,
					order.Items[0].Quantity, order.Items[0].UnitPrice).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.NoError(t, err, "CreateOrder should not return an error on success")
			assert.Equal(t, order.ID, order.Items[0].OrderID, "items should be linked to the order row")
			assert.WithinDuration(t, now, order.CreatedAt, time.Second)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("DuplicateOrderID", func(t *testing.T) {
			// Arrange
			order := newOrder()

			mock.ExpectBegin()
			mock.ExpectQuery(insertOrderSQL).
				WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_id_key"})
			mock.ExpectRollback()

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateOrderID, "unique violations must surface as the retryable sentinel")
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("ItemInsertErrorRollsBack", func(t *testing.T) {
			// Arrange
			order := newOrder()
			dbError := errors.New("item insertion failed")

			mock.ExpectBegin()
			mock.ExpectQuery(insertOrderSQL).
				WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
			mock.ExpectExec(insertItemSQL).WillReturnError(dbError)
			mock.ExpectRollback()

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, dbError)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("BeginError", func(t *testing.T) {
			// Arrange
			dbError := errors.New("no connections available")
			mock.ExpectBegin().WillReturnError(dbError)

			// Act
			err := repo.CreateOrder(ctx, newOrder())

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, dbError)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("GetOrderByOrderID", func(t *testing.T) {
		orderSQL := regexp.QuoteMeta(`
		SELECT id, user_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at
		FROM orders
		WHERE order_id = $1`)
		itemsSQL := regexp.QuoteMeta(`
		SELECT id, product_id, name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			orderRowID := uuid.New()
			userID := uuid.New()
			itemID := uuid.New()
			productID := uuid.New()
			now := time.Now()

			mock.ExpectQuery(orderSQL).
				WithArgs("ORD42").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "user_id", "subtotal", "tax", "total", "payment_method",
					"payment_status", "transaction_id", "checkout_duration", "checkout_start_time", "created_at",
				}).AddRow(orderRowID, userID, 45.00, 4.50, 49.50, "card", "completed", "TXN1", 2.5, now.Add(-3*time.Second), now))

			mock.ExpectQuery(itemsSQL).
				WithArgs(orderRowID).
				WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "quantity", "unit_price", "created_at"}).
					AddRow(itemID, productID, "Flash Widget", int64(3), 15.00, now))

			// Act
			order, err := repo.GetOrderByOrderID(ctx, "ORD42")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, "ORD42", order.OrderID)
			assert.Equal(t, userID, order.UserID)
			require.Len(t, order.Items, 1)
			assert.Equal(t, orderRowID, order.Items[0].OrderID)
			assert.Equal(t, int64(3), order.Items[0].Quantity)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("NotFound", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(orderSQL).WithArgs("ORDMISSING").WillReturnError(sql.ErrNoRows)

			// Act
			order, err := repo.GetOrderByOrderID(ctx, "ORDMISSING")

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, sql.ErrNoRows)
			assert.Nil(t, order)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("ListOrdersByUser", func(t *testing.T) {
		userID := uuid.New()

		countSQL := regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE user_id = $1`)
		listSQL := regexp.QuoteMeta(`
		SELECT id, order_id, subtotal, tax, total, payment_method, payment_status, transaction_id, checkout_duration, checkout_start_time, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`)
		itemsSQL := regexp.QuoteMeta(`
		SELECT id, product_id, name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			orderRowID := uuid.New()
			now := time.Now()

			mock.ExpectQuery(countSQL).WithArgs(userID).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			mock.ExpectQuery(listSQL).WithArgs(userID, 10, 0).
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "order_id", "subtotal", "tax", "total", "payment_method",
					"payment_status", "transaction_id", "checkout_duration", "checkout_start_time", "created_at",
				}).AddRow(orderRowID, "ORD42", 45.00, 4.50, 49.50, "card", "completed", "TXN1", 2.5, now.Add(-3*time.Second), now))
			mock.ExpectQuery(itemsSQL).WithArgs(orderRowID).
				WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "quantity", "unit_price", "created_at"}))

			// Act
			orders, total, err := repo.ListOrdersByUser(ctx, userID, 1, 10)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, 1, total)
			require.Len(t, orders, 1)
			assert.Equal(t, userID, orders[0].UserID)
			assert.Equal(t, "ORD42", orders[0].OrderID)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("CountError", func(t *testing.T) {
			// Arrange
			dbError := errors.New("count query failed")
			mock.ExpectQuery(countSQL).WithArgs(userID).WillReturnError(dbError)

			// Act
			orders, total, err := repo.ListOrdersByUser(ctx, userID, 1, 10)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, dbError)
			assert.Nil(t, orders)
			assert.Zero(t, total)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("ListOrdersBetween", func(t *testing.T) {
		itemsSQL := regexp.QuoteMeta(`
		SELECT id, product_id, name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1`)

		t.Run("BoundedWindow", func(t *testing.T) {
			// Arrange
			from := time.Now().Add(-time.Hour)
			to := time.Now()
			orderRowID := uuid.New()

			listSQL := regexp.QuoteMeta(`WHERE 1=1 AND created_at >= $1 AND created_at <= $2`)

			mock.ExpectQuery(listSQL).WithArgs(from, to).
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "order_id", "user_id", "subtotal", "tax", "total", "payment_method",
					"payment_status", "transaction_id", "checkout_duration", "checkout_start_time", "created_at",
				}).AddRow(orderRowID, "ORD42", uuid.New(), 45.00, 4.50, 49.50, "card", "completed", "TXN1", 2.5, from, to))
			mock.ExpectQuery(itemsSQL).WithArgs(orderRowID).
				WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "quantity", "unit_price", "created_at"}))

			// Act
			orders, err := repo.ListOrdersBetween(ctx, &from, &to)

			// Assert
			require.NoError(t, err)
			require.Len(t, orders, 1)
			assert.Equal(t, "ORD42", orders[0].OrderID)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Unbounded", func(t *testing.T) {
			// Arrange
			listSQL := regexp.QuoteMeta(`WHERE 1=1
		ORDER BY created_at DESC`)

			mock.ExpectQuery(listSQL).
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "order_id", "user_id", "subtotal", "tax", "total", "payment_method",
					"payment_status", "transaction_id", "checkout_duration", "checkout_start_time", "created_at",
				}))

			// Act
			orders, err := repo.ListOrdersBetween(ctx, nil, nil)

			// Assert
			require.NoError(t, err)
			assert.Empty(t, orders)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})
}
