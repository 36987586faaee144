package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appErrors "github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/events"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/pkg/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes with the same conditional-decrement guarantee as the
// SQL layer, so the orchestrator can be hammered concurrently.

type memProductStore struct {
	mu      sync.Mutex
	product models.Product
}

func (s *memProductStore) CreateProduct(ctx context.Context, p *models.Product) error { return nil }

func (s *memProductStore) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.product

	return &snapshot, nil
}

func (s *memProductStore) UpdateProduct(ctx context.Context, p *models.Product) error { return nil }

func (s *memProductStore) ListProducts(ctx context.Context, filter models.ProductListFilter, page, size int) ([]*models.Product, int, error) {
	return nil, 0, nil
}

func (s *memProductStore) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.product.Stock < qty {
		return 0, repository.ErrInsufficientStock
	}

	s.product.Stock -= qty
	s.product.Sold += qty

	return s.product.Stock, nil
}

func (s *memProductStore) IncrementStock(ctx context.Context, id uuid.UUID, qty int64, undoSold bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.product.Stock += qty
	if undoSold {
		s.product.Sold -= qty
	}

	return s.product.Stock, nil
}

type memCartStore struct {
	productID uuid.UUID
	quantity  int64
}

func (s *memCartStore) CreateCart(ctx context.Context, cart *models.Cart) error { return nil }

func (s *memCartStore) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: map[string]models.CartItem{
			s.productID.String(): {
				ProductID: s.productID,
				Name:      "Drop Item",
				Quantity:  s.quantity,
				UnitPrice: 19.99,
			},
		},
	}, nil
}

func (s *memCartStore) UpdateCart(ctx context.Context, cart *models.Cart) error { return nil }
func (s *memCartStore) ClearCart(ctx context.Context, userID uuid.UUID) error   { return nil }

type memOrderStore struct {
	mu     sync.Mutex
	orders []models.Order
}

func (s *memOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.OrderID == order.OrderID {
			return repository.ErrDuplicateOrderID
		}
	}

	s.orders = append(s.orders, *order)

	return nil
}

func (s *memOrderStore) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return nil, nil
}

func (s *memOrderStore) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	return nil, 0, nil
}

func (s *memOrderStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}

func (s *memOrderStore) ListOrdersBetween(ctx context.Context, from, to *time.Time) ([]models.Order, error) {
	return nil, nil
}

type memUserStore struct{}

func (memUserStore) CreateUser(ctx context.Context, user *models.User) error { return nil }

func (memUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (memUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (memUserStore) UpdatePurchaseStats(ctx context.Context, id uuid.UUID, amount, checkoutSeconds float64) error {
	return nil
}

func (memUserStore) TopByPurchases(ctx context.Context, limit int) ([]models.User, error) {
	return nil, nil
}

func (memUserStore) TopByFastestCheckout(ctx context.Context, limit int) ([]models.User, error) {
	return nil, nil
}

// TestConcurrentCheckoutNeverOversells floods one product with more
// buyers than it has stock for and verifies the counters stay exact.
func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	const (
		initialStock = 25
		perBuyer     = 2
		buyers       = 30
	)

	productID := uuid.New()

	productStore := &memProductStore{product: models.Product{
		ID:       productID,
		Name:     "Drop Item",
		Price:    19.99,
		Stock:    initialStock,
		IsActive: true,
	}}
	orderStore := &memOrderStore{}

	svc := service.NewCheckoutService(
		orderStore,
		&memCartStore{productID: productID, quantity: perBuyer},
		productStore,
		memUserStore{},
		gateway.NewMockClient(),
		events.NewNoopPublisher(),
		nil,
		nil,
	)

	start := time.Now().Add(-time.Second).Format(time.RFC3339)

	var wg sync.WaitGroup

	results := make(chan error, buyers)

	for range buyers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Checkout(context.Background(), uuid.New(), &models.CheckoutRequest{
				CheckoutStartTime: start,
				PaymentMethod:     "card",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, conflicts int

	for err := range results {
		if err == nil {
			successes++
			continue
		}

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeStateConflict, appErr.Code)
		conflicts++
	}

	wantSuccesses := initialStock / perBuyer

	assert.Equal(t, wantSuccesses, successes)
	assert.Equal(t, buyers-wantSuccesses, conflicts)
	assert.Len(t, orderStore.orders, wantSuccesses)

	assert.Equal(t, int64(initialStock-wantSuccesses*perBuyer), productStore.product.Stock)
	assert.Equal(t, int64(wantSuccesses*perBuyer), productStore.product.Sold)
	assert.GreaterOrEqual(t, productStore.product.Stock, int64(0))
}
