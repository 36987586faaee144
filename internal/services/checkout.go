package service

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/cache"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/events"
	"github.com/kunalverma25/flash-sale-backend/internal/metrics"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/kunalverma25/flash-sale-backend/pkg/gateway"
	"github.com/kunalverma25/flash-sale-backend/pkg/sendGrid"
	"github.com/google/uuid"
)

const orderIDRetries = 3

// CheckoutService turns the caller's cart into an immutable order. The
// sequence is: load cart, verify availability for every line, reserve
// stock with per-product conditional decrements, charge the (mock)
// gateway, persist the order, then fold in the post-commit effects
// (user stats, cart reset, events) best-effort.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error)
}

type checkoutService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	gateway     gateway.Client
	publisher   events.Publisher
	email       sendGrid.EmailService
	cache       cache.Cache
	now         func() time.Time
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	gw gateway.Client,
	publisher events.Publisher,
	email sendGrid.EmailService,
	cacheStore cache.Cache,
) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		gateway:     gw,
		publisher:   publisher,
		email:       email,
		cache:       cacheStore,
		now:         time.Now,
	}
}

// reservation tracks one applied decrement so a later failure can undo it.
type reservation struct {
	productID uuid.UUID
	name      string
	quantity  int64
	newStock  int64
}

func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("userId", userID.String()))

	startTime, err := time.Parse(time.RFC3339, req.CheckoutStartTime)
	if err != nil {
		return nil, errors.ValidationError("Invalid checkout start time format").WithError(err)
	}

	// Client clocks drift; a start time in the future counts as zero.
	duration := s.now().Sub(startTime).Seconds()
	duration = math.Max(math.Round(duration*100)/100, 0)

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil && !goerrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	// No cart row yet and an empty cart read the same to the buyer.
	if cart == nil || cart.IsEmpty() {
		metrics.ObserveCheckout(metrics.CheckoutResultEmptyCart)
		return nil, errors.StateConflictError("Cart is empty")
	}

	items := sortedItems(cart)

	// Advisory availability pass: collect every violation so the client
	// sees all conflicting lines in one response. No side effects yet.
	var violations []string

	for _, item := range items {
		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			violations = append(violations, fmt.Sprintf("%s: product not found", item.ProductID))
			continue
		}

		if !product.IsActive {
			violations = append(violations, fmt.Sprintf("%s: product is not available", product.Name))
			continue
		}

		if product.Stock < item.Quantity {
			violations = append(violations, fmt.Sprintf("%s: only %d items available", product.Name, product.Stock))
		}
	}

	if len(violations) > 0 {
		metrics.ObserveCheckout(metrics.CheckoutResultUnavailable)
		return nil, errors.StateConflictError("Product unavailable").WithDetails(violations)
	}

	// Past this point the operation must finish server-side even if the
	// client hangs up: reserved stock with no recorded order is worse
	// than a slow response.
	ctx = context.WithoutCancel(ctx)

	reservations, err := s.reserveStock(ctx, logger, items)
	if err != nil {
		metrics.ObserveCheckout(metrics.CheckoutResultUnavailable)
		return nil, err
	}

	order, err := s.commitOrder(ctx, logger, userID, req, items, duration, startTime)
	if err != nil {
		s.releaseStock(ctx, logger, reservations)
		return nil, err
	}

	metrics.ObserveCheckout(metrics.CheckoutResultSuccess)

	s.finalize(ctx, logger, userID, order, reservations)

	return order, nil
}

// reserveStock applies the conditional decrement per line. The guard is
// re-verified at decrement time inside the storage layer, which closes
// the window between the advisory pass and here. A lost race rolls back
// every decrement already applied in this attempt.
func (s *checkoutService) reserveStock(ctx context.Context, logger *slog.Logger, items []models.CartItem) ([]reservation, error) {

	var applied []reservation

	for _, item := range items {

		newStock, err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {

			metrics.ObserveStockConflict()
			logger.Warn("Lost the stock race",
				slog.String("productId", item.ProductID.String()),
				slog.Int64("quantity", item.Quantity),
				slog.Any("error", err))

			s.releaseStock(ctx, logger, applied)

			return nil, errors.StateConflictError("Product unavailable").
				WithDetails([]string{fmt.Sprintf("%s: insufficient stock at reservation", item.Name)}).
				WithError(err)
		}

		applied = append(applied, reservation{
			productID: item.ProductID,
			name:      item.Name,
			quantity:  item.Quantity,
			newStock:  newStock,
		})
	}

	return applied, nil
}

// releaseStock compensates applied decrements after a downstream
// failure. Failures here are logged for the operator and abandoned: the
// checkout is already failing and a retry loop against a broken store
// helps nobody.
func (s *checkoutService) releaseStock(ctx context.Context, logger *slog.Logger, applied []reservation) {

	for _, res := range applied {
		if _, err := s.productRepo.IncrementStock(ctx, res.productID, res.quantity, true); err != nil {
			logger.Error("Failed to release reserved stock",
				slog.String("productId", res.productID.String()),
				slog.Int64("quantity", res.quantity),
				slog.Any("error", err))
		}
	}
}

func (s *checkoutService) commitOrder(ctx context.Context, logger *slog.Logger, userID uuid.UUID, req *models.CheckoutRequest, items []models.CartItem, duration float64, startTime time.Time) (*models.Order, error) {

	orderItems := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		orderItems = append(orderItems, models.OrderItem{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: s.now(),
		})
	}

	subtotal, tax, total := computeTotals(orderItems)

	txn, err := s.gateway.Charge(ctx, total, "USD", req.PaymentMethod)
	if err != nil {
		metrics.ObserveCheckout(metrics.CheckoutResultPersistError)
		return nil, errors.ThirdPartyError("Payment processing failed").WithError(err)
	}

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            userID,
		Items:             orderItems,
		Subtotal:          subtotal,
		Tax:               tax,
		Total:             total,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     models.PaymentStatusCompleted,
		TransactionID:     txn.TransactionID,
		CheckoutDuration:  duration,
		CheckoutStartTime: startTime,
	}

	for attempt := 0; attempt < orderIDRetries; attempt++ {

		order.OrderID = generateOrderID()

		err = s.orderRepo.CreateOrder(ctx, order)
		if err == nil {
			return order, nil
		}

		if err != repository.ErrDuplicateOrderID {
			break
		}

		logger.Warn("Order id collision, regenerating", slog.String("orderId", order.OrderID))
	}

	metrics.ObserveCheckout(metrics.CheckoutResultPersistError)
	return nil, errors.DatabaseError("Failed to create order").WithError(err)
}

// finalize runs the post-commit effects. The order is already durable;
// nothing here may fail the checkout.
func (s *checkoutService) finalize(ctx context.Context, logger *slog.Logger, userID uuid.UUID, order *models.Order, reservations []reservation) {

	if err := s.userRepo.UpdatePurchaseStats(ctx, userID, order.Total, order.CheckoutDuration); err != nil {
		logger.Error("Failed to update purchase stats", slog.Any("error", err))
	}

	if err := s.cartRepo.ClearCart(ctx, userID); err != nil {
		logger.Error("Failed to clear cart after checkout", slog.Any("error", err))
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.Key(cache.LeaderboardKeyPrefix, models.LeaderboardSortPurchases)); err != nil {
			logger.Warn("Failed to invalidate leaderboard cache", slog.Any("error", err))
		}
		if err := s.cache.Delete(ctx, cache.Key(cache.LeaderboardKeyPrefix, models.LeaderboardSortCheckout)); err != nil {
			logger.Warn("Failed to invalidate leaderboard cache", slog.Any("error", err))
		}
	}

	if err := s.publisher.PublishOrderSuccess(ctx, userID, order.Summary()); err != nil {
		logger.Warn("Failed to publish order success", slog.Any("error", err))
	}

	for _, res := range reservations {
		if err := s.publisher.PublishStockUpdate(ctx, res.productID, res.newStock); err != nil {
			logger.Warn("Failed to publish stock update", slog.String("productId", res.productID.String()), slog.Any("error", err))
		}

		if res.newStock == 0 {
			if err := s.publisher.PublishProductSoldOut(ctx, res.productID, res.name); err != nil {
				logger.Warn("Failed to publish sold out", slog.String("productId", res.productID.String()), slog.Any("error", err))
			}
		}
	}

	if err := s.publisher.PublishLeaderboardUpdate(ctx); err != nil {
		logger.Warn("Failed to publish leaderboard update", slog.Any("error", err))
	}

	if s.email != nil {
		if user, err := s.userRepo.GetUserByID(ctx, userID); err == nil {
			if err := s.email.SendOrderReceipt(ctx, user.Email, user.Name, order); err != nil {
				logger.Warn("Failed to send order receipt", slog.Any("error", err))
			}
		}
	}
}

// sortedItems flattens the cart map into a stable, id-ordered slice so
// violation lists and reservation order are deterministic.
func sortedItems(cart *models.Cart) []models.CartItem {

	items := make([]models.CartItem, 0, len(cart.Items))

	for _, item := range cart.Items {
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID.String() < items[j].ProductID.String()
	})

	return items
}

// generateOrderID composes wall-clock millis with a random suffix, so
// two orders created in the same millisecond still get distinct ids.
func generateOrderID() string {
	return fmt.Sprintf("ORD%d%06X", time.Now().UnixMilli(), rand.IntN(1<<24))
}
