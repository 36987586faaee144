package service

import (
	"context"
	"database/sql"
	goerrors "errors"

	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/google/uuid"
)

type OrderService interface {
	GetByOrderID(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) GetByOrderID(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found")
		}
		return nil, errors.DatabaseError("Failed to load order").WithError(err)
	}

	// Another user's order id reads as not-found, not forbidden, so ids
	// cannot be probed for existence.
	if order.UserID != userID {
		return nil, errors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list orders").WithError(err)
	}

	return orders, total, nil
}
