package events

import (
	"context"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishStockUpdate(ctx context.Context, productID uuid.UUID, stock int64) error {
	args := m.Called(ctx, productID, stock)
	return args.Error(0)
}

func (m *MockPublisher) PublishOrderSuccess(ctx context.Context, userID uuid.UUID, summary models.OrderSummary) error {
	args := m.Called(ctx, userID, summary)
	return args.Error(0)
}

func (m *MockPublisher) PublishProductSoldOut(ctx context.Context, productID uuid.UUID, name string) error {
	args := m.Called(ctx, productID, name)
	return args.Error(0)
}

func (m *MockPublisher) PublishLeaderboardUpdate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPublisher) PublishSaleEnded(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
