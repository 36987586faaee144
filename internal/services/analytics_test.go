package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesSummary(t *testing.T) {
	orderRepo := repository.NewMockOrderRepository()
	productRepo := repository.NewMockProductRepository()
	svc := service.NewAnalyticsService(orderRepo, productRepo)
	ctx := context.Background()

	widgetID := uuid.New()
	gadgetID := uuid.New()

	hour1 := time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC)
	hour2 := time.Date(2025, 6, 1, 11, 5, 0, 0, time.UTC)

	orders := []models.Order{
		{
			OrderID: "ORD1", Total: 110.00, CheckoutDuration: 2.0, CreatedAt: hour1,
			Items: []models.OrderItem{{ProductID: widgetID, Name: "Widget", Quantity: 2, UnitPrice: 50.00}},
		},
		{
			OrderID: "ORD2", Total: 55.00, CheckoutDuration: 4.0, CreatedAt: hour1,
			Items: []models.OrderItem{{ProductID: gadgetID, Name: "Gadget", Quantity: 1, UnitPrice: 50.00}},
		},
		{
			OrderID: "ORD3", Total: 11.00, CheckoutDuration: 3.0, CreatedAt: hour2,
			Items: []models.OrderItem{{ProductID: gadgetID, Name: "Gadget", Quantity: 1, UnitPrice: 10.00}},
		},
	}

	orderRepo.On("ListOrdersBetween", ctx, (*time.Time)(nil), (*time.Time)(nil)).Return(orders, nil).Once()
	productRepo.On("GetProductByID", ctx, widgetID).Return(&models.Product{ID: widgetID, Category: "tools"}, nil).Once()
	productRepo.On("GetProductByID", ctx, gadgetID).Return(&models.Product{ID: gadgetID, Category: "toys"}, nil).Once()

	summary, err := svc.SalesSummary(ctx, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalOrders)
	assert.Equal(t, 176.00, summary.TotalSales)
	assert.InDelta(t, 58.67, summary.AverageOrderValue, 0.001)
	assert.Equal(t, 3.0, summary.AverageCheckoutTime)
	assert.Equal(t, "2025-06-01 10:00", summary.PeakHour)

	require.Len(t, summary.HourlyBreakdown, 2)
	assert.Equal(t, 2, summary.HourlyBreakdown[0].Orders)
	assert.Equal(t, 165.00, summary.HourlyBreakdown[0].Sales)

	// Widget revenue 100.00 beats Gadget's 60.00.
	require.Len(t, summary.TopProducts, 2)
	assert.Equal(t, "Widget", summary.TopProducts[0].Name)
	assert.Equal(t, "tools", summary.TopProducts[0].Category)
	assert.Equal(t, 100.00, summary.TopProducts[0].Revenue)
	assert.Equal(t, int64(2), summary.TopProducts[0].UnitsSold)
}

func TestSalesSummaryEmptyLedger(t *testing.T) {
	orderRepo := repository.NewMockOrderRepository()
	productRepo := repository.NewMockProductRepository()
	svc := service.NewAnalyticsService(orderRepo, productRepo)
	ctx := context.Background()

	orderRepo.On("ListOrdersBetween", ctx, (*time.Time)(nil), (*time.Time)(nil)).Return([]models.Order{}, nil).Once()

	summary, err := svc.SalesSummary(ctx, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalOrders)
	assert.Equal(t, 0.0, summary.TotalSales)
	assert.Empty(t, summary.HourlyBreakdown)
	assert.Empty(t, summary.TopProducts)
}

func TestProductPerformance(t *testing.T) {
	orderRepo := repository.NewMockOrderRepository()
	productRepo := repository.NewMockProductRepository()
	svc := service.NewAnalyticsService(orderRepo, productRepo)
	ctx := context.Background()

	productID := uuid.New()

	productRepo.On("GetProductByID", ctx, productID).Return(&models.Product{
		ID:   productID,
		Name: "Widget",
		Sold: 3,
	}, nil).Once()

	orderRepo.On("ListOrdersBetween", ctx, (*time.Time)(nil), (*time.Time)(nil)).Return([]models.Order{
		{Items: []models.OrderItem{{ProductID: productID, Quantity: 2, UnitPrice: 25.00}}},
		{Items: []models.OrderItem{{ProductID: productID, Quantity: 1, UnitPrice: 25.00}}},
		{Items: []models.OrderItem{{ProductID: uuid.New(), Quantity: 5, UnitPrice: 1.00}}},
	}, nil).Once()

	performance, err := svc.ProductPerformance(ctx, productID)

	require.NoError(t, err)
	assert.Equal(t, "Widget", performance.Name)
	assert.Equal(t, int64(3), performance.Sold)
	assert.Equal(t, 75.00, performance.Revenue)
	assert.Equal(t, 2, performance.OrderCount)
}
