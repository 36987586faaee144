package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	appErrors "github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCartServiceTest() (service.CartService, *repository.MockCartRepository, *repository.MockProductRepository, *mocks.ProductService) {
	cartRepo := repository.NewMockCartRepository()
	productRepo := repository.NewMockProductRepository()
	productService := new(mocks.ProductService)

	return service.NewCartService(cartRepo, productRepo, productService), cartRepo, productRepo, productService
}

func TestGetCartCreatesOnFirstUse(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	cartRepo.On("GetCartByUserID", ctx, userID).Return(nil, sql.ErrNoRows).Once()
	cartRepo.On("CreateCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

	cart, err := svc.GetCart(ctx, userID)

	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, userID, cart.UserID)
	assert.Empty(t, cart.Items)
	cartRepo.AssertExpectations(t)
}

func TestGetCartReturnsExisting(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	existing := &models.Cart{ID: uuid.New(), UserID: userID, Items: map[string]models.CartItem{}}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(existing, nil).Once()

	cart, err := svc.GetCart(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, cart.ID)
	cartRepo.AssertNotCalled(t, "CreateCart", mock.Anything, mock.Anything)
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	svc, cartRepo, productRepo, productService := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	cart := &models.Cart{ID: uuid.New(), UserID: userID, Items: map[string]models.CartItem{}}
	product := &models.Product{ID: productID, Name: "Flash Widget", Price: 12.50, Stock: 10, IsActive: true}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()
	productService.On("CheckAvailability", ctx, productID, int64(2)).Return(true, "", nil).Once()
	productRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
	cartRepo.On("UpdateCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

	updated, err := svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID, Quantity: 2})

	require.NoError(t, err)
	item := updated.Items[productID.String()]
	assert.Equal(t, int64(2), item.Quantity)
	assert.Equal(t, 12.50, item.UnitPrice)
	assert.Equal(t, 25.00, item.TotalPrice)
	assert.Equal(t, 25.00, updated.Total)
	cartRepo.AssertExpectations(t)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	svc, cartRepo, productRepo, productService := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: map[string]models.CartItem{
			productID.String(): {ProductID: productID, Name: "Flash Widget", Quantity: 1, UnitPrice: 12.50, TotalPrice: 12.50},
		},
	}
	product := &models.Product{ID: productID, Name: "Flash Widget", Price: 12.50, Stock: 10, IsActive: true}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()
	// Availability is checked for the merged quantity, not the delta.
	productService.On("CheckAvailability", ctx, productID, int64(3)).Return(true, "", nil).Once()
	productRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
	cartRepo.On("UpdateCart", ctx, mock.Anything).Return(nil).Once()

	updated, err := svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID, Quantity: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Items[productID.String()].Quantity)
	productService.AssertExpectations(t)
}

func TestAddItemUnavailable(t *testing.T) {
	svc, cartRepo, _, productService := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	cart := &models.Cart{ID: uuid.New(), UserID: userID, Items: map[string]models.CartItem{}}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()
	productService.On("CheckAvailability", ctx, productID, int64(5)).Return(false, "only 2 items available", nil).Once()

	updated, err := svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID, Quantity: 5})

	require.Error(t, err)
	assert.Nil(t, updated)

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeStateConflict, appErr.Code)
	assert.Contains(t, appErr.Details, "only 2 items available")
	cartRepo.AssertNotCalled(t, "UpdateCart", mock.Anything, mock.Anything)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: map[string]models.CartItem{
			productID.String(): {ProductID: productID, Quantity: 2, UnitPrice: 10, TotalPrice: 20},
		},
	}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()
	cartRepo.On("UpdateCart", ctx, mock.Anything).Return(nil).Once()

	updated, err := svc.UpdateQuantity(ctx, userID, &models.UpdateQuantityRequest{ProductID: productID, Quantity: 0})

	require.NoError(t, err)
	assert.Empty(t, updated.Items)
	assert.Equal(t, float64(0), updated.Total)
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	cart := &models.Cart{ID: uuid.New(), UserID: userID, Items: map[string]models.CartItem{}}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()

	updated, err := svc.UpdateQuantity(ctx, userID, &models.UpdateQuantityRequest{ProductID: uuid.New(), Quantity: 1})

	require.Error(t, err)
	assert.Nil(t, updated)

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
}

func TestRemoveItem(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: map[string]models.CartItem{
			productID.String(): {ProductID: productID, Quantity: 1, UnitPrice: 10, TotalPrice: 10},
		},
	}

	cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil).Once()
	cartRepo.On("UpdateCart", ctx, mock.Anything).Return(nil).Once()

	updated, err := svc.RemoveItem(ctx, userID, productID)

	require.NoError(t, err)
	assert.Empty(t, updated.Items)
}

func TestClearCartIgnoresMissingCart(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	cartRepo.On("ClearCart", ctx, userID).Return(sql.ErrNoRows).Once()

	assert.NoError(t, svc.Clear(ctx, userID))
}

func TestClearCartDatabaseError(t *testing.T) {
	svc, cartRepo, _, _ := setupCartServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	cartRepo.On("ClearCart", ctx, userID).Return(errors.New("connection refused")).Once()

	err := svc.Clear(ctx, userID)
	require.Error(t, err)

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
}
