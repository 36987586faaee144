package service

import (
	"context"
	"database/sql"
	goerrors "errors"

	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	products    ProductService
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, products ProductService) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		products:    products,
	}
}

// GetCart returns the user's cart, creating an empty one on first use.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !goerrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	cart = &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items:  map[string]models.CartItem{},
	}

	if err := s.cartRepo.CreateCart(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to create cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := req.ProductID.String()

	requested := req.Quantity
	if existing, ok := cart.Items[key]; ok {
		requested += existing.Quantity
	}

	available, reason, err := s.products.CheckAvailability(ctx, req.ProductID, requested)
	if err != nil {
		return nil, err
	}

	if !available {
		return nil, errors.StateConflictError("Cannot add item to cart").WithDetails([]string{reason})
	}

	// The price is snapshotted here, not at checkout: what the buyer saw
	// when adding is what they pay.
	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load product").WithError(err)
	}

	cart.Items[key] = models.CartItem{
		ProductID:  req.ProductID,
		Name:       product.Name,
		Quantity:   requested,
		UnitPrice:  product.Price,
		TotalPrice: lineTotal(product.Price, requested),
	}

	return s.save(ctx, cart)
}

// UpdateQuantity sets the line to the given quantity; zero removes it.
func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := req.ProductID.String()

	item, ok := cart.Items[key]
	if !ok {
		return nil, errors.NotFoundError("Item is not in the cart")
	}

	if req.Quantity == 0 {
		delete(cart.Items, key)
		return s.save(ctx, cart)
	}

	available, reason, err := s.products.CheckAvailability(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}

	if !available {
		return nil, errors.StateConflictError("Cannot update item quantity").WithDetails([]string{reason})
	}

	item.Quantity = req.Quantity
	item.TotalPrice = lineTotal(item.UnitPrice, req.Quantity)
	cart.Items[key] = item

	return s.save(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*models.Cart, error) {

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := productID.String()

	if _, ok := cart.Items[key]; !ok {
		return nil, errors.NotFoundError("Item is not in the cart")
	}

	delete(cart.Items, key)

	return s.save(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {

	if err := s.cartRepo.ClearCart(ctx, userID); err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return errors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}

func (s *cartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {

	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(decimal.NewFromFloat(item.TotalPrice))
	}
	cart.Total, _ = total.Round(2).Float64()

	if err := s.cartRepo.UpdateCart(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to save cart").WithError(err)
	}

	return cart, nil
}

func lineTotal(unitPrice float64, qty int64) float64 {
	t, _ := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(qty)).Round(2).Float64()
	return t
}
