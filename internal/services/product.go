package service

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/cache"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/events"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService interface {
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	List(ctx context.Context, filter models.ProductListFilter, page, size int) ([]*models.Product, int, error)

	// CheckAvailability answers whether qty units can be bought right now
	// and, when they cannot, why. Advisory only: the answer can go stale
	// the moment it is returned.
	CheckAvailability(ctx context.Context, id uuid.UUID, qty int64) (bool, string, error)

	Restock(ctx context.Context, id uuid.UUID, qty int64) (*models.Product, error)

	// ExpireEndedSales deactivates active products whose sale window has
	// passed and announces the end of the sale. Returns how many were
	// closed. Meant to run on a timer.
	ExpireEndedSales(ctx context.Context) (int, error)
}

// One sweep covers up to this many active products; anything beyond is
// picked up by the next tick.
const expireSweepSize = 100

type productService struct {
	productRepo repository.ProductRepository
	cache       cache.Cache
	publisher   events.Publisher
	cacheTTL    time.Duration
	sanitizer   *bluemonday.Policy
	now         func() time.Time
}

func NewProductService(productRepo repository.ProductRepository, cacheStore cache.Cache, publisher events.Publisher, cacheTTL time.Duration) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       cacheStore,
		publisher:   publisher,
		cacheTTL:    cacheTTL,
		sanitizer:   bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

func (s *productService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	if req.Price > req.OriginalPrice {
		return nil, errors.ValidationError("Sale price cannot exceed the original price")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	product := &models.Product{
		ID:            uuid.New(),
		Name:          s.sanitizer.Sanitize(req.Name),
		Description:   s.sanitizer.Sanitize(req.Description),
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      s.sanitizer.Sanitize(req.Category),
		Image:         req.Image,
		Stock:         req.Stock,
		IsActive:      active,
		SaleStartTime: req.SaleStartTime,
		SaleEndTime:   req.SaleEndTime,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	product.ComputeDiscount()

	return product, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	key := cache.Key(cache.ProductKeyPrefix, id.String())

	if s.cache != nil {
		var cached models.Product

		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found")
		}
		return nil, errors.DatabaseError("Failed to load product").WithError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, product, s.cacheTTL); err != nil {
			middleware.LoggerFromContext(ctx).Warn("Failed to cache product", slog.Any("error", err))
		}
	}

	return product, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found")
		}
		return nil, errors.DatabaseError("Failed to load product").WithError(err)
	}

	if req.Name != nil {
		product.Name = s.sanitizer.Sanitize(*req.Name)
	}
	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		product.OriginalPrice = *req.OriginalPrice
	}
	if req.Category != nil {
		product.Category = s.sanitizer.Sanitize(*req.Category)
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.SaleStartTime != nil {
		product.SaleStartTime = *req.SaleStartTime
	}
	if req.SaleEndTime != nil {
		product.SaleEndTime = *req.SaleEndTime
	}

	if product.Price > product.OriginalPrice {
		return nil, errors.ValidationError("Sale price cannot exceed the original price")
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to update product").WithError(err)
	}

	product.ComputeDiscount()
	s.invalidate(ctx, id)

	return product, nil
}

func (s *productService) List(ctx context.Context, filter models.ProductListFilter, page, size int) ([]*models.Product, int, error) {

	products, total, err := s.productRepo.ListProducts(ctx, filter, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) CheckAvailability(ctx context.Context, id uuid.UUID, qty int64) (bool, string, error) {

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return false, "product not found", nil
		}
		return false, "", errors.DatabaseError("Failed to load product").WithError(err)
	}

	now := s.now()

	switch {
	case !product.IsActive:
		return false, "product is not available", nil
	case now.Before(product.SaleStartTime):
		return false, "sale has not started", nil
	case now.After(product.SaleEndTime):
		return false, "sale has ended", nil
	case product.Stock < qty:
		return false, fmt.Sprintf("only %d items available", product.Stock), nil
	}

	return true, "", nil
}

func (s *productService) Restock(ctx context.Context, id uuid.UUID, qty int64) (*models.Product, error) {

	newStock, err := s.productRepo.IncrementStock(ctx, id, qty, false)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found")
		}
		return nil, errors.DatabaseError("Failed to restock product").WithError(err)
	}

	s.invalidate(ctx, id)

	if err := s.publisher.PublishStockUpdate(ctx, id, newStock); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to publish stock update",
			slog.String("productId", id.String()), slog.Any("error", err))
	}

	return s.Get(ctx, id)
}

func (s *productService) ExpireEndedSales(ctx context.Context) (int, error) {

	logger := middleware.LoggerFromContext(ctx)

	products, _, err := s.productRepo.ListProducts(ctx, models.ProductListFilter{ActiveOnly: true}, 1, expireSweepSize)
	if err != nil {
		return 0, errors.DatabaseError("Failed to list active products").WithError(err)
	}

	now := s.now()
	expired := 0

	for _, product := range products {
		if !now.After(product.SaleEndTime) {
			continue
		}

		product.IsActive = false

		if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
			logger.Error("Failed to deactivate ended sale",
				slog.String("productId", product.ID.String()), slog.Any("error", err))
			continue
		}

		s.invalidate(ctx, product.ID)
		expired++

		logger.Info("Sale window closed", slog.String("productId", product.ID.String()), slog.String("name", product.Name))
	}

	if expired > 0 {
		if err := s.publisher.PublishSaleEnded(ctx); err != nil {
			logger.Warn("Failed to publish sale ended", slog.Any("error", err))
		}
	}

	return expired, nil
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, cache.Key(cache.ProductKeyPrefix, id.String())); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to invalidate product cache",
			slog.String("productId", id.String()), slog.Any("error", err))
	}
}
