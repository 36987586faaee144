package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"original_price"`
	// Derived from Price/OriginalPrice, never stored.
	DiscountPercent int       `json:"discount_percent"`
	Category        string    `json:"category"`
	Image           string    `json:"image"`
	Stock           int64     `json:"stock"`
	Sold            int64     `json:"sold"`
	IsActive        bool      `json:"is_active"`
	SaleStartTime   time.Time `json:"sale_start_time"`
	SaleEndTime     time.Time `json:"sale_end_time"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ComputeDiscount fills DiscountPercent from the two prices.
func (p *Product) ComputeDiscount() {
	if p.OriginalPrice <= 0 {
		p.DiscountPercent = 0
		return
	}

	p.DiscountPercent = int((1-p.Price/p.OriginalPrice)*100 + 0.5)
}

type CreateProductRequest struct {
	Name          string    `json:"name" validate:"required,min=3,max=200"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price" validate:"required,gt=0"`
	OriginalPrice float64   `json:"original_price" validate:"required,gt=0"`
	Category      string    `json:"category" validate:"required"`
	Image         string    `json:"image,omitempty"`
	Stock         int64     `json:"stock" validate:"gte=0"`
	IsActive      *bool     `json:"is_active,omitempty"`
	SaleStartTime time.Time `json:"sale_start_time" validate:"required"`
	SaleEndTime   time.Time `json:"sale_end_time" validate:"required,gtfield=SaleStartTime"`
}

type UpdateProductRequest struct {
	Name          *string    `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string    `json:"description,omitempty"`
	Price         *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	OriginalPrice *float64   `json:"original_price,omitempty" validate:"omitempty,gt=0"`
	Category      *string    `json:"category,omitempty"`
	Image         *string    `json:"image,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	SaleStartTime *time.Time `json:"sale_start_time,omitempty"`
	SaleEndTime   *time.Time `json:"sale_end_time,omitempty"`
}

// AdjustStockRequest is the administrative stock interface. Checkout is
// the only other writer of the stock counter.
type AdjustStockRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type ProductListFilter struct {
	Category   string
	SortBy     string // price | sold | stock | newest
	ActiveOnly bool
}
