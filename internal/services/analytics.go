package service

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const topProductCount = 5

type AnalyticsService interface {
	SalesSummary(ctx context.Context, from, to *time.Time) (*models.SalesAnalytics, error)
	ProductPerformance(ctx context.Context, productID uuid.UUID) (*models.ProductPerformance, error)
	Traffic(ctx context.Context) *models.TrafficStats
}

type analyticsService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

func NewAnalyticsService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) AnalyticsService {
	return &analyticsService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// SalesSummary aggregates the order ledger in memory. A flash sale's
// ledger is hours of data, not years, so a single scan beats maintaining
// rollup tables.
func (s *analyticsService) SalesSummary(ctx context.Context, from, to *time.Time) (*models.SalesAnalytics, error) {

	orders, err := s.orderRepo.ListOrdersBetween(ctx, from, to)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load orders").WithError(err)
	}

	summary := &models.SalesAnalytics{
		TotalOrders:     len(orders),
		HourlyBreakdown: []models.HourlySales{},
		TopProducts:     []models.TopProduct{},
	}

	if len(orders) == 0 {
		return summary, nil
	}

	totalSales := decimal.Zero
	totalCheckout := decimal.Zero

	type hourBucket struct {
		orders int
		sales  decimal.Decimal
	}

	hours := map[string]*hourBucket{}

	type productBucket struct {
		name     string
		category string
		units    int64
		revenue  decimal.Decimal
	}

	products := map[uuid.UUID]*productBucket{}

	for _, order := range orders {

		totalSales = totalSales.Add(decimal.NewFromFloat(order.Total))
		totalCheckout = totalCheckout.Add(decimal.NewFromFloat(order.CheckoutDuration))

		hour := order.CreatedAt.UTC().Format("2006-01-02 15:00")

		bucket, ok := hours[hour]
		if !ok {
			bucket = &hourBucket{}
			hours[hour] = bucket
		}

		bucket.orders++
		bucket.sales = bucket.sales.Add(decimal.NewFromFloat(order.Total))

		for _, item := range order.Items {

			pb, ok := products[item.ProductID]
			if !ok {
				pb = &productBucket{name: item.Name}
				products[item.ProductID] = pb
			}

			pb.units += item.Quantity
			pb.revenue = pb.revenue.Add(decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(item.Quantity)))
		}
	}

	summary.TotalSales, _ = totalSales.Round(2).Float64()

	avgOrder := totalSales.Div(decimal.NewFromInt(int64(len(orders))))
	summary.AverageOrderValue, _ = avgOrder.Round(2).Float64()

	avgCheckout := totalCheckout.Div(decimal.NewFromInt(int64(len(orders))))
	summary.AverageCheckoutTime, _ = avgCheckout.Round(2).Float64()

	for hour, bucket := range hours {

		sales, _ := bucket.sales.Round(2).Float64()

		summary.HourlyBreakdown = append(summary.HourlyBreakdown, models.HourlySales{
			Hour:   hour,
			Orders: bucket.orders,
			Sales:  sales,
		})
	}

	sort.Slice(summary.HourlyBreakdown, func(i, j int) bool {
		return summary.HourlyBreakdown[i].Hour < summary.HourlyBreakdown[j].Hour
	})

	peak := models.HourlySales{}
	for _, h := range summary.HourlyBreakdown {
		if h.Orders > peak.Orders {
			peak = h
		}
	}
	summary.PeakHour = peak.Hour

	// Categories live on the product rows, not the order snapshots.
	for id, pb := range products {
		if product, err := s.productRepo.GetProductByID(ctx, id); err == nil {
			pb.category = product.Category
		}
	}

	type rankedProduct struct {
		id uuid.UUID
		pb *productBucket
	}

	ranked := make([]rankedProduct, 0, len(products))
	for id, pb := range products {
		ranked = append(ranked, rankedProduct{id: id, pb: pb})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].pb.revenue.GreaterThan(ranked[j].pb.revenue)
	})

	if len(ranked) > topProductCount {
		ranked = ranked[:topProductCount]
	}

	for _, rp := range ranked {

		revenue, _ := rp.pb.revenue.Round(2).Float64()

		summary.TopProducts = append(summary.TopProducts, models.TopProduct{
			Name:      rp.pb.name,
			Category:  rp.pb.category,
			UnitsSold: rp.pb.units,
			Revenue:   revenue,
		})
	}

	return summary, nil
}

func (s *analyticsService) ProductPerformance(ctx context.Context, productID uuid.UUID) (*models.ProductPerformance, error) {

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found")
		}
		return nil, errors.DatabaseError("Failed to load product").WithError(err)
	}

	orders, err := s.orderRepo.ListOrdersBetween(ctx, nil, nil)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load orders").WithError(err)
	}

	revenue := decimal.Zero
	orderCount := 0

	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				revenue = revenue.Add(decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(item.Quantity)))
				orderCount++
				break
			}
		}
	}

	rev, _ := revenue.Round(2).Float64()

	return &models.ProductPerformance{
		ProductID:  product.ID.String(),
		Name:       product.Name,
		Sold:       product.Sold,
		Revenue:    rev,
		OrderCount: orderCount,
	}, nil
}

// Traffic returns dashboard filler; no traffic pipeline exists.
func (s *analyticsService) Traffic(ctx context.Context) *models.TrafficStats {

	hour := time.Now().UTC().Format("15:00")

	return &models.TrafficStats{
		TotalVisitors:          15420,
		UniqueVisitors:         12356,
		PeakTrafficTime:        fmt.Sprintf("%s UTC", hour),
		AverageSessionDuration: 245,
		BounceRate:             23.5,
		ConversionRate:         8.2,
	}
}
