package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/internal/utils"
	"github.com/kunalverma25/flash-sale-backend/internal/utils/response"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// SalesSummary godoc
//	@Summary		Sales summary
//	@Description	Aggregates the order ledger: totals, hourly breakdown, peak hour and top products by revenue. Optional RFC 3339 bounds.
//	@Tags			Analytics
//	@Produce		json
//	@Param			from	query		string						false	"Start of range (RFC 3339)"
//	@Param			to		query		string						false	"End of range (RFC 3339)"
//	@Success		200		{object}	models.SalesAnalytics		"Sales summary"
//	@Failure		400		{object}	response.ErrorResponse		"Invalid time bound"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/analytics/sales [get]
func (h *AnalyticsHandler) SalesSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		from, err := parseTimeBound(r.URL.Query().Get("from"))
		if err != nil {
			response.Error(w, errors.ValidationError("Invalid 'from' time bound").WithError(err))
			return
		}

		to, err := parseTimeBound(r.URL.Query().Get("to"))
		if err != nil {
			response.Error(w, errors.ValidationError("Invalid 'to' time bound").WithError(err))
			return
		}

		summary, err := h.analyticsService.SalesSummary(r.Context(), from, to)
		if err != nil {
			logger.Error("Failed to build sales summary", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, summary)
	}
}

// ProductPerformance godoc
//	@Summary		Per-product sales performance
//	@Tags			Analytics
//	@Produce		json
//	@Param			id	path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.ProductPerformance	"Product performance"
//	@Failure		400	{object}	response.ErrorResponse		"Invalid product ID format"
//	@Failure		401	{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse		"Product not found"
//	@Failure		500	{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/analytics/products/{id} [get]
func (h *AnalyticsHandler) ProductPerformance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		performance, err := h.analyticsService.ProductPerformance(r.Context(), id)
		if err != nil {
			logger.Error("Failed to load product performance", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, performance)
	}
}

// Traffic godoc
//	@Summary		Traffic statistics
//	@Description	Dashboard traffic figures. These are representative values, not live measurements.
//	@Tags			Analytics
//	@Produce		json
//	@Success		200	{object}	models.TrafficStats	"Traffic statistics"
//	@Security		BearerAuth
//	@Router			/analytics/traffic [get]
func (h *AnalyticsHandler) Traffic() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.analyticsService.Traffic(r.Context()))
	}
}

func parseTimeBound(raw string) (*time.Time, error) {

	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
