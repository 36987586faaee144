package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/internal/utils"
	"github.com/kunalverma25/flash-sale-backend/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
	validator       *validator.Validate
}

func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		validator:       validator.New(),
	}
}

// Checkout godoc
//	@Summary		Check out the current cart
//	@Description	Reserves stock for every cart line, charges the payment gateway and records the order. On a stock conflict every violating line is reported and nothing is charged.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			checkout	body		models.CheckoutRequest	true	"Checkout details"
//	@Success		201			{object}	models.Order			"Successfully created order"
//	@Failure		400			{object}	response.ErrorResponse	"Validation error"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409			{object}	response.ErrorResponse	"Empty cart or insufficient stock"
//	@Failure		500			{object}	response.ErrorResponse	"Payment or persistence failure"
//	@Security		BearerAuth
//	@Router			/checkout [post]
func (h *OrderHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized checkout attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.CheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid checkout input")
			return
		}

		order, err := h.checkoutService.Checkout(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Warn("Checkout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Checkout completed",
			slog.String("orderId", order.OrderID),
			slog.Float64("total", order.Total),
			slog.Float64("checkoutDuration", order.CheckoutDuration))
		response.Success(w, http.StatusCreated, order)
	}
}

// GetOrder godoc
//	@Summary		Get an order by its public ID
//	@Description	Retrieves one of the authenticated user's orders. Another user's order reads as not found.
//	@Tags			Orders
//	@Produce		json
//	@Param			orderId	path		string					true	"Public order ID (ORD...)"
//	@Success		200		{object}	models.Order			"Successfully retrieved order"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Order not found"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{orderId} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order access attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		orderID := r.PathValue("orderId")
		if orderID == "" {
			response.Error(w, errors.BadRequestError("Order ID is required"))
			return
		}

		order, err := h.orderService.GetByOrderID(r.Context(), claims.UserID, orderID)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderId", orderID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary		List own orders with pagination
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"	minimum(1)
//	@Param			pageSize	query		int												false	"Items per page (default: 10, max: 100)"
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order list attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		orders, total, err := h.orderService.ListByUser(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}
