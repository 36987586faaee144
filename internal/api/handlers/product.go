package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/internal/utils"
	"github.com/kunalverma25/flash-sale-backend/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

// CreateProduct godoc
//	@Summary		Create a product
//	@Description	Adds a product to the sale catalogue with its sale window and initial stock.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		models.CreateProductRequest	true	"Product details"
//	@Success		201		{object}	models.Product				"Successfully created product"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/products [post]
func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create product input")
			return
		}

		product, err := h.productService.Create(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create product", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product created", slog.String("productId", product.ID.String()))
		response.Success(w, http.StatusCreated, product)
	}
}

// GetProduct godoc
//	@Summary		Get a product by ID
//	@Tags			Products
//	@Produce		json
//	@Param			id	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Product			"Successfully retrieved product"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid product ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Product not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/products/{id} [get]
func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		product, err := h.productService.Get(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

// UpdateProduct godoc
//	@Summary		Update a product
//	@Description	Partially updates product fields. Stock is not updatable here; use the restock endpoint.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param			product	body		models.UpdateProductRequest	true	"Fields to update"
//	@Success		200		{object}	models.Product				"Successfully updated product"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Product not found"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/products/{id} [patch]
func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update product input")
			return
		}

		product, err := h.productService.Update(r.Context(), id, &req)
		if err != nil {
			logger.Error("Failed to update product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product updated", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, product)
	}
}

// ListProducts godoc
//	@Summary		List products with pagination
//	@Tags			Products
//	@Produce		json
//	@Param			category	query		string											false	"Filter by category"
//	@Param			sortBy		query		string											false	"Sort key: price | sold | stock | newest"
//	@Param			active		query		bool											false	"Only active products"
//	@Param			page		query		int												false	"Page number (default: 1)"	minimum(1)
//	@Param			pageSize	query		int												false	"Items per page (default: 20, max: 100)"
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Product}	"Successfully retrieved products"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Router			/products [get]
func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		query := r.URL.Query()

		filter := models.ProductListFilter{
			Category:   query.Get("category"),
			SortBy:     query.Get("sortBy"),
			ActiveOnly: query.Get("active") == "true",
		}

		page, err := strconv.Atoi(query.Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		pageSize, err := strconv.Atoi(query.Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		products, total, err := h.productService.List(r.Context(), filter, page, pageSize)
		if err != nil {
			logger.Error("Failed to list products", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// CheckAvailability godoc
//	@Summary		Check whether a quantity of a product can be bought
//	@Description	Advisory check against current stock, sale window and active flag. Stock may change before checkout.
//	@Tags			Products
//	@Produce		json
//	@Param			id			path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Param			quantity	query		int						false	"Quantity to check (default: 1)"	minimum(1)
//	@Success		200			{object}	map[string]any			"Availability verdict"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid product ID format"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Router			/products/{id}/availability [get]
func (h *ProductHandler) CheckAvailability() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		qty, err := strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)
		if err != nil || qty < 1 {
			qty = 1
		}

		available, reason, err := h.productService.CheckAvailability(r.Context(), id, qty)
		if err != nil {
			response.Error(w, err)
			return
		}

		body := map[string]any{"available": available}
		if reason != "" {
			body["reason"] = reason
		}

		response.Success(w, http.StatusOK, body)
	}
}

// Restock godoc
//	@Summary		Add stock to a product
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param			stock	body		models.AdjustStockRequest	true	"Units to add"
//	@Success		200		{object}	models.Product				"Product with updated stock"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Product not found"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/products/{id}/restock [post]
func (h *ProductHandler) Restock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		var req models.AdjustStockRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid restock input")
			return
		}

		product, err := h.productService.Restock(r.Context(), id, req.Quantity)
		if err != nil {
			logger.Error("Failed to restock product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product restocked", slog.String("productId", id.String()), slog.Int64("quantity", req.Quantity))
		response.Success(w, http.StatusOK, product)
	}
}
