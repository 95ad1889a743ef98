package transport

import (
	"fmt"
	"net/http"
	"strings"

	"catalog/internal/config"
	"catalog/internal/middleware"
	"catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	pagination     config.PaginationConfig
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, pagination config.PaginationConfig, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		pagination:     pagination,
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes. Reads are public; writes go through
// editorMiddleware, which must authenticate the caller.
func (h *ProductHandler) RegisterRoutes(r chi.Router, editorMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(editorMiddleware)
			r.Use(middleware.RequireRole(middleware.CatalogEditors, h.logger))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /products?categoryId=&name=&page=&size=&sort=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r, h.pagination)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list products")
		return
	}

	categoryIDs, err := parseCategoryIDs(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list products")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))

	page, err := h.productService.FindAllPaged(r.Context(), categoryIDs, name, pageReq)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to get product")
		return
	}

	product, err := h.productService.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ProductDTO
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	product, err := h.productService.Insert(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create product")
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update product")
		return
	}

	var req service.ProductDTO
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.Int64("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete product")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}
