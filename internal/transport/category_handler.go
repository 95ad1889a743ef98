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

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categoryService service.CategoryService
	pagination      config.PaginationConfig
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, pagination config.PaginationConfig, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		pagination:      pagination,
		logger:          logger,
	}
}

// RegisterRoutes registers the category routes. Deleting a category is reserved to admins.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, editorMiddleware func(http.Handler) http.Handler) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(editorMiddleware)
			r.With(middleware.RequireRole(middleware.CatalogEditors, h.logger)).Post("/", h.Create)
			r.With(middleware.RequireRole(middleware.CatalogEditors, h.logger)).Put("/{id}", h.Update)
			r.With(middleware.RequireAdmin(h.logger)).Delete("/{id}", h.Delete)
		})
	})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r, h.pagination)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list categories")
		return
	}

	page, err := h.categoryService.FindAllPaged(r.Context(), pageReq)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to get category")
		return
	}

	category, err := h.categoryService.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryDTO
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	category, err := h.categoryService.Insert(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create category")
		return
	}

	h.logger.Info("Category created", zap.Int64("category_id", category.ID))
	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), category.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update category")
		return
	}

	var req service.CategoryDTO
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete category")
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete category")
		return
	}

	h.logger.Info("Category deleted", zap.Int64("category_id", id))
	w.WriteHeader(http.StatusNoContent)
}
