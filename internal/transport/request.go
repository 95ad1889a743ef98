package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catalog/internal/config"
	"catalog/internal/domain"
	"catalog/internal/middleware"
	"catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errBadQuery = errors.New("invalid query parameter")

// decodeBody decodes and validates a JSON body, writing the 400 response itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(w, r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, r, validationErrors)
			return false
		}

		middleware.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service outcome kinds onto HTTP statuses.
// Unclassified errors are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, failure string) {
	switch {
	case errors.Is(err, service.ErrResourceNotFound):
		logger.Debug("Resource not found", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDatabaseConflict):
		logger.Debug("Write refused", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, errBadQuery):
		logger.Debug("Invalid request", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error(failure, zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, r, http.StatusInternalServerError, strings.ToLower(failure))
	}
}

// pathID reads the positive integer {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errBadQuery, raw)
	}
	return id, nil
}

// parsePageRequest reads page, size and sort. Sort may repeat: sort=name,asc&sort=price,desc.
func parsePageRequest(r *http.Request, cfg config.PaginationConfig) (domain.PageRequest, error) {
	query := r.URL.Query()
	req := domain.PageRequest{Page: 0, Size: cfg.DefaultSize}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return domain.PageRequest{}, fmt.Errorf("%w: page %q", errBadQuery, raw)
		}
		req.Page = page
	}

	if raw := query.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > cfg.MaxSize {
			return domain.PageRequest{}, fmt.Errorf("%w: size %q must be between 1 and %d", errBadQuery, raw, cfg.MaxSize)
		}
		req.Size = size
	}

	for _, raw := range query["sort"] {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		order, err := domain.ParseSortOrder(raw)
		if err != nil {
			return domain.PageRequest{}, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		req.Sort = append(req.Sort, order)
	}

	return req, nil
}

// parseCategoryIDs reads categoryId, repeated or comma separated. 0 stands for "any category".
func parseCategoryIDs(r *http.Request) ([]int64, error) {
	var ids []int64
	for _, value := range r.URL.Query()["categoryId"] {
		for _, raw := range strings.Split(value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id < 0 {
				return nil, fmt.Errorf("%w: categoryId %q", errBadQuery, raw)
			}
			if id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return domain.UniqueIDs(ids), nil
}
