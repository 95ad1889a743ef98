package service

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/database"
	"catalog/internal/domain"
	"catalog/internal/repository"
)

// CategoryService defines the interface for category business logic
type CategoryService interface {
	FindAllPaged(ctx context.Context, req domain.PageRequest) (domain.Page[CategoryDTO], error)
	FindByID(ctx context.Context, id int64) (*CategoryDTO, error)
	Insert(ctx context.Context, dto CategoryDTO) (*CategoryDTO, error)
	Update(ctx context.Context, id int64, dto CategoryDTO) (*CategoryDTO, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	db           database.DBTX
	tx           database.Transactor
	categoryRepo repository.CategoryRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(db database.DBTX, tx database.Transactor, categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{db: db, tx: tx, categoryRepo: categoryRepo}
}

func (s *categoryService) FindAllPaged(ctx context.Context, req domain.PageRequest) (domain.Page[CategoryDTO], error) {
	if err := validatePageRequest(req); err != nil {
		return domain.Page[CategoryDTO]{}, err
	}

	var page domain.Page[domain.Category]
	err := s.tx.WithinTx(ctx, database.ReadSnapshot, func(q database.DBTX) error {
		categories, total, err := s.categoryRepo.FindPage(ctx, q, req)
		if err != nil {
			return err
		}
		page = domain.NewPage(categories, req, total)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUnknownSortProperty) {
			return domain.Page[CategoryDTO]{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return domain.Page[CategoryDTO]{}, fmt.Errorf("failed to list categories: %w", err)
	}

	return domain.MapPage(page, newCategoryDTO), nil
}

func (s *categoryService) FindByID(ctx context.Context, id int64) (*CategoryDTO, error) {
	category, err := s.categoryRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, translateCategoryError(err, id, "get")
	}

	dto := newCategoryDTO(*category)
	return &dto, nil
}

func (s *categoryService) Insert(ctx context.Context, dto CategoryDTO) (*CategoryDTO, error) {
	category := &domain.Category{Name: dto.Name}
	if err := s.categoryRepo.Create(ctx, s.db, category); err != nil {
		return nil, translateCategoryError(err, 0, "create")
	}

	result := newCategoryDTO(*category)
	return &result, nil
}

func (s *categoryService) Update(ctx context.Context, id int64, dto CategoryDTO) (*CategoryDTO, error) {
	category := &domain.Category{ID: id, Name: dto.Name}
	if err := s.categoryRepo.Update(ctx, s.db, category); err != nil {
		return nil, translateCategoryError(err, id, "update")
	}

	result := newCategoryDTO(*category)
	return &result, nil
}

// Delete removes a category. Categories still linked to products yield ErrDatabaseConflict.
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	if err := s.categoryRepo.Delete(ctx, s.db, id); err != nil {
		return translateCategoryError(err, id, "delete")
	}
	return nil
}

func translateCategoryError(err error, id int64, op string) error {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return fmt.Errorf("%w: category %d", ErrResourceNotFound, id)
	case errors.Is(err, repository.ErrIntegrityViolation):
		return fmt.Errorf("%w: category %d is linked to products", ErrDatabaseConflict, id)
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		return fmt.Errorf("%w: %v", ErrDatabaseConflict, err)
	default:
		return fmt.Errorf("failed to %s category: %w", op, err)
	}
}
