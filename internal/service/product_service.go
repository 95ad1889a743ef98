package service

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/database"
	"catalog/internal/domain"
	"catalog/internal/repository"
)

// ProductService defines the interface for product business logic
type ProductService interface {
	FindAllPaged(ctx context.Context, categoryIDs []int64, name string, req domain.PageRequest) (domain.Page[ProductDTO], error)
	FindByID(ctx context.Context, id int64) (*ProductDTO, error)
	Insert(ctx context.Context, dto ProductDTO) (*ProductDTO, error)
	Update(ctx context.Context, id int64, dto ProductDTO) (*ProductDTO, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	db           database.DBTX
	tx           database.Transactor
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService.
// Single statements run on db; listings and writes run inside tx.
func NewProductService(
	db database.DBTX,
	tx database.Transactor,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) ProductService {
	return &productService{
		db:           db,
		tx:           tx,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// FindAllPaged lists one page of products with their categories.
// The page is selected first and its categories loaded second, both from the same snapshot.
func (s *productService) FindAllPaged(ctx context.Context, categoryIDs []int64, name string, req domain.PageRequest) (domain.Page[ProductDTO], error) {
	if err := validatePageRequest(req); err != nil {
		return domain.Page[ProductDTO]{}, err
	}

	filter := repository.ProductFilter{CategoryIDs: categoryIDs, Name: name}

	var page domain.Page[domain.Product]
	err := s.tx.WithinTx(ctx, database.ReadSnapshot, func(q database.DBTX) error {
		products, total, err := s.productRepo.FindPage(ctx, q, filter, req)
		if err != nil {
			return err
		}

		ids := make([]int64, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}

		hydrated, err := s.productRepo.FindWithCategories(ctx, q, ids)
		if err != nil {
			return err
		}

		byID := make(map[int64]domain.Product, len(hydrated))
		for _, p := range hydrated {
			byID[p.ID] = p
		}
		for i, p := range products {
			full, ok := byID[p.ID]
			if !ok {
				return fmt.Errorf("%w: product %d", repository.ErrInconsistentPage, p.ID)
			}
			products[i] = full
		}

		page = domain.NewPage(products, req, total)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUnknownSortProperty) {
			return domain.Page[ProductDTO]{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return domain.Page[ProductDTO]{}, fmt.Errorf("failed to list products: %w", err)
	}

	return domain.MapPage(page, newProductDTO), nil
}

// FindByID returns a product with its categories
func (s *productService) FindByID(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.productRepo.FindByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrResourceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	dto := newProductDTO(*product)
	return &dto, nil
}

// Insert stores a new product. Every referenced category must exist before anything is written.
func (s *productService) Insert(ctx context.Context, dto ProductDTO) (*ProductDTO, error) {
	if dto.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	var created *domain.Product
	err := s.tx.WithinTx(ctx, nil, func(q database.DBTX) error {
		categories, err := resolveCategories(ctx, q, s.categoryRepo, dto.CategoryIDs())
		if err != nil {
			return err
		}

		product := &domain.Product{}
		applyProductDTO(product, dto, categories)
		if err := s.productRepo.Create(ctx, q, product); err != nil {
			return err
		}

		created, err = s.productRepo.FindByID(ctx, q, product.ID)
		return err
	})
	if err != nil {
		return nil, translateProductWrite(err, 0)
	}

	result := newProductDTO(*created)
	return &result, nil
}

// Update overwrites every scalar of the product and replaces its category set.
func (s *productService) Update(ctx context.Context, id int64, dto ProductDTO) (*ProductDTO, error) {
	if dto.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	var updated *domain.Product
	err := s.tx.WithinTx(ctx, nil, func(q database.DBTX) error {
		categories, err := resolveCategories(ctx, q, s.categoryRepo, dto.CategoryIDs())
		if err != nil {
			return err
		}

		if err := s.productRepo.LockByID(ctx, q, id); err != nil {
			return err
		}

		product := &domain.Product{ID: id}
		applyProductDTO(product, dto, categories)
		if err := s.productRepo.Update(ctx, q, product); err != nil {
			return err
		}

		updated, err = s.productRepo.FindByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, translateProductWrite(err, id)
	}

	result := newProductDTO(*updated)
	return &result, nil
}

// Delete removes a product. A missing product is ErrResourceNotFound and a
// product still referenced elsewhere is ErrDatabaseConflict.
func (s *productService) Delete(ctx context.Context, id int64) error {
	err := s.productRepo.Delete(ctx, s.db, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrProductNotFound):
		return fmt.Errorf("%w: product %d", ErrResourceNotFound, id)
	case errors.Is(err, repository.ErrIntegrityViolation):
		return fmt.Errorf("%w: product %d is referenced by other records", ErrDatabaseConflict, id)
	default:
		return fmt.Errorf("failed to delete product: %w", err)
	}
}

func translateProductWrite(err error, id int64) error {
	switch {
	case errors.Is(err, ErrResourceNotFound), errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, repository.ErrProductNotFound):
		return fmt.Errorf("%w: product %d", ErrResourceNotFound, id)
	case errors.Is(err, repository.ErrCategoryNotFound):
		return fmt.Errorf("%w: %v", ErrResourceNotFound, err)
	default:
		return fmt.Errorf("failed to save product: %w", err)
	}
}

// resolveCategories loads the categories for ids, failing with ErrResourceNotFound on the first missing id.
func resolveCategories(ctx context.Context, q database.DBTX, repo repository.CategoryRepository, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}

	found, err := repo.FindByIDs(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Category, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	categories := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: category %d", ErrResourceNotFound, id)
		}
		categories = append(categories, c)
	}

	return categories, nil
}

func validatePageRequest(req domain.PageRequest) error {
	if req.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrValidation)
	}
	if req.Size < 1 {
		return fmt.Errorf("%w: page size must be at least 1", ErrValidation)
	}
	return nil
}
