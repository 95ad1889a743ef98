package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog/internal/database"
	"catalog/internal/domain"

	"github.com/Masterminds/squirrel"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

var categorySortColumns = map[string]string{
	"id":   "id",
	"name": "name",
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	FindPage(ctx context.Context, q database.DBTX, req domain.PageRequest) ([]domain.Category, int64, error)
	FindByID(ctx context.Context, q database.DBTX, id int64) (*domain.Category, error)
	FindByIDs(ctx context.Context, q database.DBTX, ids []int64) ([]domain.Category, error)
	Create(ctx context.Context, q database.DBTX, category *domain.Category) error
	Update(ctx context.Context, q database.DBTX, category *domain.Category) error
	Delete(ctx context.Context, q database.DBTX, id int64) error
}

type categoryRepository struct{}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository() CategoryRepository {
	return &categoryRepository{}
}

func (r *categoryRepository) FindPage(ctx context.Context, q database.DBTX, req domain.PageRequest) ([]domain.Category, int64, error) {
	orderBy, err := orderByClauses(req.Sort, categorySortColumns, "id")
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	if req.PastEnd(total) {
		return []domain.Category{}, total, nil
	}

	query, args, err := psql.Select("id", "name", "created_at").
		From("categories").
		OrderBy(orderBy...).
		Limit(uint64(req.Size)).
		Offset(uint64(req.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build category page query: %w", err)
	}

	categories, err := r.query(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, q database.DBTX, id int64) (*domain.Category, error) {
	category := &domain.Category{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM categories WHERE id = $1", id,
	).Scan(&category.ID, &category.Name, &category.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// FindByIDs returns the existing categories among ids, ordered by id. Missing ids are skipped.
func (r *categoryRepository) FindByIDs(ctx context.Context, q database.DBTX, ids []int64) ([]domain.Category, error) {
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}

	query, args, err := psql.Select("id", "name", "created_at").
		From("categories").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build category lookup: %w", err)
	}

	return r.query(ctx, q, query, args...)
}

func (r *categoryRepository) query(ctx context.Context, q database.DBTX, query string, args ...interface{}) ([]domain.Category, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Create inserts a category, setting ID and CreatedAt from the stored row.
func (r *categoryRepository) Create(ctx context.Context, q database.DBTX, category *domain.Category) error {
	query, args, err := psql.Insert("categories").
		Columns("name").
		Values(category.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build category insert: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&category.ID, &category.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// Update renames a category and refreshes CreatedAt from the stored row.
func (r *categoryRepository) Update(ctx context.Context, q database.DBTX, category *domain.Category) error {
	query, args, err := psql.Update("categories").
		Set("name", category.Name).
		Where(squirrel.Eq{"id": category.ID}).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build category update: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&category.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	return nil
}

// Delete removes a category. Categories still linked to products yield ErrIntegrityViolation.
func (r *categoryRepository) Delete(ctx context.Context, q database.DBTX, id int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d is in use: %v", ErrIntegrityViolation, id, err)
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
