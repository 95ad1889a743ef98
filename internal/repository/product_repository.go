package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog/internal/database"
	"catalog/internal/domain"

	"github.com/Masterminds/squirrel"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInconsistentPage means a product listed by FindPage was missing from FindWithCategories.
	ErrInconsistentPage = errors.New("page content changed between queries")
)

var productColumns = []string{"p.id", "p.name", "p.description", "p.price", "p.img_url", "p.date"}

var productSortColumns = map[string]string{
	"id":    "p.id",
	"name":  "p.name",
	"price": "p.price",
	"date":  "p.date",
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	// CategoryIDs matches products linked to at least one of the ids.
	CategoryIDs []int64
	// Name matches products whose name contains it, ignoring case.
	Name string
}

// ProductRepository defines the interface for product data access.
// Every method runs against the caller's connection or transaction.
type ProductRepository interface {
	FindPage(ctx context.Context, q database.DBTX, filter ProductFilter, req domain.PageRequest) ([]domain.Product, int64, error)
	FindWithCategories(ctx context.Context, q database.DBTX, ids []int64) ([]domain.Product, error)
	FindByID(ctx context.Context, q database.DBTX, id int64) (*domain.Product, error)
	LockByID(ctx context.Context, q database.DBTX, id int64) error
	Create(ctx context.Context, q database.DBTX, product *domain.Product) error
	Update(ctx context.Context, q database.DBTX, product *domain.Product) error
	Delete(ctx context.Context, q database.DBTX, id int64) error
	Count(ctx context.Context, q database.DBTX) (int64, error)
}

type productRepository struct{}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository() ProductRepository {
	return &productRepository{}
}

func productFilterSQL(filter ProductFilter) squirrel.And {
	conds := squirrel.And{}

	if ids := domain.UniqueIDs(filter.CategoryIDs); len(ids) > 0 {
		conds = append(conds, squirrel.Expr(
			"EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id IN ("+
				squirrel.Placeholders(len(ids))+"))",
			int64Args(ids)...,
		))
	}

	if filter.Name != "" {
		conds = append(conds, squirrel.Expr("LOWER(p.name) LIKE LOWER(?)", containsPattern(filter.Name)))
	}

	return conds
}

// FindPage returns one page of products matching filter without their categories, plus the total match count.
func (r *productRepository) FindPage(ctx context.Context, q database.DBTX, filter ProductFilter, req domain.PageRequest) ([]domain.Product, int64, error) {
	orderBy, err := orderByClauses(req.Sort, productSortColumns, "p.id")
	if err != nil {
		return nil, 0, err
	}

	where := productFilterSQL(filter)

	countBuilder := psql.Select("COUNT(*)").From("products p")
	pageBuilder := psql.Select(productColumns...).From("products p")
	if len(where) > 0 {
		countBuilder = countBuilder.Where(where)
		pageBuilder = pageBuilder.Where(where)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build product count query: %w", err)
	}

	var total int64
	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if req.PastEnd(total) {
		return []domain.Product{}, total, nil
	}

	query, args, err := pageBuilder.
		OrderBy(orderBy...).
		Limit(uint64(req.Size)).
		Offset(uint64(req.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build product page query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImgURL, &p.Date); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// FindWithCategories loads the given products with their complete category sets, ordered by id.
// Ids that do not exist are simply absent from the result.
func (r *productRepository) FindWithCategories(ctx context.Context, q database.DBTX, ids []int64) ([]domain.Product, error) {
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query, args, err := psql.
		Select(append(productColumns, "c.id", "c.name", "c.created_at")...).
		From("products p").
		LeftJoin("product_categories pc ON pc.product_id = p.id").
		LeftJoin("categories c ON c.id = pc.category_id").
		Where(squirrel.Eq{"p.id": ids}).
		OrderBy("p.id ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product association query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			p            domain.Product
			categoryID   sql.NullInt64
			categoryName sql.NullString
			categoryAt   sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImgURL, &p.Date,
			&categoryID, &categoryName, &categoryAt); err != nil {
			return nil, fmt.Errorf("failed to scan product with category: %w", err)
		}

		// Rows arrive grouped by product id.
		if n := len(products); n == 0 || products[n-1].ID != p.ID {
			p.Categories = []domain.Category{}
			products = append(products, p)
		}
		if categoryID.Valid {
			last := &products[len(products)-1]
			last.Categories = append(last.Categories, domain.Category{
				ID:        categoryID.Int64,
				Name:      categoryName.String,
				CreatedAt: categoryAt.Time,
			})
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product categories: %w", err)
	}

	return products, nil
}

// FindByID retrieves a product with its categories
func (r *productRepository) FindByID(ctx context.Context, q database.DBTX, id int64) (*domain.Product, error) {
	products, err := r.FindWithCategories(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

// LockByID takes a row lock on the product for the rest of the transaction.
func (r *productRepository) LockByID(ctx context.Context, q database.DBTX, id int64) error {
	query, args, err := psql.Select("id").From("products").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build product lock query: %w", err)
	}

	var locked int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}

	return nil
}

// Create inserts the product and its category links. ID and Date are set from the stored row.
func (r *productRepository) Create(ctx context.Context, q database.DBTX, product *domain.Product) error {
	if product.Date.IsZero() {
		product.Date = time.Now().UTC()
	}

	query, args, err := psql.Insert("products").
		Columns("name", "description", "price", "img_url", "date").
		Values(product.Name, product.Description, product.Price, product.ImgURL, product.Date).
		Suffix("RETURNING id, date").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build product insert: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&product.ID, &product.Date); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return r.replaceCategories(ctx, q, product.ID, product.CategoryIDs())
}

// Update overwrites the product's scalar fields and replaces its category links.
// The creation date is never changed.
func (r *productRepository) Update(ctx context.Context, q database.DBTX, product *domain.Product) error {
	query, args, err := psql.Update("products").
		Set("name", product.Name).
		Set("description", product.Description).
		Set("price", product.Price).
		Set("img_url", product.ImgURL).
		Where(squirrel.Eq{"id": product.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build product update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return r.replaceCategories(ctx, q, product.ID, product.CategoryIDs())
}

func (r *productRepository) replaceCategories(ctx context.Context, q database.DBTX, productID int64, categoryIDs []int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM product_categories WHERE product_id = $1", productID); err != nil {
		return fmt.Errorf("failed to clear product categories: %w", err)
	}

	categoryIDs = domain.UniqueIDs(categoryIDs)
	if len(categoryIDs) == 0 {
		return nil
	}

	insert := psql.Insert("product_categories").Columns("product_id", "category_id")
	for _, categoryID := range categoryIDs {
		insert = insert.Values(productID, categoryID)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build product category insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", ErrCategoryNotFound, err)
		}
		return fmt.Errorf("failed to link product categories: %w", err)
	}

	return nil
}

// Delete removes a product. Products still referenced outside the catalog yield ErrIntegrityViolation.
func (r *productRepository) Delete(ctx context.Context, q database.DBTX, id int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d is referenced: %v", ErrIntegrityViolation, id, err)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Count returns the number of stored products.
func (r *productRepository) Count(ctx context.Context, q database.DBTX) (int64, error) {
	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}
