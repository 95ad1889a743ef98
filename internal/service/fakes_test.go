package service

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"strings"
	"time"

	"catalog/internal/database"
	"catalog/internal/domain"
	"catalog/internal/repository"

	"github.com/google/uuid"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

// fakeTransactor runs the unit of work directly and records how it was called.
type fakeTransactor struct {
	calls    int
	lastOpts *sql.TxOptions
}

func (f *fakeTransactor) WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(q database.DBTX) error) error {
	f.calls++
	f.lastOpts = opts
	return fn(nil)
}

type fakeCategoryRepository struct {
	categories map[int64]domain.Category
	linked     map[int64]bool
	nextID     int64
}

func newFakeCategoryRepository(categories ...domain.Category) *fakeCategoryRepository {
	f := &fakeCategoryRepository{
		categories: make(map[int64]domain.Category),
		linked:     make(map[int64]bool),
		nextID:     100,
	}
	for _, c := range categories {
		f.categories[c.ID] = c
	}
	return f
}

func (f *fakeCategoryRepository) sorted() []domain.Category {
	out := make([]domain.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCategoryRepository) FindPage(ctx context.Context, q database.DBTX, req domain.PageRequest) ([]domain.Category, int64, error) {
	for _, o := range req.Sort {
		if o.Property != "id" && o.Property != "name" {
			return nil, 0, repository.ErrUnknownSortProperty
		}
	}
	all := f.sorted()
	start := min(req.Offset(), len(all))
	end := start + min(req.Size, len(all)-start)
	return all[start:end], int64(len(all)), nil
}

func (f *fakeCategoryRepository) FindByID(ctx context.Context, q database.DBTX, id int64) (*domain.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &c, nil
}

func (f *fakeCategoryRepository) FindByIDs(ctx context.Context, q database.DBTX, ids []int64) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, c := range f.sorted() {
		if slices.Contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepository) Create(ctx context.Context, q database.DBTX, category *domain.Category) error {
	for _, c := range f.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	f.nextID++
	category.ID = f.nextID
	category.CreatedAt = time.Now().UTC()
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepository) Update(ctx context.Context, q database.DBTX, category *domain.Category) error {
	existing, ok := f.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	category.CreatedAt = existing.CreatedAt
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepository) Delete(ctx context.Context, q database.DBTX, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	if f.linked[id] {
		return repository.ErrIntegrityViolation
	}
	delete(f.categories, id)
	return nil
}

type fakeProductRepository struct {
	products   map[int64]domain.Product
	referenced map[int64]bool
	// dropOnHydrate simulates a product vanishing between the two listing queries.
	dropOnHydrate map[int64]bool
	nextID        int64
	writes        int
}

func newFakeProductRepository(products ...domain.Product) *fakeProductRepository {
	f := &fakeProductRepository{
		products:      make(map[int64]domain.Product),
		referenced:    make(map[int64]bool),
		dropOnHydrate: make(map[int64]bool),
	}
	for _, p := range products {
		f.products[p.ID] = p
		f.nextID = max(f.nextID, p.ID)
	}
	return f
}

func (f *fakeProductRepository) matching(filter repository.ProductFilter) []domain.Product {
	wanted := domain.UniqueIDs(filter.CategoryIDs)

	var out []domain.Product
	for _, p := range f.products {
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if len(wanted) > 0 && !slices.ContainsFunc(p.CategoryIDs(), func(id int64) bool { return slices.Contains(wanted, id) }) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeProductRepository) FindPage(ctx context.Context, q database.DBTX, filter repository.ProductFilter, req domain.PageRequest) ([]domain.Product, int64, error) {
	for _, o := range req.Sort {
		if o.Property != "id" {
			return nil, 0, repository.ErrUnknownSortProperty
		}
	}

	all := f.matching(filter)
	start := min(req.Offset(), len(all))
	end := start + min(req.Size, len(all)-start)

	page := make([]domain.Product, 0, end-start)
	for _, p := range all[start:end] {
		p.Categories = nil
		page = append(page, p)
	}
	return page, int64(len(all)), nil
}

func (f *fakeProductRepository) FindWithCategories(ctx context.Context, q database.DBTX, ids []int64) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, id := range domain.UniqueIDs(ids) {
		if p, ok := f.products[id]; ok && !f.dropOnHydrate[id] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProductRepository) FindByID(ctx context.Context, q database.DBTX, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeProductRepository) LockByID(ctx context.Context, q database.DBTX, id int64) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	return nil
}

func (f *fakeProductRepository) Create(ctx context.Context, q database.DBTX, product *domain.Product) error {
	f.writes++
	f.nextID++
	product.ID = f.nextID
	product.Date = time.Now().UTC()
	f.products[product.ID] = *product
	return nil
}

func (f *fakeProductRepository) Update(ctx context.Context, q database.DBTX, product *domain.Product) error {
	f.writes++
	existing, ok := f.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Date = existing.Date
	f.products[product.ID] = *product
	return nil
}

func (f *fakeProductRepository) Delete(ctx context.Context, q database.DBTX, id int64) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	if f.referenced[id] {
		return repository.ErrIntegrityViolation
	}
	f.writes++
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepository) Count(ctx context.Context, q database.DBTX) (int64, error) {
	return int64(len(f.products)), nil
}
