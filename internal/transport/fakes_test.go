package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"catalog/internal/config"
	"catalog/internal/domain"
	"catalog/internal/middleware"
	"catalog/internal/repository"
	"catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	testJWT        = config.JWTConfig{Secret: "test-secret-key", AccessExpiry: 15, RefreshExpiry: 7}
	testPagination = config.PaginationConfig{DefaultSize: 20, MaxSize: 100}
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

// stubProductService answers with whatever the test configured and records the last call.
type stubProductService struct {
	page    domain.Page[service.ProductDTO]
	product *service.ProductDTO
	err     error

	gotCategoryIDs []int64
	gotName        string
	gotPage        domain.PageRequest
	gotID          int64
	gotDTO         service.ProductDTO
	calls          int
}

func (s *stubProductService) FindAllPaged(ctx context.Context, categoryIDs []int64, name string, req domain.PageRequest) (domain.Page[service.ProductDTO], error) {
	s.calls++
	s.gotCategoryIDs, s.gotName, s.gotPage = categoryIDs, name, req
	return s.page, s.err
}

func (s *stubProductService) FindByID(ctx context.Context, id int64) (*service.ProductDTO, error) {
	s.calls++
	s.gotID = id
	return s.product, s.err
}

func (s *stubProductService) Insert(ctx context.Context, dto service.ProductDTO) (*service.ProductDTO, error) {
	s.calls++
	s.gotDTO = dto
	return s.product, s.err
}

func (s *stubProductService) Update(ctx context.Context, id int64, dto service.ProductDTO) (*service.ProductDTO, error) {
	s.calls++
	s.gotID, s.gotDTO = id, dto
	return s.product, s.err
}

func (s *stubProductService) Delete(ctx context.Context, id int64) error {
	s.calls++
	s.gotID = id
	return s.err
}

type stubCategoryService struct {
	page     domain.Page[service.CategoryDTO]
	category *service.CategoryDTO
	err      error

	gotPage domain.PageRequest
	gotID   int64
	gotDTO  service.CategoryDTO
	calls   int
}

func (s *stubCategoryService) FindAllPaged(ctx context.Context, req domain.PageRequest) (domain.Page[service.CategoryDTO], error) {
	s.calls++
	s.gotPage = req
	return s.page, s.err
}

func (s *stubCategoryService) FindByID(ctx context.Context, id int64) (*service.CategoryDTO, error) {
	s.calls++
	s.gotID = id
	return s.category, s.err
}

func (s *stubCategoryService) Insert(ctx context.Context, dto service.CategoryDTO) (*service.CategoryDTO, error) {
	s.calls++
	s.gotDTO = dto
	return s.category, s.err
}

func (s *stubCategoryService) Update(ctx context.Context, id int64, dto service.CategoryDTO) (*service.CategoryDTO, error) {
	s.calls++
	s.gotID, s.gotDTO = id, dto
	return s.category, s.err
}

func (s *stubCategoryService) Delete(ctx context.Context, id int64) error {
	s.calls++
	s.gotID = id
	return s.err
}

// catalogRouter mounts the catalog handlers behind the real bearer-token middleware.
func catalogRouter(products service.ProductService, categories service.CategoryService) http.Handler {
	logger := zap.NewNop()
	auth := middleware.AuthMiddleware(service.NewUserService(nil, nil, testJWT), logger)

	r := chi.NewRouter()
	if products != nil {
		NewProductHandler(products, testPagination, logger).RegisterRoutes(r, auth)
	}
	if categories != nil {
		NewCategoryHandler(categories, testPagination, logger).RegisterRoutes(r, auth)
	}
	return r
}

func bearer(t *testing.T, role string) string {
	t.Helper()

	claims := &service.Claims{
		UserID: uuid.New(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + token
}
