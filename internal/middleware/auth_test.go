package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/internal/config"
	"catalog/internal/domain"
	"catalog/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func testValidator() TokenValidator {
	return service.NewUserService(nil, nil, config.JWTConfig{Secret: testSecret})
}

func signToken(t *testing.T, secret string, userID uuid.UUID, role string, expiresIn time.Duration) string {
	t.Helper()

	claims := &service.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Feature: catalog, Property 9: Protected endpoints reject missing tokens
func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	handler := AuthMiddleware(testValidator(), zap.NewNop())(okHandler())

	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			req := httptest.NewRequest(method, "/products/"+pathSuffix, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf(http.MethodPost, http.MethodPut, http.MethodDelete),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: catalog, Property 10: Valid tokens reach the handler with the caller in context
func TestProperty_ValidTokensAllowProcessing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens allow request processing", prop.ForAll(
		func(role string) bool {
			userID := uuid.New()
			var gotID, gotRole string

			handler := AuthMiddleware(testValidator(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r.Context())
				gotRole, _ = GetUserRole(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/products", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, userID, role, time.Hour))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusOK && gotID == userID.String() && gotRole == role
		},
		gen.OneConstOf(domain.RoleUser, domain.RoleOperator, domain.RoleAdmin),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	handler := AuthMiddleware(testValidator(), zap.NewNop())(okHandler())
	userID := uuid.New()

	tests := []struct {
		name   string
		header string
	}{
		{name: "expired", header: "Bearer " + signToken(t, testSecret, userID, domain.RoleAdmin, -time.Hour)},
		{name: "foreign secret", header: "Bearer " + signToken(t, "other-secret", userID, domain.RoleAdmin, time.Hour)},
		{name: "missing role", header: "Bearer " + signToken(t, testSecret, userID, "", time.Hour)},
		{name: "no scheme", header: signToken(t, testSecret, userID, domain.RoleAdmin, time.Hour)},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "garbage", header: "Bearer not.a.jwt"},
		{name: "empty token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/products/1", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		guard    func(*zap.Logger) func(http.Handler) http.Handler
		wantCode int
	}{
		{name: "operator edits catalog", role: domain.RoleOperator, guard: editorsOnly, wantCode: http.StatusOK},
		{name: "admin edits catalog", role: domain.RoleAdmin, guard: editorsOnly, wantCode: http.StatusOK},
		{name: "user cannot edit catalog", role: domain.RoleUser, guard: editorsOnly, wantCode: http.StatusForbidden},
		{name: "operator is not admin", role: domain.RoleOperator, guard: RequireAdmin, wantCode: http.StatusForbidden},
		{name: "admin is admin", role: domain.RoleAdmin, guard: RequireAdmin, wantCode: http.StatusOK},
		{name: "anonymous", role: "", guard: RequireAdmin, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(testValidator(), zap.NewNop())(tt.guard(zap.NewNop())(okHandler()))
			if tt.role == "" {
				handler = tt.guard(zap.NewNop())(okHandler())
			}

			req := httptest.NewRequest(http.MethodDelete, "/categories/1", nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uuid.New(), tt.role, time.Hour))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func editorsOnly(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(CatalogEditors, logger)
}
