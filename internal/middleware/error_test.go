package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

var errorStatuses = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusServiceUnavailable,
}

// Feature: catalog, Property 11: Errors have a consistent structure
func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all error responses carry code, message, timestamp and path", prop.ForAll(
		func(message string, pick int, segment string) bool {
			statusCode := errorStatuses[pick%len(errorStatuses)]
			path := "/products/" + segment

			w := httptest.NewRecorder()
			RespondWithError(w, httptest.NewRequest(http.MethodGet, path, nil), statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if _, err := time.Parse(time.RFC3339, response.Error.Timestamp); err != nil {
				return false
			}
			return response.Error.Code == http.StatusText(statusCode) &&
				response.Error.Message == message &&
				response.Error.Path == path &&
				response.Error.Details == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.IntRange(0, 100),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/categories", nil)

	RespondWithValidationErrors(w, r, []ValidationError{{Field: "name", Message: "name must be at least 2 characters long"}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var response struct {
		Error struct {
			Message string `json:"message"`
			Path    string `json:"path"`
			Details struct {
				ValidationErrors []ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if response.Error.Message != "validation failed" || response.Error.Path != "/categories" {
		t.Errorf("error = %+v", response.Error)
	}
	if got := response.Error.Details.ValidationErrors; len(got) != 1 || got[0].Field != "name" {
		t.Errorf("validation errors = %+v", got)
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if response.Error.Message != "internal server error" {
		t.Errorf("message = %q", response.Error.Message)
	}
}

func TestErrorHandlingMiddleware_AbortHandler(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if recovered := recover(); recovered != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", recovered)
		}
	}()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))
	t.Error("ErrAbortHandler was swallowed")
}
