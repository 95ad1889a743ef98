package repository

import (
	"errors"
	"fmt"
	"strings"

	"catalog/internal/domain"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories classify.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

var (
	// ErrIntegrityViolation means the row is still referenced by another table.
	ErrIntegrityViolation = errors.New("integrity constraint violation")
	// ErrUnknownSortProperty means a page was requested with a sort key the table cannot order by.
	ErrUnknownSortProperty = errors.New("unknown sort property")
)

// psql builds statements with PostgreSQL's $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

// escapeLike makes s match literally inside a LIKE pattern using the default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// containsPattern returns the LIKE pattern matching s anywhere in a value.
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// orderByClauses translates sort orders into ORDER BY terms using the allowed column map.
// The tiebreak column is appended unless the caller already sorts by it.
func orderByClauses(orders []domain.SortOrder, columns map[string]string, tiebreak string) ([]string, error) {
	clauses := make([]string, 0, len(orders)+1)
	seenTiebreak := false

	for _, o := range orders {
		column, ok := columns[strings.ToLower(o.Property)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSortProperty, o.Property)
		}

		dir := domain.Asc
		if o.Direction == domain.Desc {
			dir = domain.Desc
		}

		if column == tiebreak {
			seenTiebreak = true
		}
		clauses = append(clauses, column+" "+string(dir))
	}

	if !seenTiebreak {
		clauses = append(clauses, tiebreak+" "+string(domain.Asc))
	}

	return clauses, nil
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
