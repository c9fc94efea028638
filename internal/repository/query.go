package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/osms-api/internal/models"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchAny matches term case-insensitively as a literal substring of any
// column. ILIKE's default escape character is the backslash.
func searchAny(term string, columns ...string) squirrel.Sqlizer {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
	or := make(squirrel.Or, 0, len(columns))
	for _, column := range columns {
		or = append(or, squirrel.ILike{column: pattern})
	}
	return or
}

// whereEq adds an equality filter when value is non-empty.
func whereEq(q squirrel.SelectBuilder, column, value string) squirrel.SelectBuilder {
	if strings.TrimSpace(value) == "" {
		return q
	}
	return q.Where(squirrel.Eq{column: value})
}

// selectPage runs a filtered listing and its total count. base must carry
// FROM, JOIN and WHERE clauses but no columns.
func selectPage[T any](ctx context.Context, db *sqlx.DB, base squirrel.SelectBuilder, columns []string, orderBy []string, params models.ListParams) ([]T, int, error) {
	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := base.Columns(columns...).
		OrderBy(orderBy...).
		Limit(uint64(params.PerPage)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows := make([]T, 0, params.PerPage)
	if err := db.SelectContext(ctx, &rows, listSQL, listArgs...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func mapWriteError(err error, op string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
