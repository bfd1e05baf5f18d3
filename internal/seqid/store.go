package seqid

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duamedical/medserve/internal/platform/db"
)

// LatestCode returns the code in table.column with the greatest numeric
// suffix for prefix, or "" when none matches. table and column are
// compile-time identifiers, never user input.
func LatestCode(ctx context.Context, q db.DBTX, table, column, prefix string) (string, error) {
	query := fmt.Sprintf(`
		SELECT %[2]s FROM %[1]s
		WHERE %[2]s ~* $1
		ORDER BY CAST(substring(%[2]s FROM $2::int) AS NUMERIC) DESC
		LIMIT 1`, table, column)
	var code string
	err := q.QueryRow(ctx, query, Pattern(prefix), len(prefix)+1).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", db.Translate(err, "")
	}
	return code, nil
}
