package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertSpec describes an INSERT ... ON CONFLICT DO UPDATE statement.
type UpsertSpec struct {
	Table        string   // optionally schema-qualified
	Columns      []string // inserted columns, in placeholder order
	ConflictKeys []string
	// UpdateCols are overwritten on conflict. Nil means every column that is
	// not a conflict key.
	UpdateCols []string
}

// UpsertSQL renders spec as a single-row upsert with $1..$n placeholders.
func UpsertSQL(spec UpsertSpec) (string, error) {
	if len(spec.Columns) == 0 {
		return "", eris.New("db: upsert: no columns specified")
	}
	if len(spec.ConflictKeys) == 0 {
		return "", eris.New("db: upsert: no conflict keys specified")
	}

	update := spec.UpdateCols
	if update == nil {
		keys := make(map[string]bool, len(spec.ConflictKeys))
		for _, k := range spec.ConflictKeys {
			keys[k] = true
		}
		for _, c := range spec.Columns {
			if !keys[c] {
				update = append(update, c)
			}
		}
	}

	placeholders := make([]string, len(spec.Columns))
	for i := range spec.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	action := "DO NOTHING"
	if len(update) > 0 {
		sets := make([]string, len(update))
		for i, c := range update {
			col := pgx.Identifier{c}.Sanitize()
			sets[i] = col + " = EXCLUDED." + col
		}
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		identifier(spec.Table).Sanitize(),
		quoteAndJoin(spec.Columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(spec.ConflictKeys),
		action,
	), nil
}

// identifier splits a schema-qualified name like "flash.drafts".
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
