package repository

import (
	"context"
	"fmt"

	"gamenight/models"
)

// userReference describes a column holding a users.id foreign key.
// When scopeColumn is set the table is unique on (scopeColumn, userColumn), so a
// duplicate's row is collapsed into the survivor's row for the same scope value.
type userReference struct {
	relation    models.Relation
	table       string
	userColumn  string
	scopeColumn string
}

func (ref userReference) planCounts(ctx context.Context, q queryable, fromUserID, toUserID string) (models.RelationCounts, error) {
	var counts models.RelationCounts

	if ref.scopeColumn == "" {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, ref.table, ref.userColumn)
		if err := q.QueryRow(ctx, query, fromUserID).Scan(&counts.Moved); err != nil {
			return counts, storeError(err, "failed to plan %s", ref.relation)
		}
		return counts, nil
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE s.%[2]s IS NULL),
			COUNT(*) FILTER (WHERE s.%[2]s IS NOT NULL)
		FROM %[1]s d
		LEFT JOIN %[1]s s ON s.%[3]s = d.%[3]s AND s.%[2]s = $2
		WHERE d.%[2]s = $1
	`, ref.table, ref.userColumn, ref.scopeColumn)

	if err := q.QueryRow(ctx, query, fromUserID, toUserID).Scan(&counts.Moved, &counts.Collapsed); err != nil {
		return counts, storeError(err, "failed to plan %s", ref.relation)
	}
	return counts, nil
}

func (ref userReference) migrate(ctx context.Context, q queryable, fromUserID, toUserID string) (models.RelationCounts, error) {
	var counts models.RelationCounts

	if ref.scopeColumn != "" {
		collapseQuery := fmt.Sprintf(`
			DELETE FROM %[1]s d
			WHERE d.%[2]s = $1
			  AND EXISTS (
				SELECT 1 FROM %[1]s s
				WHERE s.%[2]s = $2 AND s.%[3]s = d.%[3]s
			  )
		`, ref.table, ref.userColumn, ref.scopeColumn)

		result, err := q.Exec(ctx, collapseQuery, fromUserID, toUserID)
		if err != nil {
			return counts, storeError(err, "failed to collapse %s", ref.relation)
		}
		counts.Collapsed = result.RowsAffected()
	}

	moveQuery := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, ref.table, ref.userColumn, ref.userColumn)
	result, err := q.Exec(ctx, moveQuery, fromUserID, toUserID)
	if err != nil {
		return counts, storeError(err, "failed to move %s", ref.relation)
	}
	counts.Moved = result.RowsAffected()

	return counts, nil
}
