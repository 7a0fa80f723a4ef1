// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/taskboard"
)

func parseID(s, field string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "parse "+field).With(field, s).Wrap(err)
	}
	return id, nil
}

func notFound(kind string, id ulid.ULID) error {
	return oops.Code(taskboard.CodeNotFound).With(kind+"_id", id.String()).Wrap(taskboard.ErrNotFound)
}

// exec runs a statement that must touch a row of kind id.
func exec(ctx context.Context, db store.DB, kind, operation string, id ulid.ULID, sql string, args ...any) error {
	result, err := store.Conn(ctx, db).Exec(ctx, sql, args...)
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").With("operation", operation).With(kind+"_id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return notFound(kind, id)
	}
	return nil
}

// collect scans every row with scan.
func collect[T any](rows pgx.Rows, operation string, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, oops.Code("DB_SCAN_FAILED").With("operation", operation).Wrap(err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").With("operation", operation).Wrap(err)
	}
	return out, nil
}

func queryFailed(operation string, err error) error {
	return oops.Code("DB_QUERY_FAILED").With("operation", operation).Wrap(err)
}

func timestamps(created, updated *time.Time) {
	*created = created.UTC()
	*updated = updated.UTC()
}
