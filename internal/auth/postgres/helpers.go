// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package postgres

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

func parseID(s, field string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "parse "+field).With(field, s).Wrap(err)
	}
	return id, nil
}

// utc normalizes optional timestamps read from TIMESTAMPTZ columns.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
