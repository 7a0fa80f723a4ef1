// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

//go:build integration

package postgres_test

import (
	"net/url"

	. "github.com/onsi/gomega" //nolint:revive // gomega convention
)

func queryParam(link, key string) string {
	u, err := url.Parse(link)
	Expect(err).NotTo(HaveOccurred())
	return u.Query().Get(key)
}
