// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store contains the database access layer. Each store owns one
// table family and exposes typed operations; callers distinguish expected
// failures with errors.Is against the sentinel errors below.
package store

import "errors"

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateCode is returned when creating an access code that
	// already exists.
	ErrDuplicateCode = errors.New("store: access code already exists")

	// ErrInvalidAccessCode is returned when an operation references an
	// access code that is absent or inactive.
	ErrInvalidAccessCode = errors.New("store: invalid access code")
)
