// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// AccessCode gates the premium design flow and scopes which curated
// recommendations a visitor sees. Codes are matched case-sensitively
// after trimming surrounding whitespace.
type AccessCode struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
