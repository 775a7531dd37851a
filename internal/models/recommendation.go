// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// RecommendedDesign is a curated example design associated with one
// access code, shown to premium visitors for inspiration. ImageURL is
// either a public object-storage URL or an embedded data URI when no
// object storage is configured.
type RecommendedDesign struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	AccessCode  string    `json:"access_code"`
	CreatedAt   time.Time `json:"created_at"`
}
