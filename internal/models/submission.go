// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Submission is a finished design a visitor sent to the curator: the
// generated rendering, the original product photos (in upload order,
// at most three) and an optional comment. Submissions are immutable
// once created and outlive the access code they were made under.
type Submission struct {
	ID                int64     `json:"id"`
	AccessCode        string    `json:"access_code"`
	Comment           *string   `json:"comment,omitempty"`
	GeneratedImageURL string    `json:"generated_image_url"`
	OriginalImages    []string  `json:"original_images"`
	CreatedAt         time.Time `json:"created_at"`
}
