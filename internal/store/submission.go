// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"cmfstudio/internal/models"
)

// SubmissionStore handles customer-submission database operations.
type SubmissionStore struct {
	db *sql.DB
}

// NewSubmissionStore creates a new SubmissionStore with the given database
// connection.
func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// Create validates the access code and persists the submission together
// with its ordered original-image list in one transaction. A failure at
// any point rolls the whole submission back; ListAll never observes a
// partial row. Returns ErrInvalidAccessCode if the code is absent or
// inactive.
func (s *SubmissionStore) Create(accessCode, comment, generatedImageURL string, originalImages []string) (*models.Submission, error) {
	accessCode = strings.TrimSpace(accessCode)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create submission: begin: %w", err)
	}
	defer tx.Rollback()

	var active bool
	err = tx.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM access_codes WHERE code = $1 AND is_active)`,
		accessCode,
	).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("create submission: check code: %w", err)
	}
	if !active {
		return nil, ErrInvalidAccessCode
	}

	sub := &models.Submission{
		AccessCode:        accessCode,
		GeneratedImageURL: generatedImageURL,
	}
	if comment != "" {
		sub.Comment = &comment
	}

	err = tx.QueryRow(`
		INSERT INTO submissions (access_code, comment, generated_image_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, accessCode, sub.Comment, generatedImageURL).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create submission: insert: %w", err)
	}

	for i, url := range originalImages {
		_, err := tx.Exec(`
			INSERT INTO submission_images (submission_id, image_url, image_order)
			VALUES ($1, $2, $3)
		`, sub.ID, url, i)
		if err != nil {
			return nil, fmt.Errorf("create submission: insert image %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create submission: commit: %w", err)
	}

	sub.OriginalImages = append([]string(nil), originalImages...)
	return sub, nil
}

// ListAll returns every submission for the admin view, newest first, each
// with its original images in upload order.
func (s *SubmissionStore) ListAll() ([]models.Submission, error) {
	rows, err := s.db.Query(`
		SELECT id, access_code, comment, generated_image_url, created_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	index := make(map[int64]int)
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(&sub.ID, &sub.AccessCode, &sub.Comment, &sub.GeneratedImageURL, &sub.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.OriginalImages = []string{}
		index[sub.ID] = len(subs)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return subs, nil
	}

	imgRows, err := s.db.Query(`
		SELECT submission_id, image_url
		FROM submission_images
		ORDER BY submission_id, image_order
	`)
	if err != nil {
		return nil, fmt.Errorf("list submission images: %w", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var subID int64
		var url string
		if err := imgRows.Scan(&subID, &url); err != nil {
			return nil, fmt.Errorf("scan submission image: %w", err)
		}
		if i, ok := index[subID]; ok {
			subs[i].OriginalImages = append(subs[i].OriginalImages, url)
		}
	}
	return subs, imgRows.Err()
}

// Delete removes a submission by ID; its image rows cascade. Returns
// ErrNotFound if absent.
func (s *SubmissionStore) Delete(id int64) error {
	var deleted int64
	err := s.db.QueryRow(
		`DELETE FROM submissions WHERE id = $1 RETURNING id`, id,
	).Scan(&deleted)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}
