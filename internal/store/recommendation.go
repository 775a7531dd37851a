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

// RecommendationStore handles curated-design database operations.
type RecommendationStore struct {
	db *sql.DB
}

// NewRecommendationStore creates a new RecommendationStore with the given
// database connection.
func NewRecommendationStore(db *sql.DB) *RecommendationStore {
	return &RecommendationStore{db: db}
}

// recommendationColumns lists the columns selected in recommendation queries.
const recommendationColumns = `id, title, description, image_url, access_code, created_at`

// scanRecommendation scans a recommendation row from the result set.
func scanRecommendation(scanner interface{ Scan(...any) error }) (*models.RecommendedDesign, error) {
	var d models.RecommendedDesign
	err := scanner.Scan(&d.ID, &d.Title, &d.Description, &d.ImageURL, &d.AccessCode, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByCode returns the curated designs for one access code, newest first.
// Only entries whose access_code exactly equals the trimmed input are
// returned.
func (s *RecommendationStore) ListByCode(code string) ([]models.RecommendedDesign, error) {
	code = strings.TrimSpace(code)

	rows, err := s.db.Query(`
		SELECT `+recommendationColumns+`
		FROM recommended_designs
		WHERE access_code = $1
		ORDER BY created_at DESC, id DESC
	`, code)
	if err != nil {
		return nil, fmt.Errorf("list recommendations by code: %w", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// ListAll returns every curated design for the admin view, newest first.
func (s *RecommendationStore) ListAll() ([]models.RecommendedDesign, error) {
	rows, err := s.db.Query(`
		SELECT ` + recommendationColumns + `
		FROM recommended_designs
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all recommendations: %w", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

func collectRecommendations(rows *sql.Rows) ([]models.RecommendedDesign, error) {
	var items []models.RecommendedDesign
	for rows.Next() {
		d, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// Create inserts a curated design. The referenced access code must exist
// and be active, otherwise ErrInvalidAccessCode is returned.
func (s *RecommendationStore) Create(title, description, accessCode, imageURL string) (*models.RecommendedDesign, error) {
	accessCode = strings.TrimSpace(accessCode)

	var active bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM access_codes WHERE code = $1 AND is_active)`,
		accessCode,
	).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("create recommendation: check code: %w", err)
	}
	if !active {
		return nil, ErrInvalidAccessCode
	}

	row := s.db.QueryRow(`
		INSERT INTO recommended_designs (title, description, image_url, access_code)
		VALUES ($1, $2, $3, $4)
		RETURNING `+recommendationColumns,
		title, description, imageURL, accessCode)

	d, err := scanRecommendation(row)
	if err != nil {
		return nil, fmt.Errorf("create recommendation: %w", err)
	}
	return d, nil
}

// Delete removes a curated design by ID. Returns ErrNotFound if absent.
func (s *RecommendationStore) Delete(id int64) error {
	var deleted int64
	err := s.db.QueryRow(
		`DELETE FROM recommended_designs WHERE id = $1 RETURNING id`, id,
	).Scan(&deleted)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete recommendation: %w", err)
	}
	return nil
}
