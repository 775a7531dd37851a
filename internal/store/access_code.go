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

// AccessCodeStore handles all access-code database operations.
type AccessCodeStore struct {
	db *sql.DB
}

// NewAccessCodeStore creates a new AccessCodeStore with the given database connection.
func NewAccessCodeStore(db *sql.DB) *AccessCodeStore {
	return &AccessCodeStore{db: db}
}

// accessCodeColumns lists the columns selected in access-code queries.
const accessCodeColumns = `id, code, is_active, created_at`

// scanAccessCode scans an access-code row from the result set.
func scanAccessCode(scanner interface{ Scan(...any) error }) (*models.AccessCode, error) {
	var c models.AccessCode
	if err := scanner.Scan(&c.ID, &c.Code, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive returns all active codes, newest first.
func (s *AccessCodeStore) ListActive() ([]models.AccessCode, error) {
	return s.list(true)
}

// List returns every code including deactivated ones, newest first.
// Used by the admin panel.
func (s *AccessCodeStore) List() ([]models.AccessCode, error) {
	return s.list(false)
}

func (s *AccessCodeStore) list(activeOnly bool) ([]models.AccessCode, error) {
	query := `SELECT ` + accessCodeColumns + ` FROM access_codes`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list access codes: %w", err)
	}
	defer rows.Close()

	var codes []models.AccessCode
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access code: %w", err)
		}
		codes = append(codes, *c)
	}
	return codes, rows.Err()
}

// Validate reports whether the given code, after trimming surrounding
// whitespace, exactly matches an active access code. Matching is
// case-sensitive.
func (s *AccessCodeStore) Validate(code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	var ok bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM access_codes WHERE code = $1 AND is_active)`,
		code,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("validate access code: %w", err)
	}
	return ok, nil
}

// Create inserts a new access code. The code is trimmed before insertion.
// Returns ErrInvalidAccessCode for an empty code and ErrDuplicateCode if
// the code already exists (active or not).
func (s *AccessCodeStore) Create(code string) (*models.AccessCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidAccessCode
	}

	// ON CONFLICT keeps duplicate detection inside the statement instead
	// of sniffing driver-specific error codes.
	row := s.db.QueryRow(`
		INSERT INTO access_codes (code)
		VALUES ($1)
		ON CONFLICT (code) DO NOTHING
		RETURNING `+accessCodeColumns, code)

	c, err := scanAccessCode(row)
	if err == sql.ErrNoRows {
		return nil, ErrDuplicateCode
	}
	if err != nil {
		return nil, fmt.Errorf("create access code: %w", err)
	}
	return c, nil
}

// Delete removes an access code. Recommendations referencing the code are
// removed by the foreign-key cascade; submissions are kept on purpose so
// the curator's history survives code rotation. Returns ErrNotFound if
// the code does not exist.
func (s *AccessCodeStore) Delete(code string) error {
	code = strings.TrimSpace(code)

	var id int64
	err := s.db.QueryRow(
		`DELETE FROM access_codes WHERE code = $1 RETURNING id`, code,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete access code: %w", err)
	}
	return nil
}

// Deactivate marks a code inactive without deleting it, keeping its
// recommendations in place but failing future validations.
func (s *AccessCodeStore) Deactivate(code string) error {
	code = strings.TrimSpace(code)

	res, err := s.db.Exec(`UPDATE access_codes SET is_active = FALSE WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("deactivate access code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate access code: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
