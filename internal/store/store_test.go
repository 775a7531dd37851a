// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Store tests are integration tests requiring a running PostgreSQL with
// migrations applied. They skip when the database is unreachable.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"cmfstudio/internal/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "cmfstudio")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "cmfstudio")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// testDB connects, migrates and registers cleanup of test rows.
// Skips if PostgreSQL is unavailable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(testDSN())
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM submissions WHERE access_code LIKE 'TEST-%'`)
		db.Exec(`DELETE FROM access_codes WHERE code LIKE 'TEST-%'`)
		db.Close()
	})

	return db
}

// testCode inserts a unique active access code for the current test.
func testCode(t *testing.T, db *sql.DB) string {
	t.Helper()

	code := fmt.Sprintf("TEST-%d", time.Now().UnixNano())
	if _, err := db.Exec(`INSERT INTO access_codes (code) VALUES ($1)`, code); err != nil {
		t.Fatalf("insert test code: %v", err)
	}
	return code
}
