// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"testing"
)

func TestRecommendationCreateAndListByCode(t *testing.T) {
	db := testDB(t)
	s := NewRecommendationStore(db)
	code := testCode(t, db)
	otherCode := testCode(t, db)

	first, err := s.Create("Graphite rework", "Matte graphite over aluminium.", code, "https://cdn/img1.png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == 0 {
		t.Error("created recommendation should carry an ID")
	}

	second, err := s.Create("Terracotta rework", "Warm ceramic tones.", code, "https://cdn/img2.png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Create("Other client", "Not for this code.", otherCode, "https://cdn/img3.png"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := s.ListByCode(code)
	if err != nil {
		t.Fatalf("ListByCode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}

	// Newest first.
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Errorf("order: got [%d %d], want [%d %d]", items[0].ID, items[1].ID, second.ID, first.ID)
	}

	// Lists are scoped to their code.
	for _, item := range items {
		if item.AccessCode != code {
			t.Errorf("leaked recommendation for %q in list for %q", item.AccessCode, code)
		}
	}
}

func TestRecommendationCreateInvalidCode(t *testing.T) {
	db := testDB(t)
	s := NewRecommendationStore(db)

	_, err := s.Create("Title", "Description", "TEST-NO-SUCH-CODE", "https://cdn/img.png")
	if !errors.Is(err, ErrInvalidAccessCode) {
		t.Errorf("got %v, want ErrInvalidAccessCode", err)
	}
}

func TestRecommendationCreateInactiveCode(t *testing.T) {
	db := testDB(t)
	s := NewRecommendationStore(db)
	codes := NewAccessCodeStore(db)
	code := testCode(t, db)

	if err := codes.Deactivate(code); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	_, err := s.Create("Title", "Description", code, "https://cdn/img.png")
	if !errors.Is(err, ErrInvalidAccessCode) {
		t.Errorf("got %v, want ErrInvalidAccessCode", err)
	}
}

func TestRecommendationCascadeOnCodeDelete(t *testing.T) {
	db := testDB(t)
	s := NewRecommendationStore(db)
	codes := NewAccessCodeStore(db)
	code := testCode(t, db)

	if _, err := s.Create("Doomed", "Goes with its code.", code, "https://cdn/img.png"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := codes.Delete(code); err != nil {
		t.Fatalf("Delete code: %v", err)
	}

	items, err := s.ListByCode(code)
	if err != nil {
		t.Fatalf("ListByCode: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("recommendations should cascade away with their code, got %d", len(items))
	}
}

func TestRecommendationDelete(t *testing.T) {
	db := testDB(t)
	s := NewRecommendationStore(db)
	code := testCode(t, db)

	item, err := s.Create("Removable", "Temporary.", code, "https://cdn/img.png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestRecommendationListAll(t *testing.T) {
	db := testDB(t)
	s := NewRecommendationStore(db)
	code := testCode(t, db)

	item, err := s.Create("Visible everywhere", "Admin view.", code, "https://cdn/img.png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	found := false
	for _, it := range items {
		if it.ID == item.ID {
			found = true
		}
	}
	if !found {
		t.Error("created recommendation missing from ListAll")
	}
}
