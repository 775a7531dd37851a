// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	respond(rr, http.StatusCreated, map[string]string{"hello": "world"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}

	var env struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success {
		t.Error("success should be true")
	}
	if env.Data["hello"] != "world" {
		t.Errorf("data: got %v", env.Data)
	}
}

func TestRespondErrEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	respondErr(rr, http.StatusBadRequest, "code is required.")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}

	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success {
		t.Error("success should be false")
	}
	if env.Error != "code is required." {
		t.Errorf("error: got %q", env.Error)
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"STUDIO-1"}`))

	var dst struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(req, &dst); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if dst.Code != "STUDIO-1" {
		t.Errorf("code: got %q", dst.Code)
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{nope`))

	var dst struct{}
	if err := decodeJSON(req, &dst); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestFallbackHandlers(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("not found status: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	MethodNotAllowed(rr, httptest.NewRequest(http.MethodPatch, "/submissions", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("method not allowed status: got %d", rr.Code)
	}
}

func TestStoreImageWithoutStorage(t *testing.T) {
	// Without object storage the image is embedded as a data URI and there
	// is no object key to track.
	url, key, err := storeImage(context.Background(), nil, false, "generated", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("storeImage: %v", err)
	}
	if key != "" {
		t.Errorf("key: got %q, want empty", key)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("url: got %q, want a data URI", url)
	}

	// The data URI round-trips through the decoder.
	contentType, data, err := decodeDataURI(url)
	if err != nil {
		t.Fatalf("decodeDataURI: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("content type: got %q", contentType)
	}
	if string(data) != "png-bytes" {
		t.Errorf("data: got %q", data)
	}
}

func TestDecodeDataURIRejectsOther(t *testing.T) {
	if _, _, err := decodeDataURI("https://cdn/image.png"); err == nil {
		t.Error("plain URL should be rejected")
	}
	if _, _, err := decodeDataURI("data:image/png,raw-not-base64"); err == nil {
		t.Error("non-base64 data URI should be rejected")
	}
	if _, _, err := decodeDataURI("data:image/png;base64,!!!"); err == nil {
		t.Error("invalid base64 should be rejected")
	}
}

func TestExtensionFromType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"image/gif", ".gif"},
		{"image/jpeg", ".jpg"},
		{"application/octet-stream", ".jpg"},
	}
	for _, tt := range tests {
		if got := extensionFromType(tt.contentType); got != tt.want {
			t.Errorf("extensionFromType(%q): got %q, want %q", tt.contentType, got, tt.want)
		}
	}
}
