// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handler groups for the CMF Studio
// API. Every response uses the {success, data?, error?} envelope.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cmfstudio/internal/storage"
)

// maxJSONBody caps JSON request bodies. Submission payloads may embed a
// base64 generated image, so the cap is generous.
const maxJSONBody = 30 << 20

// envelope is the uniform JSON response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// respondErr writes a failure envelope with a human-readable message.
func respondErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// decodeJSON reads and decodes a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// methodNotAllowed is chi's MethodNotAllowedHandler: 405 with the envelope.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondErr(w, http.StatusMethodNotAllowed, "Method not allowed.")
}

// notFound is chi's NotFoundHandler: 404 with the envelope.
func notFound(w http.ResponseWriter, r *http.Request) {
	respondErr(w, http.StatusNotFound, "Not found.")
}

// MethodNotAllowed and NotFound expose the fallback handlers to the router.
var (
	MethodNotAllowed http.HandlerFunc = methodNotAllowed
	NotFound         http.HandlerFunc = notFound
)

// storeImage persists image bytes and returns a URL the client can render
// plus the object key (empty when storage is unconfigured and the image
// was embedded as a data URI). Private-bucket objects get an app-relative
// /media/ URL that redirects through a presigned GET.
func storeImage(ctx context.Context, sc *storage.Client, private bool, prefix string, data []byte, contentType string) (url, key string, err error) {
	if sc == nil {
		return storage.DataURI(contentType, data), "", nil
	}

	now := time.Now()
	key = fmt.Sprintf("%s/%d/%02d/%s%s", prefix, now.Year(), now.Month(), uuid.NewString(), extensionFromType(contentType))

	bucket := sc.PublicBucket()
	if private {
		bucket = sc.PrivateBucket()
	}

	if err := sc.Upload(ctx, bucket, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", "", err
	}

	if private {
		return "/media/" + key, key, nil
	}
	return sc.FileURL(key), key, nil
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
