// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cmfstudio/internal/cache"
	"cmfstudio/internal/design"
	"cmfstudio/internal/imaging"
	"cmfstudio/internal/models"
	"cmfstudio/internal/storage"
	"cmfstudio/internal/store"
)

// presignExpiry is how long a presigned URL for a private original is valid.
const presignExpiry = 1 * time.Hour

// Public groups the unauthenticated API handlers: code validation,
// per-code recommendation lists, submission intake and media serving.
type Public struct {
	accessCodes     *store.AccessCodeStore
	recommendations *store.RecommendationStore
	submissions     *store.SubmissionStore
	storageClient   *storage.Client
	recCache        *cache.RecommendationCache
}

// NewPublic creates the public handler group with its dependencies.
func NewPublic(accessCodes *store.AccessCodeStore, recommendations *store.RecommendationStore, submissions *store.SubmissionStore, storageClient *storage.Client, recCache *cache.RecommendationCache) *Public {
	return &Public{
		accessCodes:     accessCodes,
		recommendations: recommendations,
		submissions:     submissions,
		storageClient:   storageClient,
		recCache:        recCache,
	}
}

// ValidateCode checks an access code and reports the result. Validation
// is advisory here; every write re-validates server-side.
func (p *Public) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		respondErr(w, http.StatusBadRequest, "code is required.")
		return
	}

	valid, err := p.accessCodes.Validate(req.Code)
	if err != nil {
		slog.Error("validate access code failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, map[string]bool{"valid": valid})
}

// RecommendationsByCode returns the curated designs for one access code,
// newest first, served from the Valkey cache when warm.
func (p *Public) RecommendationsByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("accessCode"))
	if code == "" {
		respondErr(w, http.StatusBadRequest, "accessCode query parameter is required.")
		return
	}

	if items, ok := p.recCache.Get(r.Context(), code); ok {
		respond(w, http.StatusOK, items)
		return
	}

	items, err := p.recommendations.ListByCode(code)
	if err != nil {
		slog.Error("list recommendations failed", "error", err, "code", code)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if items == nil {
		items = []models.RecommendedDesign{}
	}

	p.recCache.Set(r.Context(), code, items)

	respond(w, http.StatusOK, items)
}

// SubmissionCreate accepts a finished design from an external client.
// The generated image arrives either as a URL or as base64 bytes; in the
// latter case it is stored first. The access code is validated
// authoritatively inside the store transaction.
func (p *Public) SubmissionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessCode           string   `json:"access_code"`
		Comment              string   `json:"comment"`
		GeneratedImageURL    string   `json:"generated_image_url"`
		GeneratedImageBase64 string   `json:"generated_image_base64"`
		OriginalImages       []string `json:"original_images"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if strings.TrimSpace(req.AccessCode) == "" {
		respondErr(w, http.StatusBadRequest, "access_code is required.")
		return
	}
	if req.GeneratedImageURL == "" && req.GeneratedImageBase64 == "" {
		respondErr(w, http.StatusBadRequest, "generated_image_url or generated_image_base64 is required.")
		return
	}
	if len(req.OriginalImages) > design.MaxImages {
		respondErr(w, http.StatusBadRequest, "At most three original images are allowed.")
		return
	}

	generatedURL := req.GeneratedImageURL
	if generatedURL == "" {
		data, err := base64.StdEncoding.DecodeString(req.GeneratedImageBase64)
		if err != nil {
			respondErr(w, http.StatusBadRequest, "generated_image_base64 is not valid base64.")
			return
		}
		contentType := imaging.Sniff(data)
		generatedURL, _, err = storeImage(r.Context(), p.storageClient, false, "generated", data, contentType)
		if err != nil {
			slog.Error("generated image upload failed", "error", err)
			respondErr(w, http.StatusInternalServerError, "Failed to store generated image.")
			return
		}
	}

	sub, err := p.submissions.Create(req.AccessCode, req.Comment, generatedURL, req.OriginalImages)
	if errors.Is(err, store.ErrInvalidAccessCode) {
		respondErr(w, http.StatusInternalServerError, "Access code is unknown or inactive.")
		return
	}
	if err != nil {
		slog.Error("create submission failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusCreated, sub)
}

// MediaServe redirects to a presigned URL for a privately stored original
// photo. Without object storage there are no private objects to serve.
func (p *Public) MediaServe(w http.ResponseWriter, r *http.Request) {
	if p.storageClient == nil {
		respondErr(w, http.StatusNotFound, "Not found.")
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		respondErr(w, http.StatusBadRequest, "Invalid media key.")
		return
	}

	presigned, err := p.storageClient.PresignedURL(r.Context(), p.storageClient.PrivateBucket(), key, presignExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", key)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	http.Redirect(w, r, presigned, http.StatusFound)
}
