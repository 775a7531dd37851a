// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cmfstudio/internal/cache"
	"cmfstudio/internal/imaging"
	"cmfstudio/internal/storage"
	"cmfstudio/internal/store"
)

// maxUploadSize is the maximum allowed recommendation image upload (20 MB).
const maxUploadSize = 20 << 20

// Admin groups the curator-facing CRUD handlers for access codes,
// recommendations and submissions.
type Admin struct {
	accessCodes     *store.AccessCodeStore
	recommendations *store.RecommendationStore
	submissions     *store.SubmissionStore
	storageClient   *storage.Client
	recCache        *cache.RecommendationCache
}

// NewAdmin creates the admin handler group with its dependencies.
func NewAdmin(accessCodes *store.AccessCodeStore, recommendations *store.RecommendationStore, submissions *store.SubmissionStore, storageClient *storage.Client, recCache *cache.RecommendationCache) *Admin {
	return &Admin{
		accessCodes:     accessCodes,
		recommendations: recommendations,
		submissions:     submissions,
		storageClient:   storageClient,
		recCache:        recCache,
	}
}

// AccessCodesList returns every access code, including deactivated ones.
func (a *Admin) AccessCodesList(w http.ResponseWriter, r *http.Request) {
	codes, err := a.accessCodes.List()
	if err != nil {
		slog.Error("list access codes failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	respond(w, http.StatusOK, codes)
}

// AccessCodeCreate creates a new access code.
func (a *Admin) AccessCodeCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	code, err := a.accessCodes.Create(req.Code)
	switch {
	case errors.Is(err, store.ErrInvalidAccessCode):
		respondErr(w, http.StatusBadRequest, "Access code must not be empty.")
		return
	case errors.Is(err, store.ErrDuplicateCode):
		respondErr(w, http.StatusBadRequest, "Access code already exists.")
		return
	case err != nil:
		slog.Error("create access code failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusCreated, code)
}

// AccessCodeDelete removes a code; its recommendations cascade away.
// Submissions made under the code are kept.
func (a *Admin) AccessCodeDelete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	err := a.accessCodes.Delete(code)
	if errors.Is(err, store.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Access code not found.")
		return
	}
	if err != nil {
		slog.Error("delete access code failed", "error", err, "code", code)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	// The cascade may remove recommendations this handler never saw.
	a.recCache.InvalidateAll(r.Context())

	respond(w, http.StatusOK, nil)
}

// RecommendationsAll returns every curated design for the admin view.
func (a *Admin) RecommendationsAll(w http.ResponseWriter, r *http.Request) {
	items, err := a.recommendations.ListAll()
	if err != nil {
		slog.Error("list all recommendations failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	respond(w, http.StatusOK, items)
}

// RecommendationCreate handles the multipart recommendation form: title,
// description, access_code and an image file. The image lands in the
// public bucket (or becomes a data URI without object storage).
func (a *Admin) RecommendationCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondErr(w, http.StatusRequestEntityTooLarge, "Image too large. Maximum size is 20 MB.")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	accessCode := strings.TrimSpace(r.FormValue("access_code"))

	file, _, err := r.FormFile("image")
	if title == "" || description == "" || accessCode == "" || err != nil {
		respondErr(w, http.StatusBadRequest, "title, description, access_code and image are required.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, "Failed to read image.")
		return
	}

	contentType, err := imaging.Validate(data)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "Unsupported or oversized image.")
		return
	}

	imageURL, key, err := storeImage(r.Context(), a.storageClient, false, "recommendations", data, contentType)
	if err != nil {
		slog.Error("recommendation image upload failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Failed to store image.")
		return
	}

	item, err := a.recommendations.Create(title, description, accessCode, imageURL)
	if errors.Is(err, store.ErrInvalidAccessCode) {
		// Clean up the orphaned object (best-effort).
		if a.storageClient != nil && key != "" {
			if derr := a.storageClient.Delete(r.Context(), a.storageClient.PublicBucket(), key); derr != nil {
				slog.Warn("orphan image delete failed", "error", derr, "key", key)
			}
		}
		respondErr(w, http.StatusBadRequest, "Access code is unknown or inactive.")
		return
	}
	if err != nil {
		slog.Error("create recommendation failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	a.recCache.Invalidate(r.Context(), accessCode)

	respond(w, http.StatusCreated, item)
}

// RecommendationDelete removes a curated design by numeric ID.
func (a *Admin) RecommendationDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid recommendation ID.")
		return
	}

	err = a.recommendations.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Recommendation not found.")
		return
	}
	if err != nil {
		slog.Error("delete recommendation failed", "error", err, "id", id)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	a.recCache.InvalidateAll(r.Context())

	respond(w, http.StatusOK, nil)
}

// SubmissionsList returns every submission, newest first, with original
// images in upload order.
func (a *Admin) SubmissionsList(w http.ResponseWriter, r *http.Request) {
	subs, err := a.submissions.ListAll()
	if err != nil {
		slog.Error("list submissions failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	respond(w, http.StatusOK, subs)
}

// SubmissionDelete removes a submission by numeric ID.
func (a *Admin) SubmissionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid submission ID.")
		return
	}

	err = a.submissions.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Submission not found.")
		return
	}
	if err != nil {
		slog.Error("delete submission failed", "error", err, "id", id)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, nil)
}
