// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cmfstudio/internal/ai"
	"cmfstudio/internal/cache"
	"cmfstudio/internal/design"
	"cmfstudio/internal/designer"
	"cmfstudio/internal/imaging"
	"cmfstudio/internal/middleware"
	"cmfstudio/internal/models"
	"cmfstudio/internal/session"
	"cmfstudio/internal/storage"
	"cmfstudio/internal/store"
)

// Designer groups the design-session endpoints. Each handler loads the
// flow from the Valkey session, applies one transition, and saves it back.
type Designer struct {
	sessions        *session.Store
	accessCodes     *store.AccessCodeStore
	recommendations *store.RecommendationStore
	submissions     *store.SubmissionStore
	recCache        *cache.RecommendationCache
	builder         *design.Builder
	storageClient   *storage.Client
	palette         design.Palette
}

// NewDesigner creates the designer handler group with its dependencies.
func NewDesigner(sessions *session.Store, accessCodes *store.AccessCodeStore, recommendations *store.RecommendationStore, submissions *store.SubmissionStore, recCache *cache.RecommendationCache, builder *design.Builder, storageClient *storage.Client) *Designer {
	return &Designer{
		sessions:        sessions,
		accessCodes:     accessCodes,
		recommendations: recommendations,
		submissions:     submissions,
		recCache:        recCache,
		builder:         builder,
		storageClient:   storageClient,
		palette:         design.DefaultPalette(),
	}
}

// sessionData returns the request's session data, creating fresh
// visitor state with a flow at the menu when the request carries none.
// existed reports whether the session was already stored, which decides
// between Update and Create on save.
func (d *Designer) sessionData(r *http.Request) (data *session.Data, existed bool) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		if sess.Designer == nil {
			sess.Designer = designer.NewFlow()
		}
		return sess, true
	}
	return &session.Data{Designer: designer.NewFlow()}, false
}

// saveSession persists the (possibly new) session.
func (d *Designer) saveSession(w http.ResponseWriter, r *http.Request, data *session.Data, existed bool) error {
	if existed {
		return d.sessions.Update(r.Context(), r, data)
	}
	_, err := d.sessions.Create(r.Context(), w, data)
	return err
}

// flowErrStatus maps a flow transition error onto an HTTP status.
func flowErrStatus(err error) int {
	switch {
	case errors.Is(err, designer.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, designer.ErrInvalidTransition),
		errors.Is(err, designer.ErrNoImages),
		errors.Is(err, designer.ErrTooManyImages),
		errors.Is(err, designer.ErrNoAccessCode):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// State returns the current flow so a client can re-render after reload.
func (d *Designer) State(w http.ResponseWriter, r *http.Request) {
	data, _ := d.sessionData(r)
	respond(w, http.StatusOK, data.Designer)
}

// Options returns the selectable materials, colors and finishes.
func (d *Designer) Options(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, d.palette)
}

// Start begins a design session in free or premium mode. Premium moves
// to the access gate; free goes straight to upload.
func (d *Designer) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	data, existed := d.sessionData(r)
	flow := data.Designer

	var err error
	switch req.Mode {
	case "free":
		err = flow.StartFree()
	case "premium":
		err = flow.StartPremium()
	default:
		respondErr(w, http.StatusBadRequest, `mode must be "free" or "premium".`)
		return
	}
	if err != nil {
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}

	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// EnterAccess validates the entered code against the store. On success
// the flow enters upload; on failure it stays at the gate and the user
// may retry without limit.
func (d *Designer) EnterAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		respondErr(w, http.StatusBadRequest, "code is required.")
		return
	}

	data, existed := d.sessionData(r)
	flow := data.Designer

	if flow.Step != designer.StepAccessGate {
		respondErr(w, http.StatusBadRequest, "No access code is being requested.")
		return
	}

	valid, err := d.accessCodes.Validate(req.Code)
	if err != nil {
		slog.Error("validate access code failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if !valid {
		respondErr(w, http.StatusBadRequest, "Access code is unknown or inactive.")
		return
	}

	if err := flow.GrantAccess(strings.TrimSpace(req.Code)); err != nil {
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}

	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// UploadImage attaches a product photo to the session. The photo is
// validated, downscaled when oversized and stored privately.
func (d *Designer) UploadImage(w http.ResponseWriter, r *http.Request) {
	data, existed := d.sessionData(r)
	flow := data.Designer

	// Reject early so an oversized fourth photo is not even read.
	if len(flow.Images) >= design.MaxImages {
		respondErr(w, http.StatusBadRequest, designer.ErrTooManyImages.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondErr(w, http.StatusRequestEntityTooLarge, "Image too large. Maximum size is 20 MB.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "image file is required.")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, "Failed to read image.")
		return
	}

	contentType, err := imaging.Validate(raw)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "Unsupported or oversized image.")
		return
	}

	raw, contentType, err = imaging.ShrinkToFit(raw, contentType, imaging.MaxDimension)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "Failed to process image.")
		return
	}

	url, key, err := storeImage(r.Context(), d.storageClient, true, "originals", raw, contentType)
	if err != nil {
		slog.Error("original image upload failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Failed to store image.")
		return
	}

	if err := flow.AddImage(designer.Image{Key: key, URL: url}); err != nil {
		// Release the stored object; the flow rejected the photo.
		if d.storageClient != nil && key != "" {
			if derr := d.storageClient.Delete(r.Context(), d.storageClient.PrivateBucket(), key); derr != nil {
				slog.Warn("orphan image delete failed", "error", derr, "key", key)
			}
		}
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}

	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// RemoveImage drops an uploaded photo and releases its stored object.
func (d *Designer) RemoveImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		respondErr(w, http.StatusBadRequest, "Image key is required.")
		return
	}

	data, existed := d.sessionData(r)
	flow := data.Designer

	removed, err := flow.RemoveImage(key)
	if err != nil {
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}

	if d.storageClient != nil && removed.Key != "" {
		if derr := d.storageClient.Delete(r.Context(), d.storageClient.PrivateBucket(), removed.Key); derr != nil {
			slog.Warn("image delete failed", "error", derr, "key", removed.Key)
		}
	}

	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// Next advances from upload to configure.
func (d *Designer) Next(w http.ResponseWriter, r *http.Request) {
	d.transition(w, r, func(f *designer.Flow) error { return f.Next() })
}

// Back returns from configure to upload, keeping photos and selections.
func (d *Designer) Back(w http.ResponseWriter, r *http.Request) {
	d.transition(w, r, func(f *designer.Flow) error { return f.Back() })
}

// Redo starts a new design from the result step.
func (d *Designer) Redo(w http.ResponseWriter, r *http.Request) {
	d.transition(w, r, func(f *designer.Flow) error { return f.Redo() })
}

// transition applies a parameterless flow transition and saves.
func (d *Designer) transition(w http.ResponseWriter, r *http.Request, fn func(*designer.Flow) error) {
	data, existed := d.sessionData(r)
	flow := data.Designer

	if err := fn(flow); err != nil {
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}

	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// Configure stores the CMF selections on the session. Legal on the
// configure step only; the bounds are checked here so bad input never
// reaches the provider.
func (d *Designer) Configure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pairs       []design.MaterialColor `json:"pairs"`
		Finish      string                 `json:"finish"`
		Description string                 `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	data, existed := d.sessionData(r)
	flow := data.Designer

	if flow.Step != designer.StepConfigure {
		respondErr(w, http.StatusBadRequest, "Design selections can only be changed on the configure step.")
		return
	}

	if len(req.Pairs) == 0 {
		respondErr(w, http.StatusBadRequest, design.ErrNoPairs.Error())
		return
	}
	if len(req.Pairs) > design.MaxPairs {
		respondErr(w, http.StatusBadRequest, design.ErrTooManyPairs.Error())
		return
	}

	flow.Pairs = req.Pairs
	flow.Finish = strings.TrimSpace(req.Finish)
	flow.Description = strings.TrimSpace(req.Description)

	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// Generate runs one image generation for the session: it gathers the
// uploaded photo bytes, builds the request from the stored selections
// and calls the active provider under a bounded wait. The in-flight flag
// in the flow blocks concurrent triggers from the same session.
func (d *Designer) Generate(w http.ResponseWriter, r *http.Request) {
	data, existed := d.sessionData(r)
	flow := data.Designer

	if err := flow.BeginGenerate(); err != nil {
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}
	if err := d.saveSession(w, r, data, existed); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	// From here on every exit must clear the in-flight flag.

	images, err := d.gatherImages(r, flow)
	if err != nil {
		d.failGenerate(r, data)
		slog.Error("gather session images failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Failed to load uploaded photos.")
		return
	}

	req := &design.Request{
		Images:      images,
		Pairs:       flow.Pairs,
		Finish:      flow.Finish,
		Description: flow.Description,
	}

	gen, err := d.builder.Generate(r.Context(), req)
	if err != nil {
		d.failGenerate(r, data)
		status, msg := generateFailure(err)
		respondErr(w, status, msg)
		return
	}

	resultURL, _, err := storeImage(r.Context(), d.storageClient, false, "generated", gen.Images[0], gen.ContentTypes[0])
	if err != nil {
		d.failGenerate(r, data)
		slog.Error("generated image upload failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Failed to store generated image.")
		return
	}

	flow.FinishGenerate(designer.Result{ImageURL: resultURL, Note: gen.Note})

	if err := d.sessions.Update(r.Context(), r, data); err != nil {
		slog.Error("session save failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, flow)
}

// failGenerate clears the in-flight flag and saves. The request context
// may already be canceled here (client gone, provider timeout), so the
// save runs on a detached context: a flag stuck at true would lock the
// session out of generating until its TTL.
func (d *Designer) failGenerate(r *http.Request, data *session.Data) {
	data.Designer.FailGenerate()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := d.sessions.Update(ctx, r, data); err != nil {
		slog.Warn("session save after failed generation", "error", err)
	}
}

// gatherImages loads the bytes of every uploaded photo, from the private
// bucket when storage is configured or by decoding the stored data URIs.
func (d *Designer) gatherImages(r *http.Request, flow *designer.Flow) ([]ai.ImageData, error) {
	images := make([]ai.ImageData, 0, len(flow.Images))
	for _, img := range flow.Images {
		if img.Key != "" && d.storageClient != nil {
			raw, err := d.storageClient.Download(r.Context(), d.storageClient.PrivateBucket(), img.Key)
			if err != nil {
				return nil, err
			}
			images = append(images, ai.ImageData{Bytes: raw, ContentType: imaging.Sniff(raw)})
			continue
		}

		contentType, raw, err := decodeDataURI(img.URL)
		if err != nil {
			return nil, err
		}
		images = append(images, ai.ImageData{Bytes: raw, ContentType: contentType})
	}
	return images, nil
}

// generateFailure maps a generation error onto a response. Validation
// errors are the caller's fault; provider errors map by failure kind.
func generateFailure(err error) (int, string) {
	switch {
	case errors.Is(err, design.ErrNoImages),
		errors.Is(err, design.ErrTooManyImages),
		errors.Is(err, design.ErrNoPairs),
		errors.Is(err, design.ErrTooManyPairs):
		return http.StatusBadRequest, err.Error()
	}

	slog.Error("image generation failed", "error", err, "kind", ai.KindOf(err))

	switch ai.KindOf(err) {
	case ai.KindMissingCredential:
		return http.StatusServiceUnavailable, "Image generation is not configured."
	case ai.KindTimeout:
		return http.StatusGatewayTimeout, "The image provider took too long. Please try again."
	case ai.KindNoImageReturned:
		return http.StatusBadGateway, "The image provider returned no image. Please try again."
	case ai.KindNetworkError:
		return http.StatusBadGateway, "Could not reach the image provider. Please try again."
	default:
		return http.StatusBadGateway, "Image generation failed. Please try again."
	}
}

// Submit sends the generated design to the curator. Requires a result
// and an access code; the code is re-validated inside the store
// transaction, so a code deactivated mid-session is still rejected.
func (d *Designer) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	data, _ := d.sessionData(r)
	flow := data.Designer

	if err := flow.CanSubmit(); err != nil {
		respondErr(w, flowErrStatus(err), err.Error())
		return
	}

	sub, err := d.submissions.Create(flow.AccessCode, req.Comment, flow.Result.ImageURL, flow.OriginalImageURLs())
	if errors.Is(err, store.ErrInvalidAccessCode) {
		respondErr(w, http.StatusBadRequest, "Access code is unknown or inactive.")
		return
	}
	if err != nil {
		slog.Error("create submission failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusCreated, sub)
}

// Recommendations returns the curated designs for the session's access
// code. Free sessions get an empty list; a store failure degrades to an
// empty list too, so the designer UI never breaks over recommendations.
func (d *Designer) Recommendations(w http.ResponseWriter, r *http.Request) {
	data, _ := d.sessionData(r)
	code := data.Designer.AccessCode

	if code == "" {
		respond(w, http.StatusOK, []models.RecommendedDesign{})
		return
	}

	if items, ok := d.recCache.Get(r.Context(), code); ok {
		respond(w, http.StatusOK, items)
		return
	}

	items, err := d.recommendations.ListByCode(code)
	if err != nil {
		slog.Error("list recommendations failed", "error", err, "code", code)
		respond(w, http.StatusOK, []models.RecommendedDesign{})
		return
	}
	if items == nil {
		items = []models.RecommendedDesign{}
	}

	d.recCache.Set(r.Context(), code, items)

	respond(w, http.StatusOK, items)
}

// decodeDataURI splits a data URI produced by storage.DataURI back into
// content type and raw bytes.
func decodeDataURI(uri string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("handlers: image URL is not a data URI")
	}
	contentType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, errors.New("handlers: data URI is not base64-encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return contentType, data, nil
}
