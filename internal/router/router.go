// Package router sets up all HTTP routes and middleware chains for the
// CMF Studio API. It organizes routes into public, designer, auth and
// admin groups with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cmfstudio/internal/handlers"
	"cmfstudio/internal/middleware"
	"cmfstudio/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. genLimiter guards the generation endpoint.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, des *handlers.Designer, genLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS)
	r.Use(middleware.LoadSession(sessionStore))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health check — no auth.
	r.Get("/health", healthHandler)

	// Public API — consumed by external clients without a session.
	r.Post("/access-codes/validate", public.ValidateCode)
	r.Get("/recommendations", public.RecommendationsByCode)
	r.Post("/submissions", public.SubmissionCreate)

	// Private originals redirect through presigned GETs.
	r.Get("/media/*", public.MediaServe)

	// Designer flow — anonymous, session-backed.
	r.Route("/designer", func(r chi.Router) {
		r.Get("/state", des.State)
		r.Get("/options", des.Options)
		r.Get("/recommendations", des.Recommendations)
		r.Post("/start", des.Start)
		r.Post("/access", des.EnterAccess)
		r.Post("/images", des.UploadImage)
		r.Delete("/images/*", des.RemoveImage)
		r.Post("/next", des.Next)
		r.Post("/back", des.Back)
		r.Post("/configure", des.Configure)
		r.With(genLimiter.Middleware).Post("/generate", des.Generate)
		r.Post("/redo", des.Redo)
		r.Post("/submit", des.Submit)
	})

	// Curator authentication.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
			r.Get("/me", auth.Me)
		})
	})

	// Curator CRUD — authenticated + 2FA-verified sessions only. The guard
	// is attached per route, not on a mounted subrouter, so requests with
	// an unsupported method still resolve to 405 instead of hitting auth.
	adminOnly := r.With(middleware.RequireAdmin)

	adminOnly.Get("/access-codes", admin.AccessCodesList)
	adminOnly.Post("/access-codes", admin.AccessCodeCreate)
	adminOnly.Delete("/access-codes/{code}", admin.AccessCodeDelete)

	adminOnly.Get("/recommendations/all", admin.RecommendationsAll)
	adminOnly.Post("/recommendations", admin.RecommendationCreate)
	adminOnly.Delete("/recommendations/{id}", admin.RecommendationDelete)

	adminOnly.Get("/submissions", admin.SubmissionsList)
	adminOnly.Delete("/submissions/{id}", admin.SubmissionDelete)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
