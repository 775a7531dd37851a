// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"cmfstudio/internal/middleware"
	"cmfstudio/internal/session"
	"cmfstudio/internal/store"
)

// totpIssuer is the label shown in authenticator apps.
const totpIssuer = "CMF Studio"

// Auth groups the admin authentication handlers: password login, TOTP
// enrollment and verification, logout.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates the auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

// Login verifies email and password and starts an authenticated session.
// 2FA verification is still pending after a successful login.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := a.userStore.FindByEmail(req.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		respondErr(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	}

	// Carry over an existing designer flow so logging in mid-design does
	// not lose uploaded photos.
	if prev := middleware.SessionFromCtx(r.Context()); prev != nil {
		data.Designer = prev.Designer
	}

	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"needs_2fa_setup": user.Needs2FASetup(),
	})
}

// TwoFASetup generates (or re-issues) the TOTP secret for the logged-in
// user and returns the provisioning QR code as a base64 PNG. The secret
// only becomes binding once verified.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("2fa setup lookup failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	if user.TOTPEnabled {
		respondErr(w, http.StatusBadRequest, "Two-factor authentication is already enabled.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	if err := a.userStore.SetTOTPSecret(user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr encode failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"qr_png":  base64.StdEncoding.EncodeToString(qrPNG),
		"otp_url": key.URL(),
	})
}

// TwoFAVerify checks a TOTP code, completing enrollment on first use and
// marking the session 2FA-verified.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondErr(w, http.StatusBadRequest, "code is required.")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("2fa verify lookup failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if user.TOTPSecret == nil {
		respondErr(w, http.StatusBadRequest, "Two-factor authentication is not set up.")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondErr(w, http.StatusUnauthorized, "Invalid verification code.")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			respondErr(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		respondErr(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	respond(w, http.StatusOK, nil)
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	respond(w, http.StatusOK, nil)
}

// Me returns the logged-in user's identity.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	respond(w, http.StatusOK, map[string]any{
		"email":        sess.Email,
		"display_name": sess.DisplayName,
		"role":         sess.Role,
		"two_fa_done":  sess.TwoFADone,
	})
}
