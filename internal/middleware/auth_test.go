// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cmfstudio/internal/session"
)

// withSession injects session data into the request context the way
// LoadSession does, so the gate middleware can be tested without Valkey.
func withSession(req *http.Request, data *session.Data) *http.Request {
	ctx := context.WithValue(req.Context(), SessionKey, data)
	return req.WithContext(ctx)
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous request", func(t *testing.T) {
		next, called := okHandler()
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if *called {
			t.Error("handler must not run")
		}
	})

	t.Run("rejects visitor session without login", func(t *testing.T) {
		next, called := okHandler()
		req := withSession(httptest.NewRequest(http.MethodGet, "/auth/me", nil), &session.Data{})
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if *called {
			t.Error("handler must not run")
		}
	})

	t.Run("passes authenticated session", func(t *testing.T) {
		next, called := okHandler()
		req := withSession(httptest.NewRequest(http.MethodGet, "/auth/me", nil), &session.Data{UserID: uuid.New()})
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if !*called {
			t.Error("handler should run")
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("rejects anonymous request", func(t *testing.T) {
		next, _ := okHandler()
		rr := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/access-codes", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("rejects session pending 2FA", func(t *testing.T) {
		next, called := okHandler()
		req := withSession(httptest.NewRequest(http.MethodGet, "/access-codes", nil),
			&session.Data{UserID: uuid.New(), TwoFADone: false})
		rr := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want 403", rr.Code)
		}
		if *called {
			t.Error("handler must not run before 2FA")
		}
	})

	t.Run("passes 2FA-verified session", func(t *testing.T) {
		next, called := okHandler()
		req := withSession(httptest.NewRequest(http.MethodGet, "/access-codes", nil),
			&session.Data{UserID: uuid.New(), TwoFADone: true})
		rr := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if !*called {
			t.Error("handler should run")
		}
	})
}

// A session backend failure must degrade the request to anonymous, not
// block it. The client points at a closed port so Get errors immediately.
func TestLoadSessionBackendErrorDegrades(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()
	store := session.NewStore(client, false)

	var seen *session.Data
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = SessionFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/designer/state", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "deadbeef"})
	rr := httptest.NewRecorder()
	LoadSession(store)(next).ServeHTTP(rr, req)

	if !called {
		t.Fatal("handler should run despite the backend error")
	}
	if seen != nil {
		t.Error("request should carry no session data")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestSessionFromCtx(t *testing.T) {
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Errorf("empty context: got %+v, want nil", got)
	}

	data := &session.Data{Email: "curator@cmfstudio.local"}
	ctx := context.WithValue(context.Background(), SessionKey, data)
	if got := SessionFromCtx(ctx); got != data {
		t.Error("should return the stored session data")
	}
}
