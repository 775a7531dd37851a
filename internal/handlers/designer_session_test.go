// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"cmfstudio/internal/designer"
	"cmfstudio/internal/session"
)

func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// A generation failure must clear the in-flight flag even when the
// request context is already canceled (client disconnected mid-call).
// Otherwise the stored session rejects every retry with 409 until TTL.
func TestFailGenerateSurvivesCanceledRequest(t *testing.T) {
	client := testValkeyClient(t)
	sessions := session.NewStore(client, false)
	d := NewDesigner(sessions, nil, nil, nil, nil, nil, nil)

	flow := designer.NewFlow()
	if err := flow.StartFree(); err != nil {
		t.Fatalf("StartFree: %v", err)
	}
	if err := flow.AddImage(designer.Image{Key: "k", URL: "u"}); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if err := flow.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := flow.BeginGenerate(); err != nil {
		t.Fatalf("BeginGenerate: %v", err)
	}

	data := &session.Data{Designer: flow}
	rec := httptest.NewRecorder()
	id, err := sessions.Create(context.Background(), rec, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/designer/generate", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: id})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req = req.WithContext(ctx)

	d.failGenerate(req, data)

	fresh, err := sessions.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fresh == nil || fresh.Designer == nil {
		t.Fatal("session should still exist after failed generation")
	}
	if fresh.Designer.Generating {
		t.Error("in-flight flag should be cleared in the stored session")
	}
	if fresh.Designer.Step != designer.StepConfigure {
		t.Errorf("step: got %q, want %q", fresh.Designer.Step, designer.StepConfigure)
	}
}
