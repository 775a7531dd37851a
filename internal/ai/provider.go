// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface for generative image providers
// (Gemini, OpenAI). Each provider implements the Provider interface, and
// the Registry selects the active one by name.
package ai

import (
	"context"
	"sync"
)

// ImageData is one source image handed to a provider.
type ImageData struct {
	Bytes       []byte
	ContentType string // e.g. "image/jpeg"
}

// Result holds a provider's generated output: one or more images plus an
// optional textual explanation of the design choices.
type Result struct {
	Images       [][]byte
	ContentTypes []string
	Note         string
}

// Provider defines the interface that all image providers must implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	// EditImage sends the source images and the instruction prompt to the
	// provider and returns the generated rendering. Failures are returned
	// as *GenError so callers can branch on the Kind.
	EditImage(ctx context.Context, images []ImageData, prompt string) (*Result, error)

	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Registry manages available image providers and selects the active one.
// It supports runtime switching by changing the active provider name.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are silently skipped.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		}
	}

	return r
}

// EditImage calls the active provider. When no provider is configured the
// failure is classified as KindMissingCredential so the caller can tell
// "service not set up" apart from a transient fault.
func (r *Registry) EditImage(ctx context.Context, images []ImageData, prompt string) (*Result, error) {
	p, err := r.Active()
	if err != nil {
		return nil, err
	}
	return p.EditImage(ctx, images, prompt)
}

// Active returns the currently active provider, or a KindMissingCredential
// GenError if none is configured under the active name.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, &GenError{
			Kind:     KindMissingCredential,
			Provider: r.active,
			Msg:      "no image provider configured",
		}
	}
	return p, nil
}

// SetActive switches the active provider at runtime. Returns an error if
// the named provider has no API key configured.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return &GenError{Kind: KindMissingCredential, Provider: name, Msg: "provider is not available (no API key?)"}
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Available returns the names of all providers that have valid API keys.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Register adds or replaces a provider in the registry. This allows
// injecting custom providers at runtime (e.g. for testing).
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured and available.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}
