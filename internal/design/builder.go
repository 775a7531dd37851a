// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package design turns structured CMF choices (material/color pairs, an
// optional finish and free-text note) into an instruction for the image
// provider and runs the generation call with a bounded wait.
package design

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cmfstudio/internal/ai"
)

const (
	// MaxImages is the maximum number of source photos per request.
	MaxImages = 3

	// MaxPairs is the maximum number of material/color pairs per request.
	MaxPairs = 3

	// maxDescriptionLen caps the free-text addendum embedded in the prompt.
	maxDescriptionLen = 500

	// DefaultTimeout bounds the wait on the provider when the caller has
	// not configured one.
	DefaultTimeout = 120 * time.Second
)

var (
	// ErrNoImages is returned when a request carries no source image.
	ErrNoImages = errors.New("design: at least one source image is required")

	// ErrTooManyImages is returned when a request exceeds MaxImages.
	ErrTooManyImages = errors.New("design: at most three source images are allowed")

	// ErrNoPairs is returned when a request carries no material/color pair.
	ErrNoPairs = errors.New("design: at least one material/color pair is required")

	// ErrTooManyPairs is returned when a request exceeds MaxPairs.
	ErrTooManyPairs = errors.New("design: at most three material/color pairs are allowed")
)

// hexColorRe matches a six-digit hex color with leading hash.
var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// MaterialColor is one requested material with its target color.
type MaterialColor struct {
	Material string `json:"material"`
	ColorHex string `json:"color_hex"`
}

// Request carries everything needed for one generation call. It is
// transient: built from session state, consumed once, never persisted.
type Request struct {
	Images      []ai.ImageData
	Pairs       []MaterialColor
	Finish      string
	Description string
}

// Generated is the decoded provider output for a successful request.
type Generated struct {
	Images       [][]byte
	ContentTypes []string
	Note         string
}

// Validate checks the request bounds before any external call is made.
func (r *Request) Validate() error {
	if len(r.Images) == 0 {
		return ErrNoImages
	}
	if len(r.Images) > MaxImages {
		return ErrTooManyImages
	}
	if len(r.Pairs) == 0 {
		return ErrNoPairs
	}
	if len(r.Pairs) > MaxPairs {
		return ErrTooManyPairs
	}
	for _, p := range r.Pairs {
		if strings.TrimSpace(p.Material) == "" {
			return fmt.Errorf("design: material must not be empty")
		}
		if !hexColorRe.MatchString(p.ColorHex) {
			return fmt.Errorf("design: color %q is not a #RRGGBB hex code", p.ColorHex)
		}
	}
	return nil
}

// Prompt builds the natural-language instruction for the provider: the
// CMF scheme with hex colors, the shape-preservation constraint, and any
// optional finish and free-text addendum.
func (r *Request) Prompt() string {
	var b strings.Builder

	b.WriteString("Redesign the product in the attached photo")
	if len(r.Images) > 1 {
		b.WriteString("s")
	}
	b.WriteString(" with a new color, material and finish treatment.\n")
	b.WriteString("Apply this CMF scheme to the product surfaces:\n")

	for i, p := range r.Pairs {
		fmt.Fprintf(&b, "%d. %s in color %s\n", i+1, strings.TrimSpace(p.Material), strings.ToUpper(p.ColorHex))
	}

	if finish := strings.TrimSpace(r.Finish); finish != "" {
		fmt.Fprintf(&b, "Overall surface finish: %s.\n", finish)
	}

	b.WriteString("Keep the product's original shape, proportions, perspective ")
	b.WriteString("and background exactly as they are. Change only the surface ")
	b.WriteString("color, material and finish.\n")

	if desc := strings.TrimSpace(r.Description); desc != "" {
		if len(desc) > maxDescriptionLen {
			desc = desc[:maxDescriptionLen]
		}
		fmt.Fprintf(&b, "Additional notes from the designer: %s\n", desc)
	}

	b.WriteString("Also give a one-paragraph explanation of the design result.")

	return b.String()
}

// Builder runs generation requests against the provider registry. It is
// stateless between calls; a failed call surfaces immediately and any
// retry is a user-initiated repeat.
type Builder struct {
	registry *ai.Registry
	timeout  time.Duration
}

// NewBuilder creates a Builder. A zero timeout falls back to DefaultTimeout.
func NewBuilder(registry *ai.Registry, timeout time.Duration) *Builder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Builder{registry: registry, timeout: timeout}
}

// Generate validates the request, builds the instruction and calls the
// active provider under a bounded wait. Validation failures are returned
// before any external call; provider failures arrive as *ai.GenError.
func (b *Builder) Generate(ctx context.Context, req *Request) (*Generated, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.registry.EditImage(ctx, req.Images, req.Prompt())
	if err != nil {
		return nil, err
	}

	return &Generated{
		Images:       res.Images,
		ContentTypes: res.ContentTypes,
		Note:         res.Note,
	}, nil
}
