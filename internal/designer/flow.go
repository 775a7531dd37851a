// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package designer models the design-session state machine:
// menu → {access gate} → upload → configure → result. The Flow is pure
// state; it lives inside the Valkey session and every HTTP handler loads
// it, applies one transition, and saves it back.
package designer

import (
	"errors"
	"fmt"

	"cmfstudio/internal/design"
)

// Step identifies where a session is in the designer flow.
type Step string

const (
	StepMenu       Step = "menu"
	StepAccessGate Step = "access_gate"
	StepUpload     Step = "upload"
	StepConfigure  Step = "configure"
	StepResult     Step = "result"
)

var (
	// ErrInvalidTransition is returned when an action is not legal from
	// the flow's current step.
	ErrInvalidTransition = errors.New("designer: action not allowed in current step")

	// ErrNoImages is returned when moving past upload without any image.
	ErrNoImages = errors.New("designer: upload at least one product photo first")

	// ErrTooManyImages is returned when adding a fourth image.
	ErrTooManyImages = errors.New("designer: at most three photos per design")

	// ErrGenerationInFlight is returned when generate is triggered while
	// a previous generation for the same session has not finished.
	ErrGenerationInFlight = errors.New("designer: a generation is already running")

	// ErrNoAccessCode is returned when sending to the curator from a free
	// session.
	ErrNoAccessCode = errors.New("designer: sending to the curator requires an access code")
)

// Image is one uploaded product photo held by the session. Key addresses
// the stored object; URL is what the client renders.
type Image struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Result is the outcome of a successful generation.
type Result struct {
	ImageURL string `json:"image_url"`
	Note     string `json:"note,omitempty"`
}

// Flow is the per-session designer state.
type Flow struct {
	Step        Step                   `json:"step"`
	AccessCode  string                 `json:"access_code,omitempty"`
	Images      []Image                `json:"images"`
	Pairs       []design.MaterialColor `json:"pairs"`
	Finish      string                 `json:"finish,omitempty"`
	Description string                 `json:"description,omitempty"`
	Generating  bool                   `json:"generating"`
	Result      *Result                `json:"result,omitempty"`
}

// NewFlow returns a fresh flow at the menu with default CMF selections.
func NewFlow() *Flow {
	return &Flow{
		Step:   StepMenu,
		Images: []Image{},
		Pairs:  design.DefaultPairs(),
	}
}

// StartFree enters the designer without an access code.
func (f *Flow) StartFree() error {
	if f.Step != StepMenu {
		return stepErr(f.Step, "start")
	}
	f.Step = StepUpload
	f.AccessCode = ""
	return nil
}

// StartPremium moves to the access gate. The code itself is checked by
// the caller against the store; GrantAccess completes the transition.
func (f *Flow) StartPremium() error {
	if f.Step != StepMenu {
		return stepErr(f.Step, "start")
	}
	f.Step = StepAccessGate
	return nil
}

// GrantAccess records a validated code and enters the upload step. A
// failed validation never calls this: the flow simply stays at the gate,
// so retries are unlimited.
func (f *Flow) GrantAccess(code string) error {
	if f.Step != StepAccessGate {
		return stepErr(f.Step, "enter access code")
	}
	f.AccessCode = code
	f.Step = StepUpload
	return nil
}

// AddImage attaches an uploaded photo. Allowed on both designer steps so
// a user who went back can re-add without friction.
func (f *Flow) AddImage(img Image) error {
	if f.Step != StepUpload && f.Step != StepConfigure {
		return stepErr(f.Step, "upload a photo")
	}
	if len(f.Images) >= design.MaxImages {
		return ErrTooManyImages
	}
	f.Images = append(f.Images, img)
	return nil
}

// RemoveImage drops an uploaded photo by key. Returns the removed image
// so the caller can release the stored object.
func (f *Flow) RemoveImage(key string) (*Image, error) {
	if f.Step != StepUpload && f.Step != StepConfigure {
		return nil, stepErr(f.Step, "remove a photo")
	}
	for i, img := range f.Images {
		if img.Key == key {
			f.Images = append(f.Images[:i], f.Images[i+1:]...)
			return &img, nil
		}
	}
	return nil, fmt.Errorf("designer: no uploaded photo with key %q", key)
}

// Next advances from upload to configure. Requires at least one image.
func (f *Flow) Next() error {
	if f.Step != StepUpload {
		return stepErr(f.Step, "continue")
	}
	if len(f.Images) == 0 {
		return ErrNoImages
	}
	f.Step = StepConfigure
	return nil
}

// Back returns from configure to upload, preserving uploaded images and
// the current CMF selections.
func (f *Flow) Back() error {
	if f.Step != StepConfigure {
		return stepErr(f.Step, "go back")
	}
	f.Step = StepUpload
	return nil
}

// BeginGenerate marks a generation as in flight. Only legal from the
// configure step with at least one image; a second trigger while one is
// running is rejected, which is what disables the generate action
// client-side during loading.
func (f *Flow) BeginGenerate() error {
	if f.Step != StepConfigure {
		return stepErr(f.Step, "generate")
	}
	if f.Generating {
		return ErrGenerationInFlight
	}
	if len(f.Images) == 0 {
		return ErrNoImages
	}
	f.Generating = true
	return nil
}

// FinishGenerate records a successful generation and shows the result.
func (f *Flow) FinishGenerate(res Result) {
	f.Generating = false
	f.Result = &res
	f.Step = StepResult
}

// FailGenerate clears the in-flight flag and keeps the user on the
// configure step so they can adjust and retry manually.
func (f *Flow) FailGenerate() {
	f.Generating = false
}

// Redo starts a new design from the result: images and the generated
// result are cleared and CMF selections reset to defaults. The access
// code is kept.
func (f *Flow) Redo() error {
	if f.Step != StepResult {
		return stepErr(f.Step, "redo")
	}
	f.Images = []Image{}
	f.Pairs = design.DefaultPairs()
	f.Finish = ""
	f.Description = ""
	f.Result = nil
	f.Step = StepUpload
	return nil
}

// CanSubmit reports whether the session may send the result to the
// curator: only from the result step, and only with an access code.
func (f *Flow) CanSubmit() error {
	if f.Step != StepResult || f.Result == nil {
		return stepErr(f.Step, "send to curator")
	}
	if f.AccessCode == "" {
		return ErrNoAccessCode
	}
	return nil
}

// OriginalImageURLs returns the uploaded photo URLs in upload order, for
// inclusion in a submission.
func (f *Flow) OriginalImageURLs() []string {
	urls := make([]string, 0, len(f.Images))
	for _, img := range f.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

func stepErr(s Step, action string) error {
	return fmt.Errorf("%w: cannot %s from %q", ErrInvalidTransition, action, s)
}
