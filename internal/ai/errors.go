// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies a generation failure so callers can surface a precise,
// human-readable message and decide whether a manual retry makes sense.
type Kind string

const (
	// KindMissingCredential means no provider is configured for image work.
	KindMissingCredential Kind = "missing_credential"

	// KindTimeout means the provider did not answer within the bounded wait.
	KindTimeout Kind = "timeout"

	// KindNoImageReturned means the provider responded but its payload
	// contained no image. Terminal for the call; never retried here.
	KindNoImageReturned Kind = "no_image_returned"

	// KindNetworkError covers transport-level failures reaching the provider.
	KindNetworkError Kind = "network_error"

	// KindUnknown is everything else, including provider-side API errors.
	KindUnknown Kind = "unknown"
)

// GenError is a classified image-generation failure.
type GenError struct {
	Kind     Kind
	Provider string
	Msg      string
	Err      error
}

// Error implements the error interface.
func (e *GenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai %s [%s]: %s: %v", e.Provider, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("ai %s [%s]: %s", e.Provider, e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *GenError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. Errors that are
// not GenError classify as KindUnknown.
func KindOf(err error) Kind {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// classifyTransport maps an HTTP round-trip error onto the taxonomy.
// Deadline expiry (from the caller's bounded-wait context or the client
// timeout) becomes KindTimeout; everything else transport-level is
// KindNetworkError.
func classifyTransport(provider string, err error) *GenError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenError{Kind: KindTimeout, Provider: provider, Msg: "request timed out", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &GenError{Kind: KindTimeout, Provider: provider, Msg: "request timed out", Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &GenError{Kind: KindNetworkError, Provider: provider, Msg: "request failed", Err: err}
	}

	return &GenError{Kind: KindUnknown, Provider: provider, Msg: "request failed", Err: err}
}
