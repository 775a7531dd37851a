// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded product photos and downscales
// oversized ones before they are stored and handed to the image provider.
// Pure Go: stdlib decoders plus golang.org/x/image for WebP and
// high-quality scaling.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxPixels caps the decoded pixel count to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	MaxPixels = 100_000_000

	// MaxDimension is the longest edge sent to the provider; larger
	// uploads are downscaled and re-encoded as JPEG.
	MaxDimension = 2048

	// jpegQuality is the re-encode quality for downscaled uploads.
	jpegQuality = 90
)

// allowedTypes defines the photo MIME types accepted for upload.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Sniff detects the content type from the first bytes of the payload.
func Sniff(data []byte) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	return http.DetectContentType(data[:n])
}

// Validate sniffs and checks an uploaded photo: MIME type must be an
// allowed raster format and the pixel count must be under MaxPixels.
// Returns the detected content type.
func Validate(data []byte) (string, error) {
	contentType := Sniff(data)
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("imaging: file type %q is not allowed", contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("imaging: decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", fmt.Errorf("imaging: image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	return contentType, nil
}

// ShrinkToFit downscales the photo so its longest edge is at most maxDim,
// re-encoding as JPEG. Images already within bounds are returned
// unchanged with their original content type.
func ShrinkToFit(data []byte, contentType string, maxDim int) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode config: %w", err)
	}

	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, contentType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	var ratio float64
	if w >= h {
		ratio = float64(maxDim) / float64(w)
	} else {
		ratio = float64(maxDim) / float64(h)
	}
	newW := int(float64(w) * ratio)
	newH := int(float64(h) * ratio)

	// Resize using CatmullRom (high quality).
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("imaging: encode: %w", err)
	}

	return buf.Bytes(), "image/jpeg", nil
}
