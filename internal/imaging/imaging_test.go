// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// makePNG encodes a solid-color PNG of the given size.
func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	if ct := Sniff(makePNG(t, 4, 4)); ct != "image/png" {
		t.Errorf("png: got %q", ct)
	}
	if ct := Sniff(makeJPEG(t, 4, 4)); ct != "image/jpeg" {
		t.Errorf("jpeg: got %q", ct)
	}
	if ct := Sniff([]byte("hello world, definitely not an image")); ct == "image/png" {
		t.Errorf("text sniffed as png")
	}
}

func TestValidateAcceptsRasterPhotos(t *testing.T) {
	ct, err := Validate(makePNG(t, 16, 16))
	if err != nil {
		t.Fatalf("Validate png: %v", err)
	}
	if ct != "image/png" {
		t.Errorf("content type: got %q", ct)
	}

	ct, err = Validate(makeJPEG(t, 16, 16))
	if err != nil {
		t.Fatalf("Validate jpeg: %v", err)
	}
	if ct != "image/jpeg" {
		t.Errorf("content type: got %q", ct)
	}
}

func TestValidateRejectsNonImages(t *testing.T) {
	if _, err := Validate([]byte("<svg xmlns='http://www.w3.org/2000/svg'></svg>")); err == nil {
		t.Error("svg should be rejected")
	}
	if _, err := Validate([]byte("%PDF-1.4 not an image")); err == nil {
		t.Error("pdf should be rejected")
	}
	if _, err := Validate([]byte{}); err == nil {
		t.Error("empty payload should be rejected")
	}
}

func TestValidateRejectsTruncatedImage(t *testing.T) {
	data := makePNG(t, 16, 16)
	// Keep the magic bytes but cut off before the header completes.
	if _, err := Validate(data[:12]); err == nil {
		t.Error("truncated png should be rejected")
	}
}

func TestShrinkToFitPassthrough(t *testing.T) {
	data := makePNG(t, 100, 50)

	out, ct, err := ShrinkToFit(data, "image/png", 200)
	if err != nil {
		t.Fatalf("ShrinkToFit: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("image within bounds should be returned unchanged")
	}
	if ct != "image/png" {
		t.Errorf("content type: got %q", ct)
	}
}

func TestShrinkToFitDownscales(t *testing.T) {
	data := makePNG(t, 400, 200)

	out, ct, err := ShrinkToFit(data, "image/png", 100)
	if err != nil {
		t.Fatalf("ShrinkToFit: %v", err)
	}
	if ct != "image/jpeg" {
		t.Errorf("downscaled output should be jpeg, got %q", ct)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestShrinkToFitPortrait(t *testing.T) {
	data := makePNG(t, 200, 400)

	out, _, err := ShrinkToFit(data, "image/png", 100)
	if err != nil {
		t.Fatalf("ShrinkToFit: %v", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 50x100", cfg.Width, cfg.Height)
	}
}

func TestShrinkToFitGarbage(t *testing.T) {
	if _, _, err := ShrinkToFit([]byte("not an image"), "image/png", 100); err == nil {
		t.Error("garbage input should error")
	}
}
