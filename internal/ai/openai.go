// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// openAIProvider implements the Provider interface using the OpenAI
// image edits API (POST /v1/images/edits) with multipart source images.
type openAIProvider struct {
	config ProviderConfig
	client *http.Client
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-image-1"
	}
	return &openAIProvider{
		config: cfg,
		client: &http.Client{Timeout: 180 * time.Second},
	}
}

func (p *openAIProvider) Name() string { return "openai" }

// EditImage uploads the source images and the instruction as a multipart
// form. The API returns base64-encoded PNGs; OpenAI sends no explanation
// text, so Result.Note stays empty.
func (p *openAIProvider) EditImage(ctx context.Context, images []ImageData, prompt string) (*Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("model", p.config.Model); err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "build form", Err: err}
	}
	if err := mw.WriteField("prompt", prompt); err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "build form", Err: err}
	}

	for i, img := range images {
		fw, err := mw.CreateFormFile("image[]", fmt.Sprintf("source-%d%s", i, extensionForType(img.ContentType)))
		if err != nil {
			return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "build form", Err: err}
		}
		if _, err := fw.Write(img.Bytes); err != nil {
			return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "build form", Err: err}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "build form", Err: err}
	}

	url := p.config.BaseURL + "/v1/images/edits"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "build request", Err: err}
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransport("openai", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport("openai", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &GenError{
			Kind:     KindUnknown,
			Provider: "openai",
			Msg:      fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}

	var result openAIImageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "unmarshal response", Err: err}
	}

	out := &Result{}
	for _, d := range result.Data {
		if d.B64JSON == "" {
			continue
		}
		imgBytes, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, &GenError{Kind: KindUnknown, Provider: "openai", Msg: "decode base64 image", Err: err}
		}
		out.Images = append(out.Images, imgBytes)
		out.ContentTypes = append(out.ContentTypes, "image/png")
	}

	if len(out.Images) == 0 {
		return nil, &GenError{
			Kind:     KindNoImageReturned,
			Provider: "openai",
			Msg:      "response contained no image data",
		}
	}

	return out, nil
}

// extensionForType picks a filename extension for the multipart part.
func extensionForType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// --- OpenAI API types ---

type openAIImageDatum struct {
	B64JSON string `json:"b64_json"`
}

type openAIImageResponse struct {
	Data []openAIImageDatum `json:"data"`
}
