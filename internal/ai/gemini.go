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
	"net/http"
	"time"
)

// geminiProvider implements the Provider interface using the Google
// Gemini REST API (POST /v1beta/models/{model}:generateContent) with
// image modality enabled. Source images travel as inline base64 parts.
type geminiProvider struct {
	config ProviderConfig
	client *http.Client
}

// newGemini creates a new Google Gemini provider.
func newGemini(cfg ProviderConfig) *geminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-image"
	}
	return &geminiProvider{
		config: cfg,
		client: &http.Client{Timeout: 180 * time.Second},
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

// EditImage sends a multimodal generateContent request: the instruction
// text plus every source image as an inline-data part, with response
// modalities set to IMAGE and TEXT.
func (p *geminiProvider) EditImage(ctx context.Context, images []ImageData, prompt string) (*Result, error) {
	parts := []geminiPart{{Text: prompt}}
	for _, img := range images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: img.ContentType,
				Data:     base64.StdEncoding.EncodeToString(img.Bytes),
			},
		})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "gemini", Msg: "marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		p.config.BaseURL, p.config.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "gemini", Msg: "build request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransport("gemini", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport("gemini", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &GenError{
			Kind:     KindUnknown,
			Provider: "gemini",
			Msg:      fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &GenError{Kind: KindUnknown, Provider: "gemini", Msg: "unmarshal response", Err: err}
	}

	// Collect every image part and any accompanying note text.
	out := &Result{}
	for _, c := range result.Candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				imgBytes, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, &GenError{Kind: KindUnknown, Provider: "gemini", Msg: "decode base64 image", Err: err}
				}
				contentType := part.InlineData.MimeType
				if contentType == "" {
					contentType = "image/png"
				}
				out.Images = append(out.Images, imgBytes)
				out.ContentTypes = append(out.ContentTypes, contentType)
			} else if part.Text != "" && out.Note == "" {
				out.Note = part.Text
			}
		}
	}

	if len(out.Images) == 0 {
		return nil, &GenError{
			Kind:     KindNoImageReturned,
			Provider: "gemini",
			Msg:      "response contained no image data",
		}
	}

	return out, nil
}

// --- Gemini API types ---

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}
