// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/snaplocate/snaplocate/spatial"
	"google.golang.org/api/option"
)

const (
	geminiModel   = "gemini-2.0-flash"
	geminiTimeout = 10 * time.Second
)

const analysisPrompt = `Analyze this photograph and report what you see as JSON with this exact shape:
{
  "labels": ["general scene labels"],
  "landmarks": [{"name": "landmark name", "lat": 0.0, "lng": 0.0}],
  "text_lines": ["each line of visible text, signs, storefronts"],
  "logos": ["brand or logo names visible"]
}
Only include landmark coordinates you are confident about; omit lat/lng otherwise (use 0 for both).
Report text exactly as it appears, including misspellings. Respond with JSON only.`

// GeminiAnalyzer implements Analyzer on the Gemini API.
type GeminiAnalyzer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiAnalyzer creates a Gemini-backed vision analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiAnalyzer{
		client:  client,
		model:   geminiModel,
		timeout: geminiTimeout,
	}, nil
}

// Close releases the underlying client.
func (g *GeminiAnalyzer) Close() error {
	return g.client.Close()
}

// geminiSignals is the JSON shape the prompt asks for.
type geminiSignals struct {
	Labels    []string `json:"labels"`
	Landmarks []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
	} `json:"landmarks"`
	TextLines []string `json:"text_lines"`
	Logos     []string `json:"logos"`
}

// Analyze sends the image to Gemini and parses the structured response.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, imageData []byte) (*Signals, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(callCtx,
		genai.Text(analysisPrompt),
		genai.Blob{
			MIMEType: "image/jpeg",
			Data:     imageData,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	var raw string

	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw = string(text)

			break
		}
	}

	return parseSignals(raw)
}

// parseSignals decodes the model output, tolerating markdown code fences
// the model sometimes wraps JSON in.
func parseSignals(raw string) (*Signals, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed geminiSignals
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	signals := &Signals{
		Labels:    parsed.Labels,
		TextLines: parsed.TextLines,
		Logos:     parsed.Logos,
	}

	for _, lm := range parsed.Landmarks {
		landmark := Landmark{Name: lm.Name}

		// Zero coordinates mean the model declined to guess.
		if lm.Lat != 0 || lm.Lng != 0 {
			point := spatial.Point{Lat: lm.Lat, Lng: lm.Lng}
			if point.Valid() {
				landmark.Point = &point
			}
		}

		signals.Landmarks = append(signals.Landmarks, landmark)
	}

	return signals, nil
}
