// Package llm holds the language-model clients behind nl2sql.Completer.
//
// Clients never return errors: an HTTP failure or an unexpected body is turned
// into a diagnostic string, which the pipeline treats as any other completion.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-lite-001:generateContent"

	geminiUnexpectedFormat = "Received an unexpected response format from Gemini API."
)

type GeminiConfig struct {
	URL    string
	APIKey string
	// Timeout of zero leaves the transport default in place
	Timeout time.Duration
}

// Gemini calls the generateContent endpoint with the API key as a query parameter
type Gemini struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGemini(cfg GeminiConfig) *Gemini {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		endpoint = DefaultGeminiURL
	}
	return &Gemini{
		url:    endpoint,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt as the only content part and returns the first
// candidate's first text part, trimmed.
func (g *Gemini) Complete(ctx context.Context, prompt string) string {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return fmt.Sprintf("Request to Gemini API failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("Request to Gemini API failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("gemini request failed")
		return fmt.Sprintf("Request to Gemini API failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Request to Gemini API failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("gemini returned non-200")
		return fmt.Sprintf("Request failed with status code %d: %s", resp.StatusCode, string(raw))
	}

	return parseGeminiText(raw)
}

func (g *Gemini) endpoint() string {
	u, err := url.Parse(g.url)
	if err != nil {
		return g.url
	}
	q := u.Query()
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func parseGeminiText(raw []byte) string {
	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return geminiUnexpectedFormat
	}
	if len(parsed.Candidates) == 0 {
		return geminiUnexpectedFormat
	}
	content := parsed.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0].Text == nil {
		return geminiUnexpectedFormat
	}
	return strings.TrimSpace(*content.Parts[0].Text)
}
