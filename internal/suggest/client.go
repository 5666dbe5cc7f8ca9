package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/config"
	"github.com/carebridge/platform/internal/shared/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client calls the external generative-text service for conflict
// suggestions. An empty API key disables it entirely: Suggest fails fast
// without touching the network.
type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient creates a new suggestion client
func NewClient(cfg config.AIConfig, log zerolog.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		log:     log.With().Str("component", "suggest").Logger(),
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// generateRequest is the generateContent request body
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

// generateResponse is the subset of the generateContent response we read
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// responseSchema constrains the model to the AISuggestions shape
func responseSchema() map[string]any {
	conflictItems := func(idField string) map[string]any {
		return map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"description": map[string]any{"type": "STRING"},
				idField: map[string]any{
					"type":  "ARRAY",
					"items": map[string]any{"type": "STRING"},
				},
			},
		}
	}

	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"appointmentConflicts": map[string]any{
				"type":        "ARRAY",
				"description": "List of scheduling conflicts between appointments.",
				"items":       conflictItems("appointmentIds"),
			},
			"medicationConflicts": map[string]any{
				"type":        "ARRAY",
				"description": "List of potential medication interactions.",
				"items":       conflictItems("medicationIds"),
			},
		},
	}
}

func buildPrompt(p patient.Patient) string {
	var meds strings.Builder
	for _, m := range p.Medications {
		fmt.Fprintf(&meds, "- %s (%s)\n", m.Name, m.Dosage)
	}

	var appts strings.Builder
	for _, a := range p.Appointments {
		fmt.Fprintf(&appts, "- Dr. %s (%s) on %s\n", a.DoctorName, a.Specialty, a.DateTime.Format("Jan 2, 2006 3:04 PM"))
	}

	return fmt.Sprintf(`Analyze the following patient data for potential scheduling conflicts and common medication interactions. The patient's name is %s.

Current Medications:
%s
Upcoming Appointments:
%s
Tasks:
1. Identify any appointments that are scheduled too close together or overlap.
2. Identify common, well-known potential interactions between the listed medications. Provide a brief, non-technical explanation for each. THIS IS NOT MEDICAL ADVICE. It is a general information check. For example, mention potential increased bleeding risk with Aspirin and Warfarin.
3. Return the results in the specified JSON format. If no conflicts are found, return empty arrays.`,
		p.Name, meds.String(), appts.String())
}

// Suggest fetches conflict suggestions for the patient. With no API key it
// returns an unavailable error without making a network call. Upstream or
// decoding failures degrade to a placeholder result instead of an error so
// the dashboard always has something to show.
func (c *Client) Suggest(ctx context.Context, p patient.Patient) (AISuggestions, error) {
	if !c.Enabled() {
		return AISuggestions{}, errors.Unavailable("AI suggestions are disabled: no API key configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return AISuggestions{}, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(p)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	})
	if err != nil {
		return AISuggestions{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return AISuggestions{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("suggestion request failed")
		return DegradedSuggestions(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("suggestion service returned an error")
		return DegradedSuggestions(), nil
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		c.log.Warn().Err(err).Msg("failed to decode suggestion response")
		return DegradedSuggestions(), nil
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		c.log.Warn().Msg("suggestion response had no candidates")
		return DegradedSuggestions(), nil
	}

	var suggestions AISuggestions
	text := strings.TrimSpace(gen.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		c.log.Warn().Err(err).Msg("suggestion payload was not valid JSON")
		return DegradedSuggestions(), nil
	}

	if suggestions.AppointmentConflicts == nil {
		suggestions.AppointmentConflicts = []AppointmentConflict{}
	}
	if suggestions.MedicationConflicts == nil {
		suggestions.MedicationConflicts = []MedicationConflict{}
	}
	return suggestions, nil
}
