package cropdisease

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/config"
	"github.com/farma-sahayak/sahayak-server/internal/upstream"
)

const visionService = "vision model"

var (
	// ErrNotConfigured is returned when no vision model credentials are set.
	ErrNotConfigured = errors.New("crop disease detection is not configured")
	// ErrEmptyAnswer is returned when the model answers without usable content.
	ErrEmptyAnswer = errors.New("vision model returned no answer")
)

// Analyzer diagnoses crop images and suggests remedies.
type Analyzer interface {
	DetectDisease(ctx context.Context, mimeType string, image []byte) (Disease, error)
	SuggestRemedy(ctx context.Context, disease Disease) (Remedy, error)
}

// GeminiClient talks to a Gemini-compatible generateContent endpoint and asks
// for structured JSON answers.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.VisionConfig, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: timeout,
	}
}

const diseasePrompt = `Analyze the following image of a crop and identify any diseases or health issues.
Respond in JSON with:
- disease_name: the name of the disease, or "Healthy" if there is none
- severity: one of "low", "medium", "high", or "none" for a healthy crop`

const remedyPrompt = `The crop is infected with %q and the severity is %q.
Respond in JSON with:
- remedy_steps: 1 to 3 short actionable bullet points a farmer can follow
- recheck_days: the number of days after which the crop should be checked again
- estimated_cost: the estimated cost of the treatment in Indian Rupees`

var diseaseSchema = schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"disease_name": {Type: "STRING"},
		"severity":     {Type: "STRING", Enum: []string{"low", "medium", "high", "none"}},
	},
	Required: []string{"disease_name", "severity"},
}

var remedySchema = schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"remedy_steps":   {Type: "STRING"},
		"recheck_days":   {Type: "INTEGER"},
		"estimated_cost": {Type: "INTEGER"},
	},
	Required: []string{"remedy_steps", "recheck_days", "estimated_cost"},
}

type schema struct {
	Type       string            `json:"type"`
	Properties map[string]schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
	Enum       []string          `json:"enum,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
	ResponseSchema   schema `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// DetectDisease asks the model to diagnose image.
func (c *GeminiClient) DetectDisease(ctx context.Context, mimeType string, image []byte) (Disease, error) {
	parts := []part{
		{Text: diseasePrompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	}
	var disease Disease
	if err := c.generate(ctx, parts, diseaseSchema, &disease); err != nil {
		return Disease{}, fmt.Errorf("detect disease: %w", err)
	}
	disease.Name = strings.TrimSpace(disease.Name)
	disease.Severity = strings.ToLower(strings.TrimSpace(disease.Severity))
	if disease.Name == "" {
		return Disease{}, fmt.Errorf("detect disease: %w", ErrEmptyAnswer)
	}
	return disease, nil
}

// SuggestRemedy asks the model how to treat disease.
func (c *GeminiClient) SuggestRemedy(ctx context.Context, disease Disease) (Remedy, error) {
	parts := []part{{Text: fmt.Sprintf(remedyPrompt, disease.Name, disease.Severity)}}
	var remedy Remedy
	if err := c.generate(ctx, parts, remedySchema, &remedy); err != nil {
		return Remedy{}, fmt.Errorf("suggest remedy: %w", err)
	}
	return remedy, nil
}

func (c *GeminiClient) generate(ctx context.Context, parts []part, out schema, dst any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	timeout, err := upstream.Timeout(ctx, c.timeout)
	if err != nil {
		return err
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseMimeType: fiber.MIMEApplicationJSON,
			ResponseSchema:   out,
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	agent := fiber.Post(endpoint).
		QueryString(url.Values{"key": {c.apiKey}}.Encode()).
		JSON(req).
		Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("call %s: %w", visionService, errors.Join(errs...))
	}
	if status != fiber.StatusOK {
		return &upstream.StatusError{Service: visionService, Status: status}
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w", visionService, err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ErrEmptyAnswer
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return ErrEmptyAnswer
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("decode %s answer: %w", visionService, err)
	}
	return nil
}
