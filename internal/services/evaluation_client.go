package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

// Errors surfaced by the evaluation client. The caller maps both to the
// evaluation failure branch of the evaluate endpoint.
var (
	ErrNoTextResponse    = errors.New("no text response from model")
	ErrMalformedResponse = errors.New("could not parse assessment from model response")
)

// EvaluationResult is the strict schema the model is instructed to return.
type EvaluationResult struct {
	OverallLevel     string `json:"overallLevel"`
	LineQuality      int    `json:"lineQuality"`
	Proportions      int    `json:"proportions"`
	Shading          int    `json:"shading"`
	Composition      int    `json:"composition"`
	StyleConsistency int    `json:"styleConsistency"`
	Feedback         string `json:"feedback"`
	Suggestions      string `json:"suggestions"`
}

type EvaluationClient interface {
	EvaluateArtwork(ctx context.Context, imageBytes []byte, mediaType string) (*EvaluationResult, error)
}

type evaluationClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

const evaluationPrompt = `You are an expert anime art teacher and critic. Analyze this anime-style artwork and provide a detailed skill assessment.

Evaluate the following aspects on a scale of 1-10:
1. Line Quality - Cleanliness, confidence, and consistency of lines
2. Proportions - Accuracy of anime-style proportions and anatomy
3. Shading - Use of light, shadow, and value to create depth
4. Composition - Overall arrangement and visual balance
5. Style Consistency - How well the piece maintains a cohesive anime style

Based on the scores, determine the overall skill level:
- Beginner (average score 1-4): Learning fundamentals
- Intermediate (average score 5-7): Solid foundation, refining skills
- Advanced (average score 8-10): Strong technical ability

Provide your response in the following JSON format ONLY (no additional text):
{
  "overallLevel": "beginner" | "intermediate" | "advanced",
  "lineQuality": <number 1-10>,
  "proportions": <number 1-10>,
  "shading": <number 1-10>,
  "composition": <number 1-10>,
  "styleConsistency": <number 1-10>,
  "feedback": "<2-3 paragraphs of constructive feedback about what the artist does well and areas of strength>",
  "suggestions": "<2-3 specific, actionable suggestions for improvement with examples of what to practice>"
}`

// jsonObjectRe grabs the first brace through the last brace; the model is
// told to answer with JSON only, but some replies wrap it in prose.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// NewEvaluationClient returns nil, nil when no API key is configured; the
// evaluation service turns a nil client into a 503 instead of crashing the
// process at startup.
func NewEvaluationClient(log *logger.Logger) (EvaluationClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, nil
	}

	baseURL := os.Getenv("ANTHROPIC_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeoutSec := 120
	if v := os.Getenv("ANTHROPIC_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &evaluationClient{
		log:        log.With("service", "EvaluationClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *evaluationClient) EvaluateArtwork(ctx context.Context, imageBytes []byte, mediaType string) (*EvaluationResult, error) {
	req := anthropicRequest{
		Model:     c.model,
		MaxTokens: 2000,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContentBlock{
					{
						Type: "image",
						Source: &anthropicImageSource{
							Type:      "base64",
							MediaType: mediaType,
							Data:      base64.StdEncoding.EncodeToString(imageBytes),
						},
					},
					{
						Type: "text",
						Text: evaluationPrompt,
					},
				},
			},
		},
	}

	// One attempt only; the caller surfaces failures directly.
	raw, err := c.doOnce(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseEvaluationResponse(raw)
}

func (c *evaluationClient) doOnce(ctx context.Context, body anthropicRequest) (*anthropicResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anthropic http %d: %s", resp.StatusCode, string(raw))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("anthropic decode error: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("anthropic error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	return &parsed, nil
}

func parseEvaluationResponse(resp *anthropicResponse) (*EvaluationResult, error) {
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, ErrNoTextResponse
	}

	match := jsonObjectRe.FindString(text)
	if match == "" {
		return nil, ErrMalformedResponse
	}

	var result EvaluationResult
	if err := json.Unmarshal([]byte(match), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validateEvaluationResult(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}

func validateEvaluationResult(r *EvaluationResult) error {
	switch r.OverallLevel {
	case types.LevelBeginner, types.LevelIntermediate, types.LevelAdvanced:
	default:
		return fmt.Errorf("unknown overall level %q", r.OverallLevel)
	}
	scores := map[string]int{
		"lineQuality":      r.LineQuality,
		"proportions":      r.Proportions,
		"shading":          r.Shading,
		"composition":      r.Composition,
		"styleConsistency": r.StyleConsistency,
	}
	for name, score := range scores {
		if score < 1 || score > 10 {
			return fmt.Errorf("score %s=%d outside 1-10", name, score)
		}
	}
	if strings.TrimSpace(r.Feedback) == "" {
		return fmt.Errorf("empty feedback")
	}
	if strings.TrimSpace(r.Suggestions) == "" {
		return fmt.Errorf("empty suggestions")
	}
	return nil
}
