package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
)

func textResponse(text string) *anthropicResponse {
	raw, _ := json.Marshal(map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	})
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		panic(err)
	}
	return &resp
}

const validResultJSON = `{
  "overallLevel": "intermediate",
  "lineQuality": 7,
  "proportions": 6,
  "shading": 5,
  "composition": 7,
  "styleConsistency": 8,
  "feedback": "Solid linework with confident strokes.",
  "suggestions": "Practice value studies to push depth further."
}`

func TestParseEvaluationResponse(t *testing.T) {
	cases := []struct {
		name    string
		resp    *anthropicResponse
		wantErr error
	}{
		{
			name:    "no content blocks",
			resp:    &anthropicResponse{},
			wantErr: ErrNoTextResponse,
		},
		{
			name:    "no json object in text",
			resp:    textResponse("I cannot evaluate this image."),
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "invalid json between braces",
			resp:    textResponse("{not json at all}"),
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "unknown level",
			resp:    textResponse(`{"overallLevel":"expert","lineQuality":5,"proportions":5,"shading":5,"composition":5,"styleConsistency":5,"feedback":"f","suggestions":"s"}`),
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "score out of range",
			resp:    textResponse(`{"overallLevel":"beginner","lineQuality":11,"proportions":5,"shading":5,"composition":5,"styleConsistency":5,"feedback":"f","suggestions":"s"}`),
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "zero score",
			resp:    textResponse(`{"overallLevel":"beginner","lineQuality":0,"proportions":5,"shading":5,"composition":5,"styleConsistency":5,"feedback":"f","suggestions":"s"}`),
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "empty feedback",
			resp:    textResponse(`{"overallLevel":"beginner","lineQuality":5,"proportions":5,"shading":5,"composition":5,"styleConsistency":5,"feedback":"  ","suggestions":"s"}`),
			wantErr: ErrMalformedResponse,
		},
		{
			name: "clean json",
			resp: textResponse(validResultJSON),
		},
		{
			name: "json wrapped in prose",
			resp: textResponse("Here is my assessment:\n" + validResultJSON + "\nHope that helps!"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseEvaluationResponse(tc.resp)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.OverallLevel != "intermediate" || result.LineQuality != 7 {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	}
}

func TestNewEvaluationClientWithoutKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	client, err := NewEvaluationClient(logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client when no API key is set")
	}
}

func TestEvaluateArtwork(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": validResultJSON},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_BASE_URL", srv.URL)
	client, err := NewEvaluationClient(logger.NewNop())
	if err != nil {
		t.Fatalf("NewEvaluationClient: %v", err)
	}
	if client == nil {
		t.Fatal("expected configured client")
	}

	result, err := client.EvaluateArtwork(context.Background(), []byte("fake-image"), "image/png")
	if err != nil {
		t.Fatalf("EvaluateArtwork: %v", err)
	}
	if result.OverallLevel != "intermediate" {
		t.Errorf("OverallLevel=%q", result.OverallLevel)
	}

	if gotReq.MaxTokens != 2000 {
		t.Errorf("max_tokens=%d, want 2000", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("unexpected message shape: %+v", gotReq.Messages)
	}
	img := gotReq.Messages[0].Content[0]
	if img.Type != "image" || img.Source == nil || img.Source.MediaType != "image/png" {
		t.Errorf("unexpected image block: %+v", img)
	}
}

func TestEvaluateArtworkUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_BASE_URL", srv.URL)
	client, err := NewEvaluationClient(logger.NewNop())
	if err != nil {
		t.Fatalf("NewEvaluationClient: %v", err)
	}

	if _, err := client.EvaluateArtwork(context.Background(), []byte("x"), "image/jpeg"); err == nil {
		t.Fatal("expected error from non-2xx upstream")
	}
}
