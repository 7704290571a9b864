package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/apierr"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

type stubEvaluationService struct {
	assessment *types.Assessment
	err        error
	gotID      string
}

func (s *stubEvaluationService) Evaluate(ctx context.Context, artworkID string) (*types.Assessment, error) {
	s.gotID = artworkID
	if s.err != nil {
		return nil, s.err
	}
	return s.assessment, nil
}

func performEvaluate(svc *stubEvaluationService, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/evaluate", NewEvaluationHandler(svc).Evaluate)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEvaluateHandlerStatuses(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid json body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "unauthorized",
			body:       `{"artworkId":"x"}`,
			svcErr:     apierr.Unauthorized(fmt.Errorf("unauthorized")),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "service unavailable",
			body:       `{"artworkId":"x"}`,
			svcErr:     apierr.ServiceUnavailable(fmt.Errorf("AI evaluation is not configured")),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "not found",
			body:       `{"artworkId":"x"}`,
			svcErr:     apierr.NotFound(fmt.Errorf("artwork not found")),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "already evaluated conflict stays 400",
			body:       `{"artworkId":"x"}`,
			svcErr:     apierr.Conflict(fmt.Errorf("this artwork has already been evaluated")),
			wantStatus: http.StatusBadRequest,
			wantError:  "this artwork has already been evaluated",
		},
		{
			name:       "evaluation failure",
			body:       `{"artworkId":"x"}`,
			svcErr:     apierr.EvaluationError(fmt.Errorf("failed to evaluate artwork")),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "plain error masked as internal",
			body:       `{"artworkId":"x"}`,
			svcErr:     fmt.Errorf("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performEvaluate(&stubEvaluationService{err: tc.svcErr}, tc.body)
			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp["error"] == "" {
				t.Error("error responses must carry an error message")
			}
			if tc.wantError != "" && resp["error"] != tc.wantError {
				t.Errorf("error=%q, want %q", resp["error"], tc.wantError)
			}
		})
	}
}

func TestEvaluateHandlerSuccess(t *testing.T) {
	assessment := &types.Assessment{
		ID:           uuid.New(),
		ArtworkID:    uuid.New(),
		OverallLevel: types.LevelAdvanced,
		LineQuality:  9,
		Feedback:     "Excellent control.",
		Suggestions:  "Explore dynamic poses.",
	}
	svc := &stubEvaluationService{assessment: assessment}
	w := performEvaluate(svc, fmt.Sprintf(`{"artworkId":%q}`, assessment.ArtworkID))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	if svc.gotID != assessment.ArtworkID.String() {
		t.Errorf("service called with %q", svc.gotID)
	}

	var resp struct {
		Assessment types.Assessment `json:"assessment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Assessment.OverallLevel != types.LevelAdvanced || resp.Assessment.LineQuality != 9 {
		t.Errorf("unexpected assessment payload: %+v", resp.Assessment)
	}
}
