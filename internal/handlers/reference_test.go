package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/services"
)

type stubReferenceService struct {
	payload *services.ReferencePayload
	err     error
}

func (s *stubReferenceService) GetReferences(ctx context.Context) (*services.ReferencePayload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func performGetReferences(svc *stubReferenceService) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/references", NewReferenceHandler(svc).GetReferences)

	req := httptest.NewRequest(http.MethodGet, "/api/references", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetReferencesFallbackShape(t *testing.T) {
	svc := &stubReferenceService{payload: &services.ReferencePayload{
		Queries: services.FallbackQueries,
		Message: "Get your artwork evaluated to receive personalized suggestions!",
	}}
	w := performGetReferences(svc)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"queries", "message"} {
		if _, ok := body[key]; !ok {
			t.Errorf("fallback body missing %q", key)
		}
	}
	// The assessed-shape keys must be absent from the fallback answer.
	for _, key := range []string{"skillLevel", "suggestions", "weakestAreas"} {
		if _, ok := body[key]; ok {
			t.Errorf("fallback body must not carry %q", key)
		}
	}
}

func TestGetReferencesAssessedShape(t *testing.T) {
	svc := &stubReferenceService{payload: &services.ReferencePayload{
		SkillLevel: "advanced",
		Suggestions: []services.ReferenceSuggestion{
			{Query: "advanced anime lineart tutorial", Links: []services.ReferenceLink{
				{Name: "Pinterest", URL: "https://www.pinterest.com/search/pins/?q=advanced+anime+lineart+tutorial", Icon: "pinterest"},
			}},
		},
		WeakestAreas: []string{"Line Quality", "Shading", "Composition"},
	}}
	w := performGetReferences(svc)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"skillLevel", "suggestions", "weakestAreas"} {
		if _, ok := body[key]; !ok {
			t.Errorf("assessed body missing %q", key)
		}
	}
	for _, key := range []string{"queries", "message"} {
		if _, ok := body[key]; ok {
			t.Errorf("assessed body must not carry %q", key)
		}
	}
}
