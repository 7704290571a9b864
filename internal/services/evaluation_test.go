package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/apierr"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

func TestDetectMediaType(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		location    string
		want        string
	}{
		{name: "content type wins", contentType: "image/png", location: "art.jpg", want: "image/png"},
		{name: "content type with charset", contentType: "image/webp; charset=utf-8", location: "art.jpg", want: "image/webp"},
		{name: "unsupported content type falls to extension", contentType: "application/octet-stream", location: "art.png", want: "image/png"},
		{name: "webp extension", contentType: "", location: "uploads/art.webp", want: "image/webp"},
		{name: "gif extension", contentType: "", location: "art.gif", want: "image/gif"},
		{name: "query string stripped", contentType: "", location: "https://cdn.example.com/art.png?sig=abc", want: "image/png"},
		{name: "uppercase extension", contentType: "", location: "ART.PNG", want: "image/png"},
		{name: "default jpeg", contentType: "", location: "art.bmp", want: "image/jpeg"},
		{name: "no extension", contentType: "", location: "artwork/abc/original", want: "image/jpeg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectMediaType(tc.contentType, tc.location); got != tc.want {
				t.Errorf("detectMediaType(%q, %q)=%q, want %q", tc.contentType, tc.location, got, tc.want)
			}
		})
	}
}

type stubAssessmentRepo struct {
	err     error
	created *types.Assessment
}

func (s *stubAssessmentRepo) Create(ctx context.Context, tx *gorm.DB, assessment *types.Assessment) (*types.Assessment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = assessment
	return assessment, nil
}

type stubBucketService struct {
	data        []byte
	downloadErr error
}

func (s *stubBucketService) UploadFile(ctx context.Context, key, contentType string, file io.Reader) error {
	return nil
}

func (s *stubBucketService) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.data, nil
}

func (s *stubBucketService) DeleteFile(ctx context.Context, key string) error { return nil }

func (s *stubBucketService) GetPublicURL(key string) string { return "https://cdn.test/" + key }

type stubEvalClient struct {
	result    *EvaluationResult
	err       error
	mediaType string
}

func (s *stubEvalClient) EvaluateArtwork(ctx context.Context, imageBytes []byte, mediaType string) (*EvaluationResult, error) {
	s.mediaType = mediaType
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func goodResult() *EvaluationResult {
	return &EvaluationResult{
		OverallLevel:     types.LevelBeginner,
		LineQuality:      3,
		Proportions:      4,
		Shading:          2,
		Composition:      5,
		StyleConsistency: 3,
		Feedback:         "Keep practicing line confidence.",
		Suggestions:      "Do daily gesture drawings.",
	}
}

func newEvalService(artworkRepo *stubArtworkRepo, assessmentRepo *stubAssessmentRepo, bucket *stubBucketService, client EvaluationClient) EvaluationService {
	return NewEvaluationService(nil, logger.NewNop(), artworkRepo, assessmentRepo, bucket, client, nil)
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v, want *apierr.Error", err)
	}
	if apiErr.Status != status {
		t.Fatalf("status=%d, want %d (err=%v)", apiErr.Status, status, err)
	}
}

func TestEvaluateStatusOrdering(t *testing.T) {
	userID := uuid.New()
	artworkID := uuid.New()
	owned := func() *types.Artwork {
		return &types.Artwork{ID: artworkID, UserID: userID, StorageKey: "artwork/x/original.png", MimeType: "image/png"}
	}

	t.Run("unauthenticated", func(t *testing.T) {
		svc := newEvalService(&stubArtworkRepo{}, &stubAssessmentRepo{}, &stubBucketService{}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(context.Background(), artworkID.String())
		wantStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("unconfigured before validation", func(t *testing.T) {
		// A nil client answers 503 even when the body would also be invalid.
		svc := newEvalService(&stubArtworkRepo{}, &stubAssessmentRepo{}, &stubBucketService{}, nil)
		_, err := svc.Evaluate(authedContext(userID), "")
		wantStatus(t, err, http.StatusServiceUnavailable)
	})

	t.Run("missing artwork id", func(t *testing.T) {
		svc := newEvalService(&stubArtworkRepo{}, &stubAssessmentRepo{}, &stubBucketService{}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(userID), "  ")
		wantStatus(t, err, http.StatusBadRequest)
	})

	t.Run("invalid artwork id", func(t *testing.T) {
		svc := newEvalService(&stubArtworkRepo{}, &stubAssessmentRepo{}, &stubBucketService{}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(userID), "not-a-uuid")
		wantStatus(t, err, http.StatusBadRequest)
	})

	t.Run("artwork not found", func(t *testing.T) {
		repo := &stubArtworkRepo{getErr: gorm.ErrRecordNotFound}
		svc := newEvalService(repo, &stubAssessmentRepo{}, &stubBucketService{}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(userID), artworkID.String())
		wantStatus(t, err, http.StatusNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		repo := &stubArtworkRepo{artwork: owned()}
		svc := newEvalService(repo, &stubAssessmentRepo{}, &stubBucketService{}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(uuid.New()), artworkID.String())
		wantStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("already evaluated", func(t *testing.T) {
		art := owned()
		art.Assessment = &types.Assessment{ID: uuid.New(), ArtworkID: artworkID}
		repo := &stubArtworkRepo{artwork: art}
		svc := newEvalService(repo, &stubAssessmentRepo{}, &stubBucketService{}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(userID), artworkID.String())
		wantStatus(t, err, http.StatusBadRequest)
	})

	t.Run("image fetch failure", func(t *testing.T) {
		repo := &stubArtworkRepo{artwork: owned()}
		bucket := &stubBucketService{downloadErr: fmt.Errorf("object missing")}
		svc := newEvalService(repo, &stubAssessmentRepo{}, bucket, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(userID), artworkID.String())
		wantStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("evaluation failure", func(t *testing.T) {
		repo := &stubArtworkRepo{artwork: owned()}
		client := &stubEvalClient{err: ErrMalformedResponse}
		svc := newEvalService(repo, &stubAssessmentRepo{}, &stubBucketService{data: []byte("img")}, client)
		_, err := svc.Evaluate(authedContext(userID), artworkID.String())
		wantStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("concurrent duplicate maps to conflict", func(t *testing.T) {
		repo := &stubArtworkRepo{artwork: owned()}
		assessments := &stubAssessmentRepo{err: gorm.ErrDuplicatedKey}
		svc := newEvalService(repo, assessments, &stubBucketService{data: []byte("img")}, &stubEvalClient{result: goodResult()})
		_, err := svc.Evaluate(authedContext(userID), artworkID.String())
		wantStatus(t, err, http.StatusBadRequest)
	})
}

func TestEvaluateSuccessFromBucket(t *testing.T) {
	userID := uuid.New()
	artwork := &types.Artwork{
		ID:         uuid.New(),
		UserID:     userID,
		StorageKey: "artwork/abc/original.webp",
		MimeType:   "image/webp",
	}
	repo := &stubArtworkRepo{artwork: artwork}
	assessments := &stubAssessmentRepo{}
	client := &stubEvalClient{result: goodResult()}
	svc := newEvalService(repo, assessments, &stubBucketService{data: []byte("img-bytes")}, client)

	got, err := svc.Evaluate(authedContext(userID), artwork.ID.String())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.ArtworkID != artwork.ID {
		t.Errorf("ArtworkID=%s, want %s", got.ArtworkID, artwork.ID)
	}
	if got.OverallLevel != types.LevelBeginner || got.Shading != 2 {
		t.Errorf("unexpected assessment: %+v", got)
	}
	if assessments.created == nil {
		t.Fatal("assessment was not persisted")
	}
	if client.mediaType != "image/webp" {
		t.Errorf("mediaType=%q, want image/webp", client.mediaType)
	}
}

func TestEvaluateSuccessFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	userID := uuid.New()
	artwork := &types.Artwork{
		ID:       uuid.New(),
		UserID:   userID,
		ImageURL: srv.URL + "/art.png",
	}
	repo := &stubArtworkRepo{artwork: artwork}
	client := &stubEvalClient{result: goodResult()}
	svc := newEvalService(repo, &stubAssessmentRepo{}, &stubBucketService{}, client)

	if _, err := svc.Evaluate(authedContext(userID), artwork.ID.String()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if client.mediaType != "image/png" {
		t.Errorf("mediaType=%q, want image/png", client.mediaType)
	}
}
