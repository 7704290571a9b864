package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/apierr"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/observability"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/repos"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/requestdata"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

// supported media types for the vision model
var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type EvaluationService interface {
	// Evaluate runs the assessment flow for one artwork. Failures are
	// *apierr.Error values carrying the response status.
	Evaluate(ctx context.Context, artworkID string) (*types.Assessment, error)
}

type evaluationService struct {
	db             *gorm.DB
	log            *logger.Logger
	artworkRepo    repos.ArtworkRepo
	assessmentRepo repos.AssessmentRepo
	bucketService  BucketService
	evalClient     EvaluationClient
	metrics        *observability.Metrics
	httpClient     *http.Client
}

func NewEvaluationService(
	db *gorm.DB,
	log *logger.Logger,
	artworkRepo repos.ArtworkRepo,
	assessmentRepo repos.AssessmentRepo,
	bucketService BucketService,
	evalClient EvaluationClient,
	metrics *observability.Metrics,
) EvaluationService {
	return &evaluationService{
		db:             db,
		log:            log.With("service", "EvaluationService"),
		artworkRepo:    artworkRepo,
		assessmentRepo: assessmentRepo,
		bucketService:  bucketService,
		evalClient:     evalClient,
		metrics:        metrics,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (es *evaluationService) Evaluate(ctx context.Context, artworkID string) (*types.Assessment, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	if es.evalClient == nil {
		return nil, apierr.ServiceUnavailable(fmt.Errorf("AI evaluation is not configured"))
	}
	if strings.TrimSpace(artworkID) == "" {
		return nil, apierr.BadRequest(fmt.Errorf("artwork ID is required"))
	}
	id, err := uuid.Parse(artworkID)
	if err != nil {
		return nil, apierr.BadRequest(fmt.Errorf("invalid artwork ID"))
	}

	artwork, err := es.artworkRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("artwork not found"))
		}
		return nil, apierr.UpstreamError(fmt.Errorf("failed to load artwork: %w", err))
	}
	if artwork.UserID != rd.UserID {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	if artwork.Assessment != nil {
		return nil, apierr.Conflict(fmt.Errorf("this artwork has already been evaluated"))
	}

	imageBytes, mediaType, err := es.fetchImage(ctx, artwork)
	if err != nil {
		es.log.Warn("Failed to fetch artwork image", "artwork_id", artwork.ID, "error", err)
		return nil, apierr.UpstreamError(fmt.Errorf("failed to fetch artwork image"))
	}

	result, err := es.evalClient.EvaluateArtwork(ctx, imageBytes, mediaType)
	if err != nil {
		es.metrics.ObserveEvaluation("error")
		es.log.Error("Evaluation failed", "artwork_id", artwork.ID, "error", err)
		return nil, apierr.EvaluationError(fmt.Errorf("failed to evaluate artwork"))
	}

	assessment := &types.Assessment{
		ID:               uuid.New(),
		ArtworkID:        artwork.ID,
		OverallLevel:     result.OverallLevel,
		LineQuality:      result.LineQuality,
		Proportions:      result.Proportions,
		Shading:          result.Shading,
		Composition:      result.Composition,
		StyleConsistency: result.StyleConsistency,
		Feedback:         result.Feedback,
		Suggestions:      result.Suggestions,
	}
	if _, err := es.assessmentRepo.Create(ctx, nil, assessment); err != nil {
		// Two concurrent requests can both pass the check above; the unique
		// index decides the winner and the loser gets the conflict answer.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict(fmt.Errorf("this artwork has already been evaluated"))
		}
		return nil, apierr.UpstreamError(fmt.Errorf("failed to save assessment: %w", err))
	}

	es.metrics.ObserveEvaluation(result.OverallLevel)
	es.log.Info("Artwork evaluated",
		"artwork_id", artwork.ID,
		"overall_level", result.OverallLevel,
	)
	return assessment, nil
}

// fetchImage loads the artwork bytes either over HTTP or straight from the
// bucket when the stored location is an object key.
func (es *evaluationService) fetchImage(ctx context.Context, artwork *types.Artwork) ([]byte, string, error) {
	location := artwork.ImageURL
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := es.httpClient.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		return data, detectMediaType(resp.Header.Get("Content-Type"), location), nil
	}

	data, err := es.bucketService.DownloadFile(ctx, artwork.StorageKey)
	if err != nil {
		return nil, "", err
	}
	return data, detectMediaType(artwork.MimeType, artwork.StorageKey), nil
}

// detectMediaType picks the declared content type when it is a supported
// image type, falls back to the file extension, and defaults to image/jpeg.
func detectMediaType(contentType, location string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && supportedMediaTypes[mt] {
		return mt
	}
	switch strings.ToLower(path.Ext(stripQuery(location))) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return "image/jpeg"
}

func stripQuery(location string) string {
	if i := strings.IndexByte(location, '?'); i >= 0 {
		return location[:i]
	}
	return location
}
