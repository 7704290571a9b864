package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/apierr"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/repos"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/requestdata"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

const thumbnailSize = 512

type SkillAverages struct {
	LineQuality      float64 `json:"lineQuality"`
	Proportions      float64 `json:"proportions"`
	Shading          float64 `json:"shading"`
	Composition      float64 `json:"composition"`
	StyleConsistency float64 `json:"styleConsistency"`
}

type ProgressPoint struct {
	ArtworkID        uuid.UUID `json:"artworkId"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"createdAt"`
	LineQuality      int       `json:"lineQuality"`
	Proportions      int       `json:"proportions"`
	Shading          int       `json:"shading"`
	Composition      int       `json:"composition"`
	StyleConsistency int       `json:"styleConsistency"`
	Overall          float64   `json:"overall"`
}

type ProgressReport struct {
	ArtworkCount  int             `json:"artworkCount"`
	AssessedCount int             `json:"assessedCount"`
	Averages      SkillAverages   `json:"averages"`
	Series        []ProgressPoint `json:"series"`
}

type ArtworkService interface {
	UploadArtwork(ctx context.Context, title, filename, contentType string, data []byte) (*types.Artwork, error)
	ListArtworks(ctx context.Context) ([]*types.Artwork, error)
	GetArtwork(ctx context.Context, artworkID string) (*types.Artwork, error)
	GetProgress(ctx context.Context) (*ProgressReport, error)
}

type artworkService struct {
	db            *gorm.DB
	log           *logger.Logger
	artworkRepo   repos.ArtworkRepo
	bucketService BucketService
}

func NewArtworkService(
	db *gorm.DB,
	log *logger.Logger,
	artworkRepo repos.ArtworkRepo,
	bucketService BucketService,
) ArtworkService {
	return &artworkService{
		db:            db,
		log:           log.With("service", "ArtworkService"),
		artworkRepo:   artworkRepo,
		bucketService: bucketService,
	}
}

func (s *artworkService) UploadArtwork(ctx context.Context, title, filename, contentType string, data []byte) (*types.Artwork, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	if strings.TrimSpace(title) == "" {
		return nil, apierr.BadRequest(fmt.Errorf("a title is required"))
	}
	if len(data) == 0 {
		return nil, apierr.BadRequest(fmt.Errorf("an image file is required"))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apierr.BadRequest(fmt.Errorf("file is not a supported image: %w", err))
	}

	mediaType := detectMediaType(contentType, filename)
	artworkID := uuid.New()
	key := fmt.Sprintf("artwork/%s/%s/original%s", rd.UserID, artworkID, extensionFor(format))

	if err := s.bucketService.UploadFile(ctx, key, mediaType, bytes.NewReader(data)); err != nil {
		return nil, apierr.UpstreamError(fmt.Errorf("failed to store artwork image: %w", err))
	}

	thumbURL := ""
	thumb, thumbErr := renderThumbnail(img)
	if thumbErr != nil {
		s.log.Warn("Failed to render thumbnail (ignored)", "artwork_id", artworkID, "error", thumbErr)
	} else {
		thumbKey := fmt.Sprintf("artwork/%s/%s/thumb.png", rd.UserID, artworkID)
		if err := s.bucketService.UploadFile(ctx, thumbKey, "image/png", bytes.NewReader(thumb)); err != nil {
			s.log.Warn("Failed to upload thumbnail (ignored)", "artwork_id", artworkID, "error", err)
		} else {
			thumbURL = s.bucketService.GetPublicURL(thumbKey)
		}
	}

	artwork := &types.Artwork{
		ID:           artworkID,
		UserID:       rd.UserID,
		Title:        strings.TrimSpace(title),
		StorageKey:   key,
		ImageURL:     s.bucketService.GetPublicURL(key),
		ThumbnailURL: thumbURL,
		MimeType:     mediaType,
		SizeBytes:    int64(len(data)),
	}
	if _, err := s.artworkRepo.Create(ctx, nil, artwork); err != nil {
		return nil, apierr.UpstreamError(fmt.Errorf("failed to save artwork: %w", err))
	}

	s.log.Info("Artwork uploaded", "artwork_id", artworkID, "user_id", rd.UserID, "bytes", len(data))
	return artwork, nil
}

func (s *artworkService) ListArtworks(ctx context.Context) ([]*types.Artwork, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	artworks, err := s.artworkRepo.ListByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, apierr.UpstreamError(fmt.Errorf("failed to list artworks: %w", err))
	}
	return artworks, nil
}

func (s *artworkService) GetArtwork(ctx context.Context, artworkID string) (*types.Artwork, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	id, err := uuid.Parse(artworkID)
	if err != nil {
		return nil, apierr.BadRequest(fmt.Errorf("invalid artwork ID"))
	}
	artwork, err := s.artworkRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("artwork not found"))
		}
		return nil, apierr.UpstreamError(fmt.Errorf("failed to load artwork: %w", err))
	}
	if artwork.UserID != rd.UserID {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	return artwork, nil
}

func (s *artworkService) GetProgress(ctx context.Context) (*ProgressReport, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	artworks, err := s.artworkRepo.ListByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, apierr.UpstreamError(fmt.Errorf("failed to load artworks: %w", err))
	}
	return buildProgressReport(artworks), nil
}

// buildProgressReport aggregates per-skill averages and an oldest-first score
// series over assessed artworks. Zero assessed artworks produces zeroed
// averages, never NaN.
func buildProgressReport(artworks []*types.Artwork) *ProgressReport {
	report := &ProgressReport{
		ArtworkCount: len(artworks),
		Series:       []ProgressPoint{},
	}

	var sums SkillAverages
	// ListByUserID is newest first; walk backwards for a chronological chart.
	for i := len(artworks) - 1; i >= 0; i-- {
		artwork := artworks[i]
		a := artwork.Assessment
		if a == nil {
			continue
		}
		report.AssessedCount++
		sums.LineQuality += float64(a.LineQuality)
		sums.Proportions += float64(a.Proportions)
		sums.Shading += float64(a.Shading)
		sums.Composition += float64(a.Composition)
		sums.StyleConsistency += float64(a.StyleConsistency)

		total := a.LineQuality + a.Proportions + a.Shading + a.Composition + a.StyleConsistency
		report.Series = append(report.Series, ProgressPoint{
			ArtworkID:        artwork.ID,
			Title:            artwork.Title,
			CreatedAt:        artwork.CreatedAt,
			LineQuality:      a.LineQuality,
			Proportions:      a.Proportions,
			Shading:          a.Shading,
			Composition:      a.Composition,
			StyleConsistency: a.StyleConsistency,
			Overall:          math.Round(float64(total)/5*10*10) / 10,
		})
	}

	if report.AssessedCount > 0 {
		n := float64(report.AssessedCount)
		report.Averages = SkillAverages{
			LineQuality:      math.Round(sums.LineQuality/n*10) / 10,
			Proportions:      math.Round(sums.Proportions/n*10) / 10,
			Shading:          math.Round(sums.Shading/n*10) / 10,
			Composition:      math.Round(sums.Composition/n*10) / 10,
			StyleConsistency: math.Round(sums.StyleConsistency/n*10) / 10,
		}
	}
	return report
}

// renderThumbnail scales the image so the longest side is thumbnailSize,
// never upscaling, and encodes it as PNG.
func renderThumbnail(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image")
	}

	scale := 1.0
	longest := w
	if h > longest {
		longest = h
	}
	if longest > thumbnailSize {
		scale = float64(thumbnailSize) / float64(longest)
	}
	tw := int(math.Max(1, math.Round(float64(w)*scale)))
	th := int(math.Max(1, math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func extensionFor(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
