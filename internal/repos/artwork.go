package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

type ArtworkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, artwork *types.Artwork) (*types.Artwork, error)
	GetByID(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID) (*types.Artwork, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Artwork, error)
	// LatestAssessedByUserID returns the newest artwork of the user that has
	// an assessment, or nil when none exists.
	LatestAssessedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Artwork, error)
}

type artworkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtworkRepo(db *gorm.DB, baseLog *logger.Logger) ArtworkRepo {
	return &artworkRepo{db: db, log: baseLog.With("repo", "ArtworkRepo")}
}

func (r *artworkRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *artworkRepo) Create(ctx context.Context, tx *gorm.DB, artwork *types.Artwork) (*types.Artwork, error) {
	if err := r.conn(tx).WithContext(ctx).Create(artwork).Error; err != nil {
		return nil, err
	}
	return artwork, nil
}

func (r *artworkRepo) GetByID(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID) (*types.Artwork, error) {
	var artwork types.Artwork
	if err := r.conn(tx).WithContext(ctx).
		Preload("Assessment").
		Where("id = ?", artworkID).
		First(&artwork).Error; err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *artworkRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Artwork, error) {
	var artworks []*types.Artwork
	if err := r.conn(tx).WithContext(ctx).
		Preload("Assessment").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&artworks).Error; err != nil {
		return nil, err
	}
	return artworks, nil
}

func (r *artworkRepo) LatestAssessedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Artwork, error) {
	var artwork types.Artwork
	err := r.conn(tx).WithContext(ctx).
		Preload("Assessment").
		Joins("JOIN assessment ON assessment.artwork_id = artwork.id").
		Where("artwork.user_id = ?", userID).
		Order("artwork.created_at DESC").
		First(&artwork).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}
