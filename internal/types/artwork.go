package types

import (
	"time"

	"github.com/google/uuid"
)

// Artwork is one uploaded image. It is immutable after creation except for
// the optional Assessment relation.
type Artwork struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title        string      `gorm:"column:title;not null" json:"title"`
	StorageKey   string      `gorm:"column:storage_key;not null" json:"storage_key"`
	ImageURL     string      `gorm:"column:image_url;not null" json:"image_url"`
	ThumbnailURL string      `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	MimeType     string      `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes    int64       `gorm:"column:size_bytes" json:"size_bytes"`
	Assessment   *Assessment `gorm:"foreignKey:ArtworkID;references:ID" json:"assessment,omitempty"`
	CreatedAt    time.Time   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Artwork) TableName() string { return "artwork" }
