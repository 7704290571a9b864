package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Assessment is the AI skill assessment for one Artwork. The unique index on
// ArtworkID enforces at most one assessment per artwork at the database, so
// two concurrent evaluate requests cannot both insert.
type Assessment struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ArtworkID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"artwork_id"`
	Artwork          *Artwork  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ArtworkID;references:ID" json:"-"`
	OverallLevel     string    `gorm:"column:overall_level;not null" json:"overall_level"`
	LineQuality      int       `gorm:"column:line_quality;not null" json:"line_quality"`
	Proportions      int       `gorm:"column:proportions;not null" json:"proportions"`
	Shading          int       `gorm:"column:shading;not null" json:"shading"`
	Composition      int       `gorm:"column:composition;not null" json:"composition"`
	StyleConsistency int       `gorm:"column:style_consistency;not null" json:"style_consistency"`
	Feedback         string    `gorm:"column:feedback;type:text" json:"feedback"`
	Suggestions      string    `gorm:"column:suggestions;type:text" json:"suggestions"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Assessment) TableName() string { return "assessment" }
