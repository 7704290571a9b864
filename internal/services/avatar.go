package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

type AvatarService interface {
	CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
	log           *logger.Logger
	bucketService BucketService
	fontFace      font.Face
	palette       []color.NRGBA
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		fontFace:      face,
		palette: []color.NRGBA{
			{R: 0x60, G: 0x5D, B: 0xC7, A: 0xFF},
			{R: 0xE0, G: 0x5E, B: 0x8F, A: 0xFF},
			{R: 0x2E, G: 0x9E, B: 0x7A, A: 0xFF},
			{R: 0xD9, G: 0x82, B: 0x2B, A: 0xFF},
			{R: 0x3F, G: 0x79, B: 0xC9, A: 0xFF},
			{R: 0x9B, G: 0x51, B: 0xB6, A: 0xFF},
		},
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
	buf, err := as.renderInitialsAvatar(user)
	if err != nil {
		return err
	}

	// Versioned key so a CDN never serves a stale object.
	key := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())
	if err := as.bucketService.UploadFile(ctx, key, "image/png", bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}

	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	user.AvatarBucketKey = key
	user.AvatarURL = as.bucketService.GetPublicURL(key)

	if oldKey != "" && oldKey != key {
		if err := as.bucketService.DeleteFile(ctx, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) renderInitialsAvatar(user *types.User) (bytes.Buffer, error) {
	const size = 512
	var buf bytes.Buffer

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.colorFor(user))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)
	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2
	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// colorFor picks a stable palette color per user so the avatar does not
// change on regeneration.
func (as *avatarService) colorFor(user *types.User) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user.ID.String()))
	return as.palette[int(h.Sum32())%len(as.palette)]
}

func computeInitials(first, last string) string {
	fInit := "?"
	if len(first) > 0 {
		fInit = strings.ToUpper(first[:1])
	}
	lInit := "?"
	if len(last) > 0 {
		lInit = strings.ToUpper(last[:1])
	}
	return fInit + lInit
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
