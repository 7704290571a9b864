package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/services"
)

// maxUploadBytes caps artwork uploads at 20 MiB.
const maxUploadBytes = 20 << 20

type ArtworkHandler struct {
	log            *logger.Logger
	artworkService services.ArtworkService
}

func NewArtworkHandler(log *logger.Logger, artworkService services.ArtworkService) *ArtworkHandler {
	return &ArtworkHandler{log: log.With("handler", "ArtworkHandler"), artworkService: artworkService}
}

func (h *ArtworkHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	title := c.PostForm("title")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "an image file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	artwork, err := h.artworkService.UploadArtwork(
		c.Request.Context(),
		title,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"artwork": artwork})
}

func (h *ArtworkHandler) List(c *gin.Context) {
	artworks, err := h.artworkService.ListArtworks(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"artworks": artworks})
}

func (h *ArtworkHandler) Get(c *gin.Context) {
	artwork, err := h.artworkService.GetArtwork(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"artwork": artwork})
}

func (h *ArtworkHandler) Progress(c *gin.Context) {
	report, err := h.artworkService.GetProgress(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, report)
}
