package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dogify/api/internal/media/sniffer"
	"dogify/api/internal/service"
)

type saveImageRequest struct {
	ImageData             string   `json:"imageData"`
	SceneAnalysis         *string  `json:"sceneAnalysis"`
	GenerationPrompt      *string  `json:"generationPrompt"`
	ModelUsed             *string  `json:"modelUsed"`
	GenerationTimeSeconds *float64 `json:"generationTimeSeconds"`
	UserSession           *string  `json:"userSession"`
}

func (h HandlerSet) SaveImage(c *gin.Context) {
	if h.ingest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "Image saving service not configured"})
		return
	}

	var req saveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}
	if req.ImageData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing imageData"})
		return
	}

	userAgent := c.GetHeader("User-Agent")
	clientIP := c.ClientIP()

	result, err := h.ingest.Ingest(c.Request.Context(), service.IngestInput{
		ImageData:             req.ImageData,
		SceneAnalysis:         req.SceneAnalysis,
		GenerationPrompt:      req.GenerationPrompt,
		ModelUsed:             req.ModelUsed,
		GenerationTimeSeconds: req.GenerationTimeSeconds,
		UserSession:           req.UserSession,
		UserAgent:             &userAgent,
		IPAddress:             &clientIP,
	})
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"id":   result.ID,
		"url":  result.URL,
		"size": result.Size,
	})
}

func (h HandlerSet) respondIngestError(c *gin.Context, err error) {
	var tooLarge *sniffer.TooLargeError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "Image too large", "details": tooLarge.Error()})
		return
	}

	var ingestErr *service.IngestError
	if errors.As(err, &ingestErr) {
		switch ingestErr.Stage {
		case service.StageDecode:
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Could not decode imageData", "details": ingestErr.Err.Error()})
			return
		case service.StageValidation:
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid image format", "details": ingestErr.Err.Error()})
			return
		case service.StageStorage:
			h.log.Error().Err(err).Msg("image upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Failed to upload image"})
			return
		case service.StageMetadata:
			h.log.Error().Err(err).Msg("image metadata save failed")
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Failed to save image metadata"})
			return
		}
	}

	h.log.Error().Err(err).Msg("image save failed")
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Internal server error"})
}

func (h HandlerSet) ServeImage(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image ID"})
		return
	}

	served, err := h.serve.Serve(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidImageID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID format"})
		case errors.Is(err, service.ErrImageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		case errors.Is(err, service.ErrCorruptData):
			h.log.Error().Err(err).Str("image_id", id).Msg("legacy image decode failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Image data is corrupted or missing"})
		default:
			h.log.Error().Err(err).Str("image_id", id).Msg("image serve failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("ETag", served.ETag)
	c.Header("Last-Modified", served.LastModified.UTC().Format(http.TimeFormat))

	if served.RedirectURL != "" {
		c.Redirect(http.StatusFound, served.RedirectURL)
		return
	}

	c.Data(http.StatusOK, served.MIME, served.Data)
}
