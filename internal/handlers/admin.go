package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dogify/api/internal/security"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	if h.cfg.Security.AdminPasswordHash == "" || h.cfg.Security.JWTSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
		return
	}

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	ok, err := security.VerifyPassword(req.Password, h.cfg.Security.AdminPasswordHash)
	if err != nil {
		h.log.Error().Err(err).Msg("admin password verify failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := security.GenerateAdminToken(h.cfg.Security.JWTSecret, h.cfg.Security.JWTTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("admin token sign failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// AdminListImages is the diagnostic view over recent rows: enough to
// check that entries are landing without exposing inline image bytes.
func (h HandlerSet) AdminListImages(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	images, err := h.images.ListRecent(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("admin list images failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(images))
	for _, img := range images {
		items = append(items, map[string]interface{}{
			"id":           img.ID,
			"format":       img.Format,
			"sizeBytes":    img.SizeBytes,
			"stored":       img.Stored(),
			"modelUsed":    img.ModelUsed,
			"shareCount":   img.ShareCount,
			"lastSharedAt": img.LastSharedAt,
			"createdAt":    img.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
