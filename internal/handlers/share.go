package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dogify/api/internal/service"
)

var sharePageTmpl = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Check out my $DOGified photo!</title>

  <meta property="og:title" content="Check out my $DOGified photo!">
  <meta property="og:description" content="I used AI to add a cute dog to my photo! Create your own.">
  <meta property="og:image" content="{{.ImageURL}}">
  <meta property="og:image:width" content="600">
  <meta property="og:image:height" content="600">
  <meta property="og:image:type" content="image/jpeg">
  <meta property="og:url" content="{{.ShareURL}}">
  <meta property="og:type" content="website">
  <meta property="og:site_name" content="$DOGify - AI Photo Generator">

  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:title" content="Check out my $DOGified photo!">
  <meta name="twitter:description" content="I used AI to add a cute dog to my photo! Create your own.">
  <meta name="twitter:image" content="{{.ImageURL}}">
</head>
<body>
  <div class="share-page">
    <h1>🐕 Check out my $DOGified photo!</h1>
    <img src="{{.ImageURL}}" alt="AI Generated Dogified Image" class="shared-image" />
    <div class="create-your-own">
      <h3>Create Your Own $DOGified Photo!</h3>
      <a href="/dogify.html" class="create-button">🎨 Try $DOGify →</a>
    </div>
    <details>
      <summary>Technical Details</summary>
      <div>
        <p><strong>Generated:</strong> {{.CreatedAt}}</p>
        <p><strong>Model:</strong> {{.ModelUsed}}</p>
        {{if .SceneAnalysis}}<p><strong>Scene Analysis:</strong> {{.SceneAnalysis}}</p>{{end}}
        {{if .GenerationPrompt}}<p><strong>Generation Prompt:</strong> {{.GenerationPrompt}}</p>{{end}}
      </div>
    </details>
  </div>
</body>
</html>
`))

type sharePageData struct {
	ImageURL         string
	ShareURL         string
	CreatedAt        string
	ModelUsed        string
	SceneAnalysis    string
	GenerationPrompt string
}

func (h HandlerSet) SharePage(c *gin.Context) {
	id := c.Param("id")

	meta, err := h.share.Meta(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidImageID):
			h.shareErrorPage(c, http.StatusBadRequest, "Invalid Image ID", "The link is malformed.")
		case errors.Is(err, service.ErrImageNotFound):
			h.shareErrorPage(c, http.StatusNotFound, "Image Not Found", "This $DOGified image may have been removed or the link is incorrect.")
		default:
			h.log.Error().Err(err).Str("image_id", id).Msg("share page lookup failed")
			h.shareErrorPage(c, http.StatusInternalServerError, "Server Error", "Sorry, there was an error loading this shared image.")
		}
		return
	}

	base := strings.TrimSuffix(h.cfg.Share.SiteBaseURL, "/")
	data := sharePageData{
		ImageURL:         fmt.Sprintf("%s/api/v1/images/%s", base, meta.ID),
		ShareURL:         fmt.Sprintf("%s/share/%s", base, meta.ID),
		CreatedAt:        meta.CreatedAt.Format("January 2, 2006 15:04 MST"),
		ModelUsed:        derefOr(meta.ModelUsed, "Venice AI"),
		SceneAnalysis:    derefOr(meta.SceneAnalysis, ""),
		GenerationPrompt: derefOr(meta.GenerationPrompt, ""),
	}

	c.Header("Content-Type", "text/html; charset=UTF-8")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Status(http.StatusOK)
	if err := sharePageTmpl.Execute(c.Writer, data); err != nil {
		h.log.Error().Err(err).Str("image_id", id).Msg("share page render failed")
	}
}

func (h HandlerSet) shareErrorPage(c *gin.Context, status int, title, message string) {
	c.Header("Content-Type", "text/html; charset=UTF-8")
	c.String(status, `<!DOCTYPE html>
<html><head><title>%s</title></head>
<body>
  <h1>%s</h1>
  <p>%s</p>
  <p><a href="/dogify.html">Create your own $DOGified photo →</a></p>
</body></html>`, title, title, message)
}

func derefOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}
