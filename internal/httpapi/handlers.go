package httpapi

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"articlelens/internal/apperror"
	"articlelens/internal/domain"
)

// articleRequest keeps both fields untyped so a non-string url is reported as
// a missing URL rather than a decoding failure.
type articleRequest struct {
	URL  any `json:"url"`
	Mode any `json:"mode"`
}

type textResponse struct {
	Result string `json:"result"`
}

type imageResponse struct {
	ImageBase64 string `json:"imageBase64"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleArticle(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	s.process(c, req)
}

func (s *Server) handleIllustration(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	req.Mode = domain.ModeIllustration
	s.process(c, req)
}

func (s *Server) bindRequest(c *gin.Context) (domain.ArticleRequest, bool) {
	var body articleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.log.WarnContext(c.Request.Context(), "Failed to decode request body",
			"error", err,
			"path", c.Request.URL.Path)

		writeError(c, apperror.InvalidURL)

		return domain.ArticleRequest{}, false
	}

	rawURL, _ := body.URL.(string)
	if strings.TrimSpace(rawURL) == "" {
		writeError(c, apperror.InvalidURL)

		return domain.ArticleRequest{}, false
	}

	rawMode, _ := body.Mode.(string)

	return domain.ArticleRequest{
		URL:  rawURL,
		Mode: domain.ParseMode(rawMode),
	}, true
}

func (s *Server) process(c *gin.Context, req domain.ArticleRequest) {
	result, err := s.processor.Process(c.Request.Context(), req)
	if err != nil {
		writeError(c, apperror.CategoryOf(err))

		return
	}

	if result.Mode.IsImage() {
		c.JSON(http.StatusOK, imageResponse{ImageBase64: base64.StdEncoding.EncodeToString(result.Image)})

		return
	}

	c.JSON(http.StatusOK, textResponse{Result: result.Text})
}

func writeError(c *gin.Context, category apperror.Category) {
	c.JSON(category.HTTPStatus(), errorResponse{Error: category.UserMessage()})
}
