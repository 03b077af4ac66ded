package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/kanade/embedtags/tagger"
)

var (
	errUnauthorized = errors.New("unauthorized")
)

// Server exposes the tagger over HTTP. The predict endpoint takes raw
// image bytes as the request body and answers with the bare probability
// array, which keeps clients trivial.
type Server struct {
	provider tagger.Provider
	token    string
}

func New(provider tagger.Provider, token string) *Server {
	return &Server{provider: provider, token: token}
}

func (s *Server) authenticate(c *gin.Context) error {
	if s.token == "" {
		return nil
	}
	auth := c.GetHeader("Authorization")

	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(s.token)) != 1 {
		return errUnauthorized
	}

	return nil
}

func (s *Server) PredictHandler(c *gin.Context) {
	if err := s.authenticate(c); err != nil {
		c.JSON(401, gin.H{"error": "认证失败"})
		return
	}

	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		c.JSON(400, gin.H{"error": "请求体为空"})
		return
	}

	probs, err := s.provider.Predict(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, tagger.ErrDecode) {
			c.JSON(400, gin.H{"error": "无法解析图片"})
			return
		}
		slog.Error("Prediction failed", slog.String("error", err.Error()))
		c.JSON(500, gin.H{"error": "推理失败"})
		return
	}

	c.JSON(200, probs)
}

func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(200, gin.H{"status": "healthy"})
}
