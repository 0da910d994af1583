package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"ipsign.app/config"
	"ipsign.app/errors"
	"ipsign.app/models"
)

// SignatureBuilder assembles the composite record for one request.
type SignatureBuilder interface {
	BuildRecord(ip, userAgent string) (*models.SignatureRecord, error)
}

// ImageRenderer produces the signature and error images.
type ImageRenderer interface {
	Render(record *models.SignatureRecord, width, height int) ([]byte, error)
	ErrorImage(message string) []byte
}

// Server represents the HTTP server and API handler
type Server struct {
	router     *gin.Engine
	config     *config.Config
	signatures SignatureBuilder
	renderer   ImageRenderer
}

// NewServer creates and configures a new HTTP server
func NewServer(config *config.Config, signatures SignatureBuilder, renderer ImageRenderer) *Server {
	if config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), CORS())

	server := &Server{
		router:     router,
		config:     config,
		signatures: signatures,
		renderer:   renderer,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/signature", s.getSignature)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, s.config.HomepageURL)
	})
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Dimension bounds for the rendered card. The default size keeps the
// reference aspect ratio; a single given dimension scales the other.
const (
	defaultWidth  = 752
	defaultHeight = 423
	minWidth      = 100
	maxWidth      = 3840
	minHeight     = 100
	maxHeight     = 2160
)

func (s *Server) getSignature(c *gin.Context) {
	width, height, err := parseDimensions(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	ip := ClientIP(c)
	slog.Info("signature request", "ip", ip, "width", width, "height", height)

	record, err := s.signatures.BuildRecord(ip, c.GetHeader("User-Agent"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	img, err := s.renderer.Render(record, width, height)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=600")
	c.Header("Expires", time.Now().Add(10*time.Minute).UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, "image/png", img)
	slog.Debug("signature image sent", "bytes", len(img))
}

// parseDimensions validates the width/height query parameters and fills
// omitted dimensions from the default aspect ratio.
func parseDimensions(c *gin.Context) (int, int, error) {
	width, widthSet, err := parseDimension(c, "width", minWidth, maxWidth)
	if err != nil {
		return 0, 0, err
	}
	height, heightSet, err := parseDimension(c, "height", minHeight, maxHeight)
	if err != nil {
		return 0, 0, err
	}

	switch {
	case !widthSet && !heightSet:
		return defaultWidth, defaultHeight, nil
	case widthSet && !heightSet:
		return width, width * defaultHeight / defaultWidth, nil
	case !widthSet && heightSet:
		return height * defaultWidth / defaultHeight, height, nil
	}
	return width, height, nil
}

func parseDimension(c *gin.Context, name string, min, max int) (int, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	if value < min || value > max {
		return 0, false, errors.NewValidationError(fmt.Sprintf("%s must be between %d and %d", name, min, max))
	}
	return value, true, nil
}

// handleError answers an unrecoverable core error. The client still gets
// an image unless debug mode asks for the raw failure.
func (s *Server) handleError(c *gin.Context, err error) {
	slog.Error("signature generation failed", "error", err)

	if s.config.Debug {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error: %v\n\n%s", err, debug.Stack()))
		return
	}

	img := s.renderer.ErrorImage("生成签名图片时出错")
	if img == nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
