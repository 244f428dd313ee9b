// Package server exposes the segmenter over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	tagstream "github.com/riverfjs/tagstream-go"
	"github.com/riverfjs/tagstream-go/internal/envconfig"
	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/logutil"
	"github.com/riverfjs/tagstream-go/internal/render"
	"github.com/riverfjs/tagstream-go/internal/version"
)

// Server holds the shared, read-only state of the HTTP handlers. Streams are
// created per request.
type Server struct {
	addr     net.Addr
	reg      *grammar.Registry
	renderer *render.Markdown
	log      *slog.Logger
}

// New creates a server for reg. A nil registry means grammar.Default().
func New(reg *grammar.Registry, unsafeHTML bool, log *slog.Logger) *Server {
	if reg == nil {
		reg = grammar.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reg:      reg,
		renderer: render.New(render.WithUnsafeHTML(unsafeHTML)),
		log:      log,
	}
}

// GenerateRoutes builds the gin handler.
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(cors.New(corsConfig))

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "tagstream is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "tagstream is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })

	r.GET("/api/tags", s.TagsHandler)
	r.POST("/api/render", s.RenderHandler)
	r.POST("/api/segment", s.SegmentHandler)

	return r
}

// TagsHandler lists the registered tag names.
func (s *Server) TagsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, TagsResponse{Tags: s.reg.Names()})
}

// RenderHandler renders a Markdown fragment.
func (s *Server) RenderHandler(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	html, err := s.renderer.Render(req.Markdown)
	if err != nil {
		s.log.Warn("markdown rendering failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, RenderResponse{HTML: html})
}

// Serve runs the HTTP server on ln until SIGINT or SIGTERM.
func Serve(ln net.Listener) error {
	level := envconfig.LogLevel()
	slog.SetDefault(logutil.NewLogger(os.Stderr, level))
	slog.Info("server config", "env", envconfig.AsMap())
	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := grammar.Default()
	if tags := envconfig.Tags(); tags != "" {
		var err error
		if reg, err = grammar.Parse(tags); err != nil {
			return fmt.Errorf("TAGSTREAM_TAGS: %w", err)
		}
	}
	tagstream.SetLogger(slog.Default())

	s := New(reg, envconfig.UnsafeHTML(), slog.Default())
	s.addr = ln.Addr()

	srvr := &http.Server{Handler: s.GenerateRoutes()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		srvr.Close()
	}()

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version), "tags", strings.Join(reg.Names(), ","))
	if err := srvr.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
