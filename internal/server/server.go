package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"imageforensics/internal/config"
	"imageforensics/internal/handler"
	"imageforensics/internal/service"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	svc, err := service.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create forensics service: %w", err)
	}

	router := NewRouter(handler.NewHandler(svc, log), cfg, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
			// Large folders are processed inside one request, so only reads are bounded.
			ReadTimeout:    10 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("ela_dir", cfg.App.ELADir),
		zap.Int("ela_quality", cfg.App.ELAQuality))

	return server, nil
}

// NewRouter wires the HTTP routes onto a fresh gin engine.
func NewRouter(h *handler.Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.Server.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/health", h.HealthCheck)
	router.POST("/process-folder", h.ProcessFolder)

	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		log.Info("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("host", s.cfg.Server.Host),
		zap.String("port", s.cfg.Server.Port),
		zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
