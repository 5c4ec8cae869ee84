// Package server is the composition root: it builds the store, tracker,
// sampling engine, event bus and exporter, and wires them into the HTTP
// router. Components receive their collaborators here; none of them reach
// for globals.
package server

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"optia/internal/config"
	"optia/internal/events"
	"optia/internal/export"
	"optia/internal/lifecycle"
	"optia/internal/parser"
	"optia/internal/sampling"
	"optia/internal/server/handlers"
	"optia/internal/store"
)

// Server is the HTTP server and its wired components.
type Server struct {
	router  *gin.Engine
	store   *store.Store
	logger  *zap.Logger
	handler *handlers.Handlers
}

// NewServer wires all components from the configuration.
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.New(filepath.Join(dataDir, "optia.db"))
	if err != nil {
		return nil, err
	}

	tracker, err := lifecycle.NewTracker(st)
	if err != nil {
		st.Close()
		return nil, err
	}

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		logger.Info("event",
			zap.String("kind", string(e.Kind)),
			zap.String("controlType", e.ControlType),
			zap.String("dossierKey", e.DossierKey),
			zap.Any("counts", e.Counts))
	})

	h := handlers.New(cfg, parser.NewMapper(), sampling.NewEngine(),
		tracker, st, bus, export.NewExporter(), logger)

	s := &Server{
		router:  gin.Default(),
		store:   st,
		logger:  logger,
		handler: h,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(api)
	}
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close releases the underlying store.
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore exposes the store for tests.
func (s *Server) GetStore() *store.Store {
	return s.store
}
