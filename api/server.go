package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fxbacktest/cache"
	"fxbacktest/tickdata"
)

// Server exposes dataset upload and backtest runs over HTTP.
type Server struct {
	engine *gin.Engine
	server *http.Server
	store  *cache.Store
	chCfg  tickdata.ClickHouseConfig
}

func NewServer(store *cache.Store, port int, chCfg tickdata.ClickHouseConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine: engine,
		store:  store,
		chCfg:  chCfg,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	handler := NewHandler(s.store, s.chCfg)

	api := s.engine.Group("/api")
	{
		api.POST("/datasets", handler.UploadDataset)
		api.GET("/datasets", handler.ListDatasets)
		api.DELETE("/datasets/:id", handler.DeleteDataset)

		api.POST("/backtest", handler.RunBacktest)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) Start() error {
	log.Printf("[API] listening on http://localhost%s\n", s.server.Addr)
	log.Println("[API] routes:")
	log.Println("  POST   /api/datasets     - upload tick data")
	log.Println("  GET    /api/datasets     - list uploaded datasets")
	log.Println("  DELETE /api/datasets/:id - delete a dataset")
	log.Println("  POST   /api/backtest     - run a backtest")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.Printf("[API] %s %s %d %v\n", c.Request.Method, path, status, latency)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
