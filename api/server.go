package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/sketch-server/util"
	"github.com/judgegodwins/sketch-server/ws"
	"github.com/rs/cors"
)

type Server struct {
	config    *util.Config
	wsManager *ws.Manager
	router    *gin.Engine
	http      *http.Server
}

func NewServer(config *util.Config) *Server {
	gin.SetMode(config.GinMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	server := &Server{
		config:    config,
		wsManager: ws.NewManager(config),
		router:    router,
	}

	router.GET("/ws", server.wsManager.ServeWS)
	router.StaticFS("/frontend", http.Dir(config.StaticDir))
	router.GET("/rooms", server.ListRooms)
	router.GET("/rooms/:name", server.CheckRoom)

	server.http = &http.Server{
		Addr:              fmt.Sprintf(":%v", config.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// Handler is the router wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	options := cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}

	if len(s.config.AllowedOrigins) > 0 {
		options.AllowedOrigins = s.config.AllowedOrigins
	}

	return cors.New(options).Handler(s.router)
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests and closes every websocket.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsManager.Shutdown()
	return s.http.Shutdown(ctx)
}
