package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Mosaic/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Mosaic/internal/api/middlewares"
	"github.com/markdave123-py/Mosaic/internal/config"
)

// Media extraction of a large upload can take minutes.
const requestTimeout = 10 * time.Minute

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth *handlers.AuthHandler
	Docs *handlers.DocumentHandler
	Chat *handlers.ChatHandler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, h Handlers) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv}
}

// NewRouter mounts the API. The document and chat routes require a bearer
// token only when JWT_SECRET is configured.
func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8501"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/login", h.Auth.Login)
		api.Get("/formats", h.Docs.GetFormats)

		api.Group(func(protected chi.Router) {
			if cfg.JWTSecret != "" {
				protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			}
			protected.Post("/documents/upload", h.Docs.UploadDocuments)
			protected.Get("/documents", h.Docs.GetDocuments)
			protected.Get("/documents/{name}", h.Docs.DownloadDocument)
			protected.Post("/youtube", h.Docs.AddYouTube)
			protected.Delete("/index", h.Docs.ClearIndex)

			protected.Post("/chat/query", h.Chat.Query)
			protected.Get("/chat/history", h.Chat.GetHistory)
			protected.Delete("/chat/history", h.Chat.ClearHistory)
		})
	})

	return r
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
