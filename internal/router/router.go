package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"casedeck-backend/internal/handlers"
	"casedeck-backend/internal/middleware"
	"casedeck-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	caseHandler *handlers.CaseHandler,
	studyHandler *handlers.StudyHandler,
	wsHub *websocket.Hub,
	imagesDir string,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Uploaded flashcard images
	r.Handle("/media/images/*", http.StripPrefix("/media/images/", http.FileServer(http.Dir(imagesDir))))

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Case Routes ────
		r.Route("/cases", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", caseHandler.List)
			r.Post("/", caseHandler.Create)
			r.Get("/{id}", caseHandler.Get)
			r.Put("/{id}", caseHandler.Update)
			r.Delete("/{id}", caseHandler.Delete)
		})

		// ──── Study Session Routes ────
		r.Route("/study/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", studyHandler.Start)
			r.Get("/{id}", studyHandler.Current)
			r.Post("/{id}/next", studyHandler.Next)
			r.Post("/{id}/prev", studyHandler.Prev)
			r.Post("/{id}/flip", studyHandler.Flip)
			r.Delete("/{id}", studyHandler.Close)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
