package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"authgate/internal/auth"
	"authgate/internal/config"
	"authgate/internal/kv"
)

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, store kv.Store, provider codeExchanger, users *auth.Directory, sessions *auth.SessionManager, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	settings := auth.Settings{
		Domain:       cfg.Auth.Domain,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURI:  cfg.Auth.RedirectURI,
	}
	oauthHandler := NewOAuthHandler(provider, store, users, sessions, settings, logger)
	pages := NewPageHandler(logger)

	r.Group(func(r chi.Router) {
		r.Use(newSessionGuard(sessions, logger))

		r.Get("/", requireUser(pages.Home))
		r.Get("/login", pages.Login)
		r.Get("/loggedin", pages.LoggedIn)
		r.Get("/auth/login", oauthHandler.Login)
		r.Get("/callback", oauthHandler.Callback)
		r.Get("/logout", oauthHandler.Logout)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	return r
}
