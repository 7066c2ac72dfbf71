package router

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"blog-api/internal/config"
	"blog-api/internal/handler"
	"blog-api/internal/middleware"
	"blog-api/internal/model"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Post  *handler.PostHandler
	Image *handler.ImageHandler

	// Health reports backing store readiness. Nil means always healthy.
	Health func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			if err := h.Health(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	postsDir := filepath.Join(cfg.PublicRoot, cfg.PostsImageFolder)
	r.With(middleware.StreamingTimeout(cfg.RequestTimeout)).
		Handle("/public/posts/*", http.StripPrefix("/public/posts/", staticFiles(postsDir)))

	r.Group(func(api chi.Router) {
		api.Use(middleware.SecurityHeaders)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register/email", h.Auth.RegisterEmail)
			auth.With(authMiddleware.RequireBasic).Post("/login/email", h.Auth.LoginEmail)
			auth.With(authMiddleware.RequireRefresh).Post("/token/access", h.Auth.TokenAccess)
			auth.With(authMiddleware.RequireRefresh).Post("/token/refresh", h.Auth.TokenRefresh)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAccess)
			users.Get("/me", h.User.Me)
			users.With(authMiddleware.RequireRoles(model.RoleAdmin)).Get("/", h.User.List)
		})

		api.Route("/posts", func(posts chi.Router) {
			posts.Get("/", h.Post.List)
			posts.Get("/{id}", h.Post.Get)
			posts.With(authMiddleware.RequireAccess).Post("/", h.Post.Create)
			posts.With(authMiddleware.RequireAccess).Patch("/{id}", h.Post.Update)
			posts.With(authMiddleware.RequireAccess).Delete("/{id}", h.Post.Delete)
		})

		api.With(authMiddleware.RequireAccess).Post("/common/image", h.Image.Upload)
	})

	return r
}

// staticFiles serves files from dir without directory listings.
func staticFiles(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
