package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"suorganizer/config"
	"suorganizer/constants"
	"suorganizer/database"
	"suorganizer/site"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/csrf"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	if err := database.Init(cfg); err != nil {
		return err
	}
	defer database.CloseDB()

	site.Configure(cfg)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           initRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Block until a signal is received or the server fails
	select {
	case err := <-serverErr:
		return err
	case <-signals:
	}
	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// csrfAuthKey derives the 32 byte CSRF key from the configured secret. Without
// one a random key is used and tokens stop validating after a restart.
func csrfAuthKey(secret string) []byte {
	if secret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatalf("Failed to generate CSRF key: %v", err)
		}
		log.Println("No csrf_key configured, using a random key")
		return key
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func initRouter(cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	CORSMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute)) // shared across all routes
	}
	r.Use(middleware.Recoverer)
	r.Use(csrf.Protect(csrfAuthKey(cfg.CSRFKey),
		csrf.Secure(cfg.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(constants.CSRF_FIELD_NAME),
		csrf.ErrorHandler(http.HandlerFunc(site.CSRFFailure)),
	))
	r.Use(site.TryPutUserInContextMiddleware)

	r.NotFound(site.NotFoundHandler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/blog/", http.StatusFound)
	})
	r.Get("/healthz", site.Healthz)

	r.Route("/blog", func(r chi.Router) {
		r.Get("/", site.PostList)
		r.With(site.RequirePermission(database.PermAddPost)).HandleFunc("/create/", site.PostCreate)
		r.Route("/{year:[0-9][0-9][0-9][0-9]}", func(r chi.Router) {
			r.Get("/", site.PostArchiveYear)
			r.Route("/{month:[0-9][0-9]?}", func(r chi.Router) {
				r.Get("/", site.PostArchiveMonth)
				r.Get("/{slug}/", site.PostDetail)
				r.With(site.RequirePermission(database.PermChangePost)).HandleFunc("/{slug}/update/", site.PostUpdate)
				r.With(site.RequirePermission(database.PermDeletePost)).HandleFunc("/{slug}/delete/", site.PostDelete)
			})
		})
	})

	r.Route("/tag", func(r chi.Router) {
		r.Get("/", site.TagList)
		r.Get("/page/{page}/", site.TagPageList)
		r.With(site.RequirePermission(database.PermAddTag)).HandleFunc("/create/", site.TagCreate)
		r.Get("/{slug}/", site.TagDetail)
		r.With(site.RequirePermission(database.PermChangeTag)).HandleFunc("/{slug}/update/", site.TagUpdate)
		r.With(site.RequirePermission(database.PermDeleteTag)).HandleFunc("/{slug}/delete/", site.TagDelete)
	})

	r.Route("/startup", func(r chi.Router) {
		r.Get("/", site.StartupList)
		r.With(site.RequirePermission(database.PermAddStartup)).HandleFunc("/create/", site.StartupCreate)
		r.Get("/{slug}/", site.StartupDetail)
		r.With(site.RequirePermission(database.PermChangeStartup)).HandleFunc("/{slug}/update/", site.StartupUpdate)
		r.With(site.RequirePermission(database.PermDeleteStartup)).HandleFunc("/{slug}/delete/", site.StartupDelete)
		r.With(site.RequirePermission(database.PermAddNewsLink)).HandleFunc("/{slug}/add_article_link/", site.NewsLinkCreate)
		r.With(site.RequirePermission(database.PermChangeNewsLink)).HandleFunc("/{slug}/{newslink}/update/", site.NewsLinkUpdate)
		r.With(site.RequirePermission(database.PermDeleteNewsLink)).HandleFunc("/{slug}/{newslink}/delete/", site.NewsLinkDelete)
	})

	r.Route("/user", func(r chi.Router) {
		r.HandleFunc("/login/", site.UserLogin)
		r.Post("/logout/", site.UserLogout)
		r.HandleFunc("/create/", site.UserSignUp)
		r.With(site.AuthProtectedMiddleware).Get("/profile/", site.OwnProfile)
		r.With(site.AuthProtectedMiddleware).HandleFunc("/profile/edit/", site.ProfileUpdate)
		r.Get("/{slug}/", site.PublicProfile)
	})

	r.With(site.StaffRequiredMiddleware).Get("/admin/posts/", site.AdminPostList)

	fileServer := http.FileServer(http.Dir(cfg.AssetsDir))
	r.Handle("/assets/*", http.StripPrefix("/assets", fileServer))

	r.Route("/api", func(r chi.Router) {
		r.Use(CORSMiddleware.Handler)
		r.Route("/v1", func(r chi.Router) {
			r.Get("/tags", site.APITagList)
			r.Get("/startups", site.APIStartupList)
			r.Get("/startups/{slug}", site.APIStartupDetail)
		})
	})

	return r
}
