// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xtreamsync/xtreamsync/internal/core"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"golang.org/x/time/rate"
)

// Server holds the dependencies for our API.
type Server struct {
	app         *core.App
	store       *store.Store
	syncLimiter *RateLimiter
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	cfg := app.Config().RateLimit
	limit := rate.Limit(cfg.SyncPerSecond)
	if cfg.SyncPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Server{
		app:         app,
		store:       app.Store(),
		syncLimiter: NewRateLimiter(limit, cfg.Burst),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(CORS(s.app.Config().CORS.AllowedOrigins))

	// WebSocket route, kept out of the request timeout.
	r.Get("/ws/progress", s.app.WsHub().ServeWs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		if base := s.app.Config().BasePath; base != "" {
			r.Route(base, s.apiRoutes)
		} else {
			s.apiRoutes(r)
		}
	})

	return r
}

func (s *Server) apiRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleGetVersion)

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", s.handleListSubscriptions)
		r.Post("/", s.handleCreateSubscription)
		r.Get("/{subID}", s.handleGetSubscription)
		r.Put("/{subID}", s.handleUpdateSubscription)
		r.Delete("/{subID}", s.handleDeleteSubscription)
	})

	r.Route("/selection/{type}", func(r chi.Router) {
		r.Get("/{subID}", s.handleListCategories)
		r.Post("/{subID}", s.handleSaveSelection)
		r.With(s.syncLimiter.Limit).Post("/sync/{subID}", s.handleRefreshCategories)
	})

	r.Get("/dashboard/stats", s.handleDashboardStats)

	r.Route("/sync", func(r chi.Router) {
		r.Get("/status", s.handleSyncStatus)
		r.Group(func(r chi.Router) {
			r.Use(s.syncLimiter.Limit)
			r.Post("/stop/{subID}/{type}", s.handleStopSync)
			r.Post("/{type}/{subID}", s.handleStartSync)
		})
	})

	r.Route("/scheduler", func(r chi.Router) {
		r.Get("/config/{subID}", s.handleGetScheduleConfig)
		r.Put("/config/{subID}/{type}", s.handleUpdateScheduleConfig)
		r.Get("/history/{subID}", s.handleExecutionHistory)
	})

	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handleUpdateSettings)
}

// idParam parses a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// typeParam accepts the plural wire forms "movies" and "series".
func typeParam(r *http.Request) (models.ContentType, bool) {
	switch ct := models.ContentType(chi.URLParam(r, "type")); ct {
	case models.Movies, models.Series:
		return ct, true
	}
	return "", false
}

// pathIDs reads {subID} and {type} and answers 400 on bad values.
func pathIDs(w http.ResponseWriter, r *http.Request) (int64, models.ContentType, bool) {
	subID, ok := idParam(r, "subID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return 0, "", false
	}
	ct, ok := typeParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid type, expected 'movies' or 'series'")
		return 0, "", false
	}
	return subID, ct, true
}
