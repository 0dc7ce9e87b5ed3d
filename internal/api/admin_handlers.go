package api

import (
	"net/http"
	"time"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DB().PingContext(r.Context()); err != nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.DashboardStats(time.Now())
	if err != nil {
		s.app.Logger().Error("Computing dashboard stats", "err", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to compute dashboard stats")
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}
