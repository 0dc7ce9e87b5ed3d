package api

import (
	"net/http"
	"time"

	"github.com/xtreamsync/xtreamsync/internal/jobs"
	"github.com/xtreamsync/xtreamsync/internal/models"
)

const maxHistoryLimit = 200

func (s *Server) handleGetScheduleConfig(w http.ResponseWriter, r *http.Request) {
	subID, ok := idParam(r, "subID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}
	schedules, err := s.store.ListSchedules(subID)
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, schedules)
}

func (s *Server) handleUpdateScheduleConfig(w http.ResponseWriter, r *http.Request) {
	subID, ct, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var body struct {
		Enabled   bool             `json:"enabled"`
		Frequency models.Frequency `json:"frequency"`
	}
	if err := decodeJSON(r, &body); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var next *time.Time
	if body.Enabled {
		t, err := jobs.NextRun(body.Frequency, time.Now())
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid frequency")
			return
		}
		next = &t
	} else if _, err := body.Frequency.Interval(); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid frequency")
		return
	}

	sch, err := s.store.UpsertSchedule(subID, ct, body.Enabled, body.Frequency, next)
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, sch)
}

func (s *Server) handleExecutionHistory(w http.ResponseWriter, r *http.Request) {
	subID, ok := idParam(r, "subID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 200")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		RespondWithError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}
	var ct models.ContentType
	if raw := r.URL.Query().Get("sync_type"); raw != "" {
		ct = models.ContentType(raw)
		if ct != models.Movies && ct != models.Series {
			RespondWithError(w, http.StatusBadRequest, "Invalid sync_type, expected 'movies' or 'series'")
			return
		}
	}

	if _, err := s.store.GetSubscription(subID); err != nil {
		s.respondLookupError(w, err)
		return
	}
	execs, err := s.store.ListExecutions(subID, ct, limit, offset)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve execution history")
		return
	}
	RespondWithJSON(w, http.StatusOK, execs)
}
