package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	subID, ct, ok := pathIDs(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetSubscription(subID); err != nil {
		s.respondLookupError(w, err)
		return
	}

	cats, err := s.store.ListCategories(subID, ct)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	RespondWithJSON(w, http.StatusOK, cats)
}

func (s *Server) handleRefreshCategories(w http.ResponseWriter, r *http.Request) {
	subID, ct, ok := pathIDs(w, r)
	if !ok {
		return
	}

	res, err := s.app.Engine().RefreshCategories(r.Context(), subID, ct)
	if err != nil {
		s.respondSyncError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveSelection(w http.ResponseWriter, r *http.Request) {
	subID, ct, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var body models.SelectionUpdate
	if err := decodeJSON(r, &body); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if _, err := s.store.GetSubscription(subID); err != nil {
		s.respondLookupError(w, err)
		return
	}

	saved := make([]models.Category, 0, len(body.Categories))
	for _, c := range body.Categories {
		c.CategoryID = strings.TrimSpace(c.CategoryID)
		if c.CategoryID == "" {
			RespondWithError(w, http.StatusBadRequest, "category_id is required")
			return
		}
		c.Selected = true
		saved = append(saved, c)
	}

	if err := s.store.ReplaceSelection(subID, ct, saved); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save selection")
		return
	}
	RespondWithJSON(w, http.StatusOK, saved)
}

// respondSyncError maps engine errors onto status codes.
func (s *Server) respondSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, subscriptionNotFound)
	case errors.Is(err, syncer.ErrInactive):
		RespondWithError(w, http.StatusBadRequest, "Subscription is inactive")
	case errors.Is(err, syncer.ErrProvider):
		RespondWithError(w, http.StatusBadGateway, "Failed to fetch from Xtream: "+strings.TrimPrefix(err.Error(), syncer.ErrProvider.Error()+": "))
	default:
		s.app.Logger().Error("Sync request failed", "err", err)
		RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
