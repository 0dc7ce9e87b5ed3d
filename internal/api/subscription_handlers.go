package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/util"
)

const subscriptionNotFound = "Subscription not found"

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil || skip < 0 {
		RespondWithError(w, http.StatusBadRequest, "Invalid skip")
		return
	}
	// The store reads a zero limit as "no limit"; over HTTP it is refused.
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit < 1 {
		RespondWithError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	subs, err := s.store.ListSubscriptions(skip, limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve subscriptions")
		return
	}
	RespondWithJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in models.SubscriptionInput
	if err := decodeJSON(r, &in); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := normalizeInput(&in); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := s.store.CreateSubscription(in)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			RespondWithError(w, http.StatusConflict, "A subscription with this name already exists")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "Failed to create subscription")
		return
	}
	s.app.Logger().Info("Subscription created", "subscription_id", sub.ID, "name", sub.Name)
	RespondWithJSON(w, http.StatusOK, sub)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	subID, ok := idParam(r, "subID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}
	sub, err := s.store.GetSubscription(subID)
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, sub)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	subID, ok := idParam(r, "subID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}
	var patch models.SubscriptionPatch
	if err := decodeJSON(r, &patch); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := normalizePatch(&patch); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := s.store.UpdateSubscription(subID, patch)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			RespondWithError(w, http.StatusConflict, "A subscription with this name already exists")
			return
		}
		s.respondLookupError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	subID, ok := idParam(r, "subID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid subscription ID")
		return
	}
	if _, err := s.store.GetSubscription(subID); err != nil {
		s.respondLookupError(w, err)
		return
	}

	// Running jobs would otherwise write into rows that are about to vanish.
	if err := s.app.JobManager().StopSubscription(subID); err != nil {
		s.app.Logger().Warn("Stopping jobs of deleted subscription", "subscription_id", subID, "err", err)
	}

	sub, err := s.store.DeleteSubscription(subID)
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	s.app.Logger().Info("Subscription deleted", "subscription_id", sub.ID, "name", sub.Name)
	RespondWithJSON(w, http.StatusOK, sub)
}

func (s *Server) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, subscriptionNotFound)
		return
	}
	s.app.Logger().Error("Subscription lookup failed", "err", err)
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func normalizeInput(in *models.SubscriptionInput) error {
	required := []struct {
		field string
		value *string
	}{
		{"name", &in.Name},
		{"xtream_url", &in.XtreamURL},
		{"username", &in.Username},
		{"password", &in.Password},
		{"movies_dir", &in.MoviesDir},
		{"series_dir", &in.SeriesDir},
	}
	for _, f := range required {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return fmt.Errorf("%s is required", f.field)
		}
	}
	return normalizeFields(&in.XtreamURL, &in.MoviesDir, &in.SeriesDir)
}

func normalizePatch(p *models.SubscriptionPatch) error {
	for field, v := range map[string]*string{
		"name":     p.Name,
		"username": p.Username,
		"password": p.Password,
	} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
	}
	return normalizeFields(p.XtreamURL, p.MoviesDir, p.SeriesDir)
}

// normalizeFields validates the URL and output directories in place. Nil
// pointers are skipped.
func normalizeFields(xtreamURL, moviesDir, seriesDir *string) error {
	if xtreamURL != nil {
		u, err := url.Parse(strings.TrimSpace(*xtreamURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("xtream_url must be an http or https URL")
		}
		*xtreamURL = strings.TrimRight(u.String(), "/")
	}
	for field, dir := range map[string]*string{"movies_dir": moviesDir, "series_dir": seriesDir} {
		if dir == nil {
			continue
		}
		clean, err := util.ValidateOutputDir(*dir)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", field, err)
		}
		*dir = clean
	}
	return nil
}
