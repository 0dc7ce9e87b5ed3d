package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/nfo"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}
	RespondWithJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings accepts a partial map of settings. Flags may be sent
// as JSON booleans or as "true"/"false".
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	values := make(map[string]string, len(body))
	for key, raw := range body {
		v, err := settingValue(key, raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		values[key] = v
	}

	if err := s.store.SetSettings(values); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	s.app.Logger().Info("Settings updated", "keys", len(values))
	s.handleGetSettings(w, r)
}

func settingValue(key string, raw any) (string, error) {
	if !slices.Contains(models.SettingKeys, key) {
		return "", fmt.Errorf("unknown setting: %s", key)
	}

	if key == models.SettingPrefixRegex {
		pattern, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("%s must be a string", key)
		}
		if err := nfo.ValidatePrefixRegex(pattern); err != nil {
			return "", fmt.Errorf("invalid %s: %v", key, err)
		}
		return pattern, nil
	}

	switch v := raw.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return strconv.FormatBool(b), nil
		}
	}
	return "", fmt.Errorf("%s must be true or false", key)
}
