package api

import (
	"errors"
	"net/http"

	"github.com/xtreamsync/xtreamsync/internal/jobs"
	"github.com/xtreamsync/xtreamsync/internal/models"
)

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	states, err := s.store.ListSyncStates()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve sync status")
		return
	}
	RespondWithJSON(w, http.StatusOK, states)
}

func (s *Server) handleStartSync(w http.ResponseWriter, r *http.Request) {
	subID, ct, ok := pathIDs(w, r)
	if !ok {
		return
	}
	sub, err := s.store.GetSubscription(subID)
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	if !sub.IsActive {
		RespondWithError(w, http.StatusBadRequest, "Subscription is inactive")
		return
	}

	runID, err := s.app.JobManager().Start(subID, ct)
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			RespondWithError(w, http.StatusConflict, ct.Label()+" sync is already running")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "Failed to start sync")
		return
	}
	RespondWithJSON(w, http.StatusOK, models.SyncTrigger{
		Message: ct.Label() + " sync started",
		TaskID:  runID,
	})
}

func (s *Server) handleStopSync(w http.ResponseWriter, r *http.Request) {
	subID, ct, ok := pathIDs(w, r)
	if !ok {
		return
	}

	err := s.app.JobManager().Stop(subID, ct)
	switch {
	case errors.Is(err, jobs.ErrNotRunning):
		RespondWithJSON(w, http.StatusOK, map[string]string{"message": "No running task found"})
	case err != nil:
		RespondWithError(w, http.StatusInternalServerError, "Failed to stop sync")
	default:
		RespondWithJSON(w, http.StatusOK, map[string]string{"message": stoppedMessage(ct)})
	}
}

// stoppedMessage capitalizes the wire type: "Movies sync stopped successfully".
func stoppedMessage(ct models.ContentType) string {
	t := string(ct)
	return string(t[0]-'a'+'A') + t[1:] + " sync stopped successfully"
}
