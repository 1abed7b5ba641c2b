package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// Query parameter defaults.
const (
	defaultHistoryDays = 90
	defaultTopLimit    = 20
	defaultListLimit   = 50
)

func (s *Server) handleLatestScore(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.LatestScore(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", defaultHistoryDays)
	if err != nil {
		s.writeError(w, err)
		return
	}

	history, err := s.svc.ScoreHistory(r.Context(), r.PathValue("slug"), days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultTopLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	entries, err := s.svc.TopCandidates(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"top": entries})
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
