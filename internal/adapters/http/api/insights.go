package api

import (
	"fmt"
	"net/http"
)

type generateInsightsRequest struct {
	OwnerID string `json:"owner_id" validate:"required,min=1,max=128"`
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req generateInsightsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	insights, err := s.svc.GenerateInsights(r.Context(), req.OwnerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		s.writeError(w, fmt.Errorf("%w: owner_id is required", ErrBadRequest))
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	insights, err := s.svc.ListInsights(r.Context(), ownerID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}
