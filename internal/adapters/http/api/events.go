package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/okian/radar/internal/app"
)

type ingestEvent struct {
	CandidateSlug string    `json:"candidate_slug" validate:"required,min=1,max=128"`
	Type          string    `json:"type" validate:"required"`
	Value         float64   `json:"value"`
	Source        string    `json:"source" validate:"required,min=1,max=128"`
	OccurredAt    time.Time `json:"occurred_at" validate:"required"`
}

type ingestRequest struct {
	Events []ingestEvent `json:"events" validate:"required,min=1,max=10000,dive"`
}

// handleIngest accepts a batch of raw events. Per-item failures come back in
// the report; the request itself succeeds as long as the batch was
// processed.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]app.IngestItem, 0, len(req.Events))
	for _, ev := range req.Events {
		items = append(items, app.IngestItem{
			CandidateSlug: ev.CandidateSlug,
			Type:          ev.Type,
			Value:         ev.Value,
			Source:        ev.Source,
			OccurredAt:    ev.OccurredAt,
		})
	}

	report, err := s.svc.IngestBatch(r.Context(), items)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	score, err := s.svc.RefreshCandidate(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

type recomputeRequest struct {
	Tag string `json:"tag" validate:"required,min=1,max=64"`
}

func (s *Server) handleRecomputeByTag(w http.ResponseWriter, r *http.Request) {
	var req recomputeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	n, err := s.svc.RecomputeByTag(r.Context(), req.Tag)
	if err != nil {
		s.writeError(w, fmt.Errorf("recomputing tag %q: %w", req.Tag, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recomputed": n})
}
