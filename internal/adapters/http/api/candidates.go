package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/radar/internal/domain/model"
)

type createCandidateRequest struct {
	Slug string   `json:"slug" validate:"required,min=1,max=128"`
	Name string   `json:"name" validate:"required,min=1,max=256"`
	Tags []string `json:"tags" validate:"omitempty,dive,min=1,max=64"`
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	cand, err := s.svc.CreateCandidate(r.Context(), model.Candidate{
		Slug:      req.Slug,
		Name:      req.Name,
		Tags:      req.Tags,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cand)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	cand, err := s.svc.GetCandidate(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cand)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	cands, err := s.svc.ListCandidates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": cands})
}

type addTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,min=1,max=64"`
}

func (s *Server) handleAddTags(w http.ResponseWriter, r *http.Request) {
	var req addTagsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	slug := r.PathValue("slug")
	if err := s.svc.AddTags(r.Context(), slug, req.Tags); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"slug": slug})
}

// decode unmarshals and validates a JSON request body.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
