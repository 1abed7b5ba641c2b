package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/radar/internal/domain/model"
)

type createCollectionRequest struct {
	OwnerID string `json:"owner_id" validate:"required,min=1,max=128"`
	Name    string `json:"name" validate:"required,min=1,max=256"`
	Kind    string `json:"kind" validate:"required,oneof=shortlist roster watchlist"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	coll, err := s.svc.CreateCollection(r.Context(), req.OwnerID, req.Name, model.CollectionKind(req.Kind))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, coll)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	coll, members, err := s.svc.GetCollection(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": coll, "members": members})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		s.writeError(w, fmt.Errorf("%w: owner_id is required", ErrBadRequest))
		return
	}

	colls, err := s.svc.ListCollections(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": colls})
}

type addMemberRequest struct {
	CandidateSlug string `json:"candidate_slug" validate:"required,min=1,max=128"`
	Notes         string `json:"notes" validate:"max=1024"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req addMemberRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	member, err := s.svc.AddMember(r.Context(), id, req.CandidateSlug, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.svc.RemoveMember(r.Context(), id, r.PathValue("slug")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	SlugA string `json:"slug_a" validate:"required,min=1,max=128"`
	SlugB string `json:"slug_b" validate:"required,min=1,max=128"`
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req reorderRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.svc.SwapMembers(r.Context(), id, req.SlugA, req.SlugB); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fit, err := s.svc.AssessRosterFit(r.Context(), id, r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fit)
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	gaps, err := s.svc.RosterGaps(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gaps": gaps})
}

func (s *Server) handleRosterCollabs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultTopLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pairs, err := s.svc.CollabsWithinRoster(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collabs": pairs})
}

func (s *Server) handleExternalCollabs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultTopLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pairs, err := s.svc.ExternalCollabs(r.Context(), r.PathValue("slug"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collabs": pairs})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", ErrBadRequest)
	}
	return id, nil
}
