// Package api exposes the talent-radar service over HTTP. Handlers are thin:
// decode, validate, delegate, encode. All domain decisions live in the app
// layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/collections"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// Service is the application surface the API depends on.
type Service interface {
	CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error)
	GetCandidate(ctx context.Context, slug string) (model.Candidate, error)
	AddTags(ctx context.Context, slug string, tags []string) error
	ListCandidates(ctx context.Context) ([]model.Candidate, error)

	IngestBatch(ctx context.Context, items []app.IngestItem) (app.IngestReport, error)
	RefreshCandidate(ctx context.Context, slug string) (model.CompositeScore, error)
	RecomputeByTag(ctx context.Context, tag string) (int, error)

	LatestScore(ctx context.Context, slug string) (app.ScoreView, error)
	ScoreHistory(ctx context.Context, slug string, days int) ([]model.CompositeScore, error)
	TopCandidates(ctx context.Context, limit int) ([]repository.RankedEntry, error)

	CreateCollection(ctx context.Context, ownerID, name string, kind model.CollectionKind) (model.Collection, error)
	GetCollection(ctx context.Context, id int64) (model.Collection, []model.CollectionMember, error)
	ListCollections(ctx context.Context, ownerID string) ([]model.Collection, error)
	AddMember(ctx context.Context, collectionID int64, slug, notes string) (model.CollectionMember, error)
	RemoveMember(ctx context.Context, collectionID int64, slug string) error
	SwapMembers(ctx context.Context, collectionID int64, slugA, slugB string) error
	AssessRosterFit(ctx context.Context, collectionID int64, slug string) (collections.FitResult, error)
	RosterGaps(ctx context.Context, collectionID int64) ([]collections.Gap, error)
	CollabsWithinRoster(ctx context.Context, collectionID int64, limit int) ([]collections.CollabPair, error)
	ExternalCollabs(ctx context.Context, slug string, limit int) ([]collections.CollabPair, error)

	GenerateInsights(ctx context.Context, ownerID string) ([]model.Insight, error)
	ListInsights(ctx context.Context, ownerID string, limit int) ([]model.Insight, error)

	GetStats(ctx context.Context) (app.Stats, error)
}

// Server holds the handlers' shared dependencies.
type Server struct {
	svc      Service
	log      logger.Logger
	validate *validator.Validate
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer constructs an API server over the service.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("api")
	}
	return s
}

// Register mounts every route on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	wrap := func(endpoint string, h http.HandlerFunc) http.Handler {
		return MetricsMiddleware(endpoint, h)
	}

	mux.Handle("POST /candidates", wrap("/candidates", s.handleCreateCandidate))
	mux.Handle("GET /candidates", wrap("/candidates", s.handleListCandidates))
	mux.Handle("GET /candidates/{slug}", wrap("/candidates/{slug}", s.handleGetCandidate))
	mux.Handle("POST /candidates/{slug}/tags", wrap("/candidates/{slug}/tags", s.handleAddTags))

	mux.Handle("POST /events", wrap("/events", s.handleIngest))
	mux.Handle("POST /refresh/{slug}", wrap("/refresh/{slug}", s.handleRefresh))
	mux.Handle("POST /recompute", wrap("/recompute", s.handleRecomputeByTag))

	mux.Handle("GET /scores/{slug}", wrap("/scores/{slug}", s.handleLatestScore))
	mux.Handle("GET /scores/{slug}/history", wrap("/scores/{slug}/history", s.handleScoreHistory))
	mux.Handle("GET /top", wrap("/top", s.handleTop))

	mux.Handle("POST /collections", wrap("/collections", s.handleCreateCollection))
	mux.Handle("GET /collections", wrap("/collections", s.handleListCollections))
	mux.Handle("GET /collections/{id}", wrap("/collections/{id}", s.handleGetCollection))
	mux.Handle("POST /collections/{id}/members", wrap("/collections/{id}/members", s.handleAddMember))
	mux.Handle("DELETE /collections/{id}/members/{slug}", wrap("/collections/{id}/members/{slug}", s.handleRemoveMember))
	mux.Handle("POST /collections/{id}/reorder", wrap("/collections/{id}/reorder", s.handleReorder))
	mux.Handle("GET /collections/{id}/fit/{slug}", wrap("/collections/{id}/fit/{slug}", s.handleFit))
	mux.Handle("GET /collections/{id}/gaps", wrap("/collections/{id}/gaps", s.handleGaps))
	mux.Handle("GET /collections/{id}/collabs", wrap("/collections/{id}/collabs", s.handleRosterCollabs))
	mux.Handle("GET /candidates/{slug}/collabs", wrap("/candidates/{slug}/collabs", s.handleExternalCollabs))

	mux.Handle("POST /insights/generate", wrap("/insights/generate", s.handleGenerateInsights))
	mux.Handle("GET /insights", wrap("/insights", s.handleListInsights))

	mux.Handle("GET /stats", wrap("/stats", s.handleStats))
	mux.Handle("GET /healthz", wrap("/healthz", s.handleHealth))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses and emits a uniform
// error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrUnknownCandidate):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, app.ErrInvalidKind),
		errors.Is(err, app.ErrNotRoster),
		errors.Is(err, ErrBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error(context.Background(), "request failed", logger.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
