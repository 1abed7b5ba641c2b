package app

import "context"

// Stats is a point-in-time operational snapshot of the pipeline.
type Stats struct {
	Candidates       int   `json:"candidates"`
	Events           int64 `json:"events"`
	RankedCandidates int   `json:"ranked_candidates"`
	QueuedJobs       int   `json:"queued_jobs"`
	DedupeCacheSize  int64 `json:"dedupe_cache_size"`
}

// GetStats collects current counts across the store, rank index, queue, and
// dedupe cache.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	candidates, err := s.store.CountCandidates(ctx)
	if err != nil {
		return Stats{}, err
	}
	events, err := s.store.CountEvents(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Candidates:       candidates,
		Events:           events,
		RankedCandidates: s.rank.Count(ctx),
		QueuedJobs:       s.queue.Len(),
		DedupeCacheSize:  s.deduper.Size(),
	}, nil
}
