package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// IngestItem is one raw event submitted for ingestion.
type IngestItem struct {
	CandidateSlug string    `json:"candidate_slug"`
	Type          string    `json:"type"`
	Value         float64   `json:"value"`
	Source        string    `json:"source"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ItemError reports why one batch item was rejected.
type ItemError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// IngestReport summarizes a batch: every item is accounted for exactly once
// as accepted, rejected, or deduplicated.
type IngestReport struct {
	Accepted     int         `json:"accepted"`
	Rejected     int         `json:"rejected"`
	Deduplicated int         `json:"deduplicated"`
	Errors       []ItemError `json:"errors,omitempty"`
}

// IngestBatch validates and stores a batch of events. A bad item rejects
// only itself; the rest of the batch proceeds. Candidates with accepted
// events are enqueued for recomputation.
func (s *Service) IngestBatch(ctx context.Context, items []IngestItem) (IngestReport, error) {
	metrics.ObserveBatchSize(len(items))

	report := IngestReport{}
	touched := make(map[string]struct{})
	now := time.Now()
	skew := time.Duration(s.cfg.ClockSkewSeconds) * time.Second

	for i, item := range items {
		ev, reason := s.validateItem(ctx, item, now, skew)
		if reason != "" {
			report.Rejected++
			report.Errors = append(report.Errors, ItemError{Index: i, Reason: reason})
			metrics.RecordEventRejected()
			continue
		}

		key := ev.NaturalKey()
		if s.deduper.SeenAndRecord(ctx, key) {
			report.Deduplicated++
			metrics.RecordEventDuplicate()
			continue
		}

		inserted, err := s.store.AppendEvent(ctx, ev)
		if err != nil {
			s.deduper.Unrecord(ctx, key)
			report.Rejected++
			report.Errors = append(report.Errors, ItemError{Index: i, Reason: err.Error()})
			metrics.RecordEventRejected()
			continue
		}
		if !inserted {
			// The unique index saw this key before the cache did.
			report.Deduplicated++
			metrics.RecordEventDuplicate()
			continue
		}

		report.Accepted++
		metrics.RecordEventAccepted()
		touched[ev.CandidateSlug] = struct{}{}
	}

	for slug := range touched {
		s.EnqueueRecompute(ctx, slug, now)
	}

	s.log.Info(ctx, "batch ingested",
		logger.Int("accepted", report.Accepted),
		logger.Int("rejected", report.Rejected),
		logger.Int("deduplicated", report.Deduplicated),
	)
	return report, nil
}

// validateItem checks one batch item and converts it to an event. An empty
// reason means the item is valid.
func (s *Service) validateItem(ctx context.Context, item IngestItem, now time.Time, skew time.Duration) (model.Event, string) {
	typ := model.SignalType(item.Type)
	if !typ.Valid() {
		return model.Event{}, fmt.Sprintf("unknown signal type %q", item.Type)
	}
	if item.Value < 0 {
		return model.Event{}, "value must be non-negative"
	}
	if item.OccurredAt.IsZero() {
		return model.Event{}, "occurred_at is required"
	}
	if item.OccurredAt.After(now.Add(skew)) {
		return model.Event{}, "occurred_at is in the future"
	}
	if _, err := s.store.GetCandidate(ctx, item.CandidateSlug); err != nil {
		return model.Event{}, fmt.Sprintf("unknown candidate %q", item.CandidateSlug)
	}
	return model.Event{
		CandidateSlug: item.CandidateSlug,
		Type:          typ,
		Value:         item.Value,
		Source:        item.Source,
		OccurredAt:    item.OccurredAt,
		IngestedAt:    now,
	}, ""
}

// EnqueueRecompute schedules an asynchronous score recomputation. A false
// return means a job for the candidate is already queued or running, which
// the newer events will ride along with at execution time.
func (s *Service) EnqueueRecompute(ctx context.Context, slug string, asOf time.Time) bool {
	return s.queue.Enqueue(ctx, queue.Job{
		RunID:         uuid.NewString(),
		CandidateSlug: slug,
		AsOf:          asOf,
	})
}
