package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/radar/internal/domain/model"
)

// SaveRun implements ScoreStore. One computation run persists atomically:
// every momentum row plus the composite referencing them, or nothing. A
// half-computed score must never become visible.
func (s *SQLiteStore) SaveRun(ctx context.Context, momenta []model.MomentumScore, composite model.CompositeScore) (model.CompositeScore, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return model.CompositeScore{}, fmt.Errorf("starting run transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	momentumIDs := make([]int64, 0, len(momenta))
	for i := range momenta {
		m := &momenta[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO momentum_scores (candidate_slug, signal_type, window_days, decayed_value, event_count, computed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.CandidateSlug, string(m.SignalType), m.WindowDays, m.DecayedValue, m.EventCount, fmtTime(m.ComputedAt),
		)
		if err != nil {
			return model.CompositeScore{}, fmt.Errorf("saving momentum: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.CompositeScore{}, fmt.Errorf("saving momentum: %w", err)
		}
		m.ID = id
		momentumIDs = append(momentumIDs, id)
	}

	composite.ContributingMomentumIDs = momentumIDs
	res, err := tx.ExecContext(ctx,
		`INSERT INTO composite_scores (candidate_slug, run_id, composite, breakout_probability, low_confidence, computed_at, momentum_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		composite.CandidateSlug, composite.RunID, composite.Composite, composite.BreakoutProbability,
		boolToInt(composite.LowConfidence), fmtTime(composite.ComputedAt), encodeJSON(momentumIDs),
	)
	if err != nil {
		return model.CompositeScore{}, fmt.Errorf("saving composite: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.CompositeScore{}, fmt.Errorf("saving composite: %w", err)
	}
	composite.ID = id

	if err := tx.Commit(); err != nil {
		return model.CompositeScore{}, fmt.Errorf("committing run: %w", err)
	}
	return composite, nil
}

// LatestComposite implements ScoreStore.
func (s *SQLiteStore) LatestComposite(ctx context.Context, slug string) (model.CompositeScore, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, candidate_slug, run_id, composite, breakout_probability, low_confidence, computed_at, momentum_ids
		FROM composite_scores WHERE candidate_slug = ?
		ORDER BY computed_at DESC, id DESC LIMIT 1`, slug,
	)
	c, err := scanComposite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CompositeScore{}, fmt.Errorf("%w: no scores for %s", ErrNotFound, slug)
	}
	return c, err
}

// CompositeHistory implements ScoreStore.
func (s *SQLiteStore) CompositeHistory(ctx context.Context, slug string, days int) ([]model.CompositeScore, error) {
	if days < 1 {
		return nil, ErrInvalidLimit
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, candidate_slug, run_id, composite, breakout_probability, low_confidence, computed_at, momentum_ids
		FROM composite_scores WHERE candidate_slug = ? AND computed_at >= ?
		ORDER BY computed_at, id`,
		slug, fmtTime(cutoff),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComposites(rows)
}

// RecentComposites implements ScoreStore, returning up to n newest rows in
// chronological order.
func (s *SQLiteStore) RecentComposites(ctx context.Context, slug string, n int) ([]model.CompositeScore, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, candidate_slug, run_id, composite, breakout_probability, low_confidence, computed_at, momentum_ids
		FROM composite_scores WHERE candidate_slug = ?
		ORDER BY computed_at DESC, id DESC LIMIT ?`,
		slug, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	scores, err := scanComposites(rows)
	if err != nil {
		return nil, err
	}
	// Flip newest-first into chronological order.
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
	return scores, nil
}

func scanComposites(rows *sql.Rows) ([]model.CompositeScore, error) {
	var scores []model.CompositeScore
	for rows.Next() {
		var c model.CompositeScore
		var lowConf int
		var computed, ids string
		if err := rows.Scan(&c.ID, &c.CandidateSlug, &c.RunID, &c.Composite, &c.BreakoutProbability, &lowConf, &computed, &ids); err != nil {
			return nil, err
		}
		c.LowConfidence = lowConf != 0
		c.ComputedAt = parseTime(computed)
		if err := json.Unmarshal([]byte(ids), &c.ContributingMomentumIDs); err != nil {
			c.ContributingMomentumIDs = nil
		}
		scores = append(scores, c)
	}
	return scores, rows.Err()
}

func scanComposite(row *sql.Row) (model.CompositeScore, error) {
	var c model.CompositeScore
	var lowConf int
	var computed, ids string
	if err := row.Scan(&c.ID, &c.CandidateSlug, &c.RunID, &c.Composite, &c.BreakoutProbability, &lowConf, &computed, &ids); err != nil {
		return model.CompositeScore{}, err
	}
	c.LowConfidence = lowConf != 0
	c.ComputedAt = parseTime(computed)
	if err := json.Unmarshal([]byte(ids), &c.ContributingMomentumIDs); err != nil {
		c.ContributingMomentumIDs = nil
	}
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
