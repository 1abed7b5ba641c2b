package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/radar/internal/domain/model"
)

// SaveInsight implements InsightStore.
func (s *SQLiteStore) SaveInsight(ctx context.Context, ins model.Insight) (model.Insight, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO insights (owner_id, candidate_slug, kind, magnitude, narrative, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ins.OwnerID, ins.CandidateSlug, string(ins.Kind), ins.Magnitude, ins.Narrative, fmtTime(ins.CreatedAt),
	)
	if err != nil {
		return model.Insight{}, fmt.Errorf("saving insight: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Insight{}, fmt.Errorf("saving insight: %w", err)
	}
	ins.ID = id
	return ins, nil
}

// LatestInsight implements InsightStore.
func (s *SQLiteStore) LatestInsight(ctx context.Context, ownerID, slug string) (model.Insight, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, candidate_slug, kind, magnitude, narrative, created_at
		FROM insights WHERE owner_id = ? AND candidate_slug = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		ownerID, slug,
	)
	var ins model.Insight
	var kind, created string
	if err := row.Scan(&ins.ID, &ins.OwnerID, &ins.CandidateSlug, &kind, &ins.Magnitude, &ins.Narrative, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Insight{}, fmt.Errorf("%w: no insights for %s", ErrNotFound, slug)
		}
		return model.Insight{}, err
	}
	ins.Kind = model.InsightKind(kind)
	ins.CreatedAt = parseTime(created)
	return ins, nil
}

// ListInsights implements InsightStore, newest first.
func (s *SQLiteStore) ListInsights(ctx context.Context, ownerID string, limit int) ([]model.Insight, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, owner_id, candidate_slug, kind, magnitude, narrative, created_at
		FROM insights WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var ins model.Insight
		var kind, created string
		if err := rows.Scan(&ins.ID, &ins.OwnerID, &ins.CandidateSlug, &kind, &ins.Magnitude, &ins.Narrative, &created); err != nil {
			return nil, err
		}
		ins.Kind = model.InsightKind(kind)
		ins.CreatedAt = parseTime(created)
		insights = append(insights, ins)
	}
	return insights, rows.Err()
}
