package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/radar/internal/domain/model"
)

// CreateCollection implements CollectionStore.
func (s *SQLiteStore) CreateCollection(ctx context.Context, c model.Collection) (model.Collection, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO collections (owner_id, kind, name, created_at) VALUES (?, ?, ?, ?)`,
		c.OwnerID, string(c.Kind), c.Name, fmtTime(c.CreatedAt),
	)
	if err != nil {
		return model.Collection{}, fmt.Errorf("creating collection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Collection{}, fmt.Errorf("creating collection: %w", err)
	}
	c.ID = id
	return c, nil
}

// GetCollection implements CollectionStore, returning the collection and
// its members ordered by position.
func (s *SQLiteStore) GetCollection(ctx context.Context, id int64) (model.Collection, []model.CollectionMember, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, kind, name, created_at FROM collections WHERE id = ?`, id,
	)
	var c model.Collection
	var kind, created string
	if err := row.Scan(&c.ID, &c.OwnerID, &kind, &c.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Collection{}, nil, fmt.Errorf("%w: collection %d", ErrNotFound, id)
		}
		return model.Collection{}, nil, err
	}
	c.Kind = model.CollectionKind(kind)
	c.CreatedAt = parseTime(created)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT collection_id, candidate_slug, position, notes, added_at
		FROM collection_members WHERE collection_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return model.Collection{}, nil, err
	}
	defer rows.Close()

	var members []model.CollectionMember
	for rows.Next() {
		var m model.CollectionMember
		var added string
		if err := rows.Scan(&m.CollectionID, &m.CandidateSlug, &m.Position, &m.Notes, &added); err != nil {
			return model.Collection{}, nil, err
		}
		m.AddedAt = parseTime(added)
		members = append(members, m)
	}
	return c, members, rows.Err()
}

// ListCollections implements CollectionStore.
func (s *SQLiteStore) ListCollections(ctx context.Context, ownerID string) ([]model.Collection, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, owner_id, kind, name, created_at FROM collections WHERE owner_id = ? ORDER BY id`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []model.Collection
	for rows.Next() {
		var c model.Collection
		var kind, created string
		if err := rows.Scan(&c.ID, &c.OwnerID, &kind, &c.Name, &created); err != nil {
			return nil, err
		}
		c.Kind = model.CollectionKind(kind)
		c.CreatedAt = parseTime(created)
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// AddMember implements CollectionStore, appending at the end of the order.
func (s *SQLiteStore) AddMember(ctx context.Context, collectionID int64, slug, notes string) (model.CollectionMember, error) {
	if _, _, err := s.GetCollection(ctx, collectionID); err != nil {
		return model.CollectionMember{}, err
	}
	if _, err := s.GetCandidate(ctx, slug); err != nil {
		return model.CollectionMember{}, err
	}

	var next int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM collection_members WHERE collection_id = ?`, collectionID,
	).Scan(&next)
	if err != nil {
		return model.CollectionMember{}, fmt.Errorf("assigning position: %w", err)
	}

	m := model.CollectionMember{
		CollectionID:  collectionID,
		CandidateSlug: slug,
		Position:      next,
		Notes:         notes,
		AddedAt:       time.Now(),
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO collection_members (collection_id, candidate_slug, position, notes, added_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.CollectionID, m.CandidateSlug, m.Position, m.Notes, fmtTime(m.AddedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.CollectionMember{}, fmt.Errorf("%w: %s in collection %d", ErrAlreadyExists, slug, collectionID)
		}
		return model.CollectionMember{}, fmt.Errorf("adding member: %w", err)
	}
	return m, nil
}

// RemoveMember implements CollectionStore.
func (s *SQLiteStore) RemoveMember(ctx context.Context, collectionID int64, slug string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM collection_members WHERE collection_id = ? AND candidate_slug = ?`,
		collectionID, slug,
	)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s in collection %d", ErrNotFound, slug, collectionID)
	}
	return nil
}

// SwapPositions implements CollectionStore as a transactional two-row swap.
func (s *SQLiteStore) SwapPositions(ctx context.Context, collectionID int64, slugA, slugB string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting swap transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	posA, err := memberPosition(ctx, tx, collectionID, slugA)
	if err != nil {
		return err
	}
	posB, err := memberPosition(ctx, tx, collectionID, slugB)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE collection_members SET position = ? WHERE collection_id = ? AND candidate_slug = ?`,
		posB, collectionID, slugA,
	); err != nil {
		return fmt.Errorf("swapping positions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE collection_members SET position = ? WHERE collection_id = ? AND candidate_slug = ?`,
		posA, collectionID, slugB,
	); err != nil {
		return fmt.Errorf("swapping positions: %w", err)
	}
	return tx.Commit()
}

func memberPosition(ctx context.Context, tx *sql.Tx, collectionID int64, slug string) (int, error) {
	var pos int
	err := tx.QueryRowContext(ctx,
		`SELECT position FROM collection_members WHERE collection_id = ? AND candidate_slug = ?`,
		collectionID, slug,
	).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s in collection %d", ErrNotFound, slug, collectionID)
	}
	return pos, err
}
