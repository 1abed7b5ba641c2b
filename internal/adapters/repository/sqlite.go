package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/radar/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	slug       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	tags       TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_slug TEXT NOT NULL REFERENCES candidates(slug),
	type           TEXT NOT NULL,
	value          REAL NOT NULL,
	source         TEXT NOT NULL,
	occurred_at    TEXT NOT NULL,
	ingested_at    TEXT NOT NULL,
	UNIQUE(candidate_slug, type, source, occurred_at)
);

CREATE INDEX IF NOT EXISTS idx_events_candidate ON events(candidate_slug, occurred_at);

CREATE TABLE IF NOT EXISTS momentum_scores (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_slug TEXT NOT NULL REFERENCES candidates(slug),
	signal_type    TEXT NOT NULL,
	window_days    INTEGER NOT NULL,
	decayed_value  REAL NOT NULL,
	event_count    INTEGER NOT NULL DEFAULT 0,
	computed_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_momentum_candidate ON momentum_scores(candidate_slug, computed_at);

CREATE TABLE IF NOT EXISTS composite_scores (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_slug       TEXT NOT NULL REFERENCES candidates(slug),
	run_id               TEXT NOT NULL,
	composite            REAL NOT NULL,
	breakout_probability REAL NOT NULL,
	low_confidence       INTEGER NOT NULL DEFAULT 0,
	computed_at          TEXT NOT NULL,
	momentum_ids         TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_composite_candidate ON composite_scores(candidate_slug, computed_at);

CREATE TABLE IF NOT EXISTS collections (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collection_members (
	collection_id  INTEGER NOT NULL REFERENCES collections(id),
	candidate_slug TEXT NOT NULL REFERENCES candidates(slug),
	position       INTEGER NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	added_at       TEXT NOT NULL,
	PRIMARY KEY (collection_id, candidate_slug)
);

CREATE TABLE IF NOT EXISTS insights (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id       TEXT NOT NULL,
	candidate_slug TEXT NOT NULL REFERENCES candidates(slug),
	kind           TEXT NOT NULL,
	magnitude      REAL NOT NULL,
	narrative      TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_owner ON insights(owner_id, created_at);
`

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// Open creates or opens the SQLite database at the given path and
// bootstraps the schema.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	return &SQLiteStore{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Timestamps are stored as UTC RFC3339Nano strings so that lexical and
// chronological order coincide.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// CreateCandidate implements CandidateStore.
func (s *SQLiteStore) CreateCandidate(ctx context.Context, c model.Candidate) error {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO candidates (slug, name, tags, created_at) VALUES (?, ?, ?, ?)`,
		c.Slug, c.Name, encodeJSON(c.Tags), fmtTime(c.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: candidate %s", ErrAlreadyExists, c.Slug)
		}
		return fmt.Errorf("creating candidate: %w", err)
	}
	return nil
}

// GetCandidate implements CandidateStore.
func (s *SQLiteStore) GetCandidate(ctx context.Context, slug string) (model.Candidate, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT slug, name, tags, created_at FROM candidates WHERE slug = ?`, slug,
	)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Candidate{}, fmt.Errorf("%w: %s", ErrUnknownCandidate, slug)
	}
	return c, err
}

// AddTags implements CandidateStore. Existing tags are preserved;
// duplicates are ignored.
func (s *SQLiteStore) AddTags(ctx context.Context, slug string, tags []string) error {
	c, err := s.GetCandidate(ctx, slug)
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(c.Tags))
	for _, t := range c.Tags {
		existing[t] = struct{}{}
	}
	merged := c.Tags
	for _, t := range tags {
		if _, ok := existing[t]; !ok {
			merged = append(merged, t)
			existing[t] = struct{}{}
		}
	}
	_, err = s.conn.ExecContext(ctx,
		`UPDATE candidates SET tags = ? WHERE slug = ?`, encodeJSON(merged), slug,
	)
	if err != nil {
		return fmt.Errorf("updating tags: %w", err)
	}
	return nil
}

// ListCandidates implements CandidateStore.
func (s *SQLiteStore) ListCandidates(ctx context.Context) ([]model.Candidate, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT slug, name, tags, created_at FROM candidates ORDER BY slug`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

// ListCandidatesByTag implements CandidateStore. Tag filtering happens in
// process; the tags column is a JSON array and the tracked population is
// small relative to the event volume.
func (s *SQLiteStore) ListCandidatesByTag(ctx context.Context, tag string) ([]model.Candidate, error) {
	all, err := s.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Candidate, 0, len(all))
	for _, c := range all {
		for _, t := range c.Tags {
			if t == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// CountCandidates implements CandidateStore.
func (s *SQLiteStore) CountCandidates(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n)
	return n, err
}

// AppendEvent implements EventStore. The unique index on the natural key
// makes re-ingestion conflict-free: the violated constraint is reported as
// inserted=false, never as an error.
func (s *SQLiteStore) AppendEvent(ctx context.Context, e model.Event) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (candidate_slug, type, value, source, occurred_at, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.CandidateSlug, string(e.Type), e.Value, e.Source, fmtTime(e.OccurredAt), fmtTime(e.IngestedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("%w: %s", ErrUnknownCandidate, e.CandidateSlug)
		}
		return false, fmt.Errorf("appending event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("appending event: %w", err)
	}
	return n > 0, nil
}

// EventsForCandidate implements EventStore.
func (s *SQLiteStore) EventsForCandidate(ctx context.Context, slug string, since, until time.Time) ([]model.Event, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, candidate_slug, type, value, source, occurred_at, ingested_at
		FROM events
		WHERE candidate_slug = ? AND occurred_at > ? AND occurred_at <= ?
		ORDER BY occurred_at`,
		slug, fmtTime(since), fmtTime(until),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var typ, occurred, ingested string
		if err := rows.Scan(&e.ID, &e.CandidateSlug, &typ, &e.Value, &e.Source, &occurred, &ingested); err != nil {
			return nil, err
		}
		e.Type = model.SignalType(typ)
		e.OccurredAt = parseTime(occurred)
		e.IngestedAt = parseTime(ingested)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents implements EventStore.
func (s *SQLiteStore) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func scanCandidates(rows *sql.Rows) ([]model.Candidate, error) {
	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var tags, created string
		if err := rows.Scan(&c.Slug, &c.Name, &tags, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			c.Tags = []string{}
		}
		c.CreatedAt = parseTime(created)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func scanCandidate(row *sql.Row) (model.Candidate, error) {
	var c model.Candidate
	var tags, created string
	if err := row.Scan(&c.Slug, &c.Name, &tags, &created); err != nil {
		return model.Candidate{}, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		c.Tags = []string{}
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}

// isUniqueViolation matches SQLite unique-constraint failures without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
