// Package store persists the search tree in a single SQLite file keyed by
// each node's canonical sentence string. It is the only component that
// knows about database/sql; everything else in this module deals in
// NodeRecord values.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Status codes stored in the node table's status column.
const (
	StatusOpen        = 0
	StatusHardInvalid = 1
	StatusExcluded    = 7
)

// NodeRecord is one row of the persisted search tree: a sentence, its
// parent, and the bookkeeping the selection/backprop loop needs to revisit
// it without recomputing ancestry from scratch.
type NodeRecord struct {
	Sentence       string
	Parent         string
	Score          float64
	Cumulative     float64
	MeanDescendant float64
	Visits         int64
	Status         int
}

// Store wraps a *sql.DB opened against a single SQLite file.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if necessary) the SQLite database at path. Callers
// are expected to have already run migrations via Migrate.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// The search loop is single-writer by design (one rollout's backprop
	// pass at a time); SQLite's single-writer model is a good fit, but we
	// still cap the pool so two concurrent readers can't wedge a writer
	// behind a busy-timeout storm.
	db.SetMaxOpenConns(8)
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for callers that need a raw handle.
// Migrate does not use it; it opens the database by path.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Get returns the node stored under sentence, or ok=false if none exists.
func (s *Store) Get(ctx context.Context, sentence string) (NodeRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node WHERE sentence = ?`, sentence)
	var rec NodeRecord
	if err := row.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
		if err == sql.ErrNoRows {
			return NodeRecord{}, false, nil
		}
		return NodeRecord{}, false, fmt.Errorf("store: get %q: %w", sentence, err)
	}
	return rec, true, nil
}

// Put inserts or updates a node in a single statement (I1/I2 are the
// caller's responsibility - Put just persists whatever it's given).
func (s *Store) Put(ctx context.Context, rec NodeRecord) error {
	return s.put(ctx, s.db, rec)
}

func (s *Store) put(ctx context.Context, q querier, rec NodeRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO node (sentence, parent, score, cumulative, mean_descendant, visits, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sentence) DO UPDATE SET
			parent = excluded.parent,
			score = excluded.score,
			cumulative = excluded.cumulative,
			mean_descendant = excluded.mean_descendant,
			visits = excluded.visits,
			status = excluded.status
	`, rec.Sentence, rec.Parent, rec.Score, rec.Cumulative, rec.MeanDescendant, rec.Visits, rec.Status)
	if err != nil {
		return fmt.Errorf("store: put %q: %w", rec.Sentence, err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting put run inside
// or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ChildrenOf returns every immediate child of parent: nodes whose sentence
// is parent plus exactly one more token.
func (s *Store) ChildrenOf(ctx context.Context, parent string) ([]NodeRecord, error) {
	prefix := parent + " "
	if parent == "" {
		prefix = ""
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node WHERE parent = ?`, parent)
	if err != nil {
		return nil, fmt.Errorf("store: children of %q: %w", parent, err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		if err := rows.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
			return nil, fmt.Errorf("store: scan child of %q: %w", parent, err)
		}
		if !strings.HasPrefix(rec.Sentence, prefix) && rec.Sentence != parent {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// All returns every persisted node, in no particular order. Used by
// whole-tree scans such as `prune`, where there is no single prefix to
// restrict the search to.
func (s *Store) All(ctx context.Context) ([]NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node`)
	if err != nil {
		return nil, fmt.Errorf("store: all: %w", err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		if err := rows.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
			return nil, fmt.Errorf("store: scan all: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Descendants returns every node whose sentence extends parent by one or
// more tokens.
func (s *Store) Descendants(ctx context.Context, parent string) ([]NodeRecord, error) {
	pattern := parent + " %"
	if parent == "" {
		pattern = "_%"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node WHERE sentence LIKE ?`, pattern)
	if err != nil {
		return nil, fmt.Errorf("store: descendants of %q: %w", parent, err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		if err := rows.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
			return nil, fmt.Errorf("store: scan descendant of %q: %w", parent, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Demographics summarizes the immediate children of a node by status, for
// the `candidates` CLI verb and the TUI's tree inspector.
type Demographics struct {
	Total    int
	Open     int
	Invalid  int
	Excluded int
}

// ChildrenDemographics reports a status breakdown of parent's immediate
// children without materializing every child record.
func (s *Store) ChildrenDemographics(ctx context.Context, parent string) (Demographics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM node WHERE parent = ? GROUP BY status`, parent)
	if err != nil {
		return Demographics{}, fmt.Errorf("store: demographics of %q: %w", parent, err)
	}
	defer rows.Close()

	var d Demographics
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			return Demographics{}, fmt.Errorf("store: scan demographics of %q: %w", parent, err)
		}
		d.Total += count
		switch status {
		case StatusOpen:
			d.Open += count
		case StatusHardInvalid:
			d.Invalid += count
		case StatusExcluded:
			d.Excluded += count
		}
	}
	return d, rows.Err()
}

// TopChildren returns up to limit open-status immediate children of parent,
// ordered by score descending.
func (s *Store) TopChildren(ctx context.Context, parent string, limit int) ([]NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node
		WHERE parent = ? AND status = ?
		ORDER BY score DESC
		LIMIT ?`, parent, StatusOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("store: top children of %q: %w", parent, err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		if err := rows.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
			return nil, fmt.Errorf("store: scan top child of %q: %w", parent, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SampleWeighted returns every open-status node at or beneath prefix (the
// candidate subtree the search loop is allowed to pick a new frontier node
// from). The caller does the actual weighted draw so it can use its own
// PRNG; this keeps Store free of any randomness and therefore trivially
// deterministic to test.
func (s *Store) SampleWeighted(ctx context.Context, prefix string) ([]NodeRecord, error) {
	pattern := prefix + " %"
	if prefix == "" {
		pattern = "_%"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node
		WHERE status = ? AND (sentence = ? OR sentence LIKE ?)`,
		StatusOpen, prefix, pattern)
	if err != nil {
		return nil, fmt.Errorf("store: sample weighted under %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		if err := rows.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
			return nil, fmt.Errorf("store: scan sample under %q: %w", prefix, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TopDescendants returns up to limit open-status descendants of parent,
// ordered by mean_descendant score descending (best first).
func (s *Store) TopDescendants(ctx context.Context, parent string, limit int) ([]NodeRecord, error) {
	pattern := parent + " %"
	if parent == "" {
		pattern = "_%"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM node
		WHERE sentence LIKE ? AND status = ?
		ORDER BY mean_descendant DESC
		LIMIT ?`, pattern, StatusOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("store: top descendants of %q: %w", parent, err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		if err := rows.Scan(&rec.Sentence, &rec.Parent, &rec.Score, &rec.Cumulative, &rec.MeanDescendant, &rec.Visits, &rec.Status); err != nil {
			return nil, fmt.Errorf("store: scan top descendant of %q: %w", parent, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Trim marks root as status and deletes every strict descendant of root.
// It mirrors the Python implementation's two-phase semantics: -1 is
// returned in place of a count when no modification was necessary, so that
// repeated trims of an already-trimmed root are visibly idempotent rather
// than silently re-reported as fresh work.
func (s *Store) Trim(ctx context.Context, root string, status int) (modified, deleted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("store: trim %q: begin: %w", root, err)
	}
	defer tx.Rollback()

	var currentStatus int
	err = tx.QueryRowContext(ctx, `SELECT status FROM node WHERE sentence = ?`, root).Scan(&currentStatus)
	switch {
	case err == sql.ErrNoRows:
		return 0, 0, nil
	case err != nil:
		return 0, 0, fmt.Errorf("store: trim %q: lookup: %w", root, err)
	}

	if currentStatus == status {
		modified = -1
	} else {
		res, err := tx.ExecContext(ctx, `UPDATE node SET status = ? WHERE sentence = ?`, status, root)
		if err != nil {
			return 0, 0, fmt.Errorf("store: trim %q: update: %w", root, err)
		}
		n, _ := res.RowsAffected()
		modified = int(n)
	}

	pattern := root + " %"
	if root == "" {
		pattern = "_%"
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM node WHERE sentence LIKE ?`, pattern)
	if err != nil {
		return 0, 0, fmt.Errorf("store: trim %q: delete: %w", root, err)
	}
	n, _ := res.RowsAffected()
	deleted = int(n)
	if deleted == 0 {
		deleted = -1
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("store: trim %q: commit: %w", root, err)
	}
	return modified, deleted, nil
}

// Len returns the total number of persisted nodes.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM node`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: len: %w", err)
	}
	return n, nil
}

// Rollout persists an entire selection-expansion-backprop pass atomically:
// every record in path is upserted in one transaction, so a crash mid-pass
// leaves either the old tree or the fully updated one, never a partial
// write with a child but no updated ancestor scores.
func (s *Store) Rollout(ctx context.Context, path []NodeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: rollout: begin: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range path {
		if err := s.put(ctx, tx, rec); err != nil {
			return fmt.Errorf("store: rollout: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: rollout: commit: %w", err)
	}
	return nil
}
