// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists session outcomes to a SQLite index under the
// results tree, so finished runs stay queryable without re-reading
// artifact files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dockmate/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "dockmate.db"
)

// Store manages the results SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the results database at
// resultsDir/index/dockmate.db, creating the schema if it does not exist.
func NewStore(resultsDir string) (*Store, error) {
	dbDir := filepath.Join(resultsDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxResults: 20}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			receptor_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			pockets TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cells (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			ligand_id TEXT NOT NULL,
			pocket_rank INTEGER NOT NULL,
			state TEXT NOT NULL,
			reason TEXT,
			artifact_path TEXT,
			best_affinity REAL,
			PRIMARY KEY (session_id, ligand_id, pocket_rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cells_ligand ON cells(ligand_id)`,
		`CREATE TABLE IF NOT EXISTS poses (
			session_id TEXT NOT NULL,
			ligand_id TEXT NOT NULL,
			pocket_rank INTEGER NOT NULL,
			mode INTEGER NOT NULL,
			affinity REAL NOT NULL,
			rmsd_lb REAL NOT NULL,
			rmsd_ub REAL NOT NULL,
			PRIMARY KEY (session_id, ligand_id, pocket_rank, mode),
			FOREIGN KEY (session_id, ligand_id, pocket_rank)
				REFERENCES cells(session_id, ligand_id, pocket_rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_poses_affinity ON poses(affinity)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordSession writes one finished session, its cells, and all poses in
// a single transaction. Re-recording the same session id replaces the
// earlier rows.
func (s *Store) RecordSession(ctx context.Context, session *types.SessionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM poses WHERE session_id = ?`, session.SessionID); err != nil {
		return fmt.Errorf("clearing old poses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE session_id = ?`, session.SessionID); err != nil {
		return fmt.Errorf("clearing old cells: %w", err)
	}

	pocketsJSON, _ := json.Marshal(session.Pockets)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, receptor_id, started_at, pockets)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			receptor_id=excluded.receptor_id, started_at=excluded.started_at,
			pockets=excluded.pockets`,
		session.SessionID, session.ReceptorID,
		session.StartedAt.UTC().Format(time.RFC3339Nano), string(pocketsJSON),
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	cellStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (session_id, ligand_id, pocket_rank, state, reason, artifact_path, best_affinity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cell insert: %w", err)
	}
	defer cellStmt.Close()

	poseStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO poses (session_id, ligand_id, pocket_rank, mode, affinity, rmsd_lb, rmsd_ub)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing pose insert: %w", err)
	}
	defer poseStmt.Close()

	for _, cell := range session.Cells {
		_, err := cellStmt.ExecContext(ctx,
			session.SessionID, cell.LigandID, cell.PocketRank,
			string(cell.State), cell.Reason, cell.ArtifactPath, cell.BestAffinity,
		)
		if err != nil {
			return fmt.Errorf("inserting cell %s/%d: %w", cell.LigandID, cell.PocketRank, err)
		}

		if cell.Result == nil {
			continue
		}
		for _, pose := range cell.Result.Poses {
			_, err := poseStmt.ExecContext(ctx,
				session.SessionID, cell.LigandID, cell.PocketRank,
				pose.Mode, pose.Affinity, pose.RMSDLB, pose.RMSDUB,
			)
			if err != nil {
				return fmt.Errorf("inserting pose %s/%d/%d: %w", cell.LigandID, cell.PocketRank, pose.Mode, err)
			}
		}
	}

	return tx.Commit()
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	SessionID  string    `json:"session_id" yaml:"session_id"`
	ReceptorID string    `json:"receptor_id" yaml:"receptor_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	Succeeded  int       `json:"succeeded" yaml:"succeeded"`
	Failed     int       `json:"failed" yaml:"failed"`
}

// ListSessions returns recorded sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.receptor_id, s.started_at,
			COUNT(CASE WHEN c.state = 'succeeded' THEN 1 END),
			COUNT(CASE WHEN c.state = 'failed' THEN 1 END)
		FROM sessions s
		LEFT JOIN cells c ON c.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var (
			sum       SessionSummary
			startedAt string
		)
		if err := rows.Scan(&sum.SessionID, &sum.ReceptorID, &startedAt, &sum.Succeeded, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			sum.StartedAt = t
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// QueryOptions filters pose queries.
type QueryOptions struct {
	// ReceptorID restricts to sessions run against one receptor.
	ReceptorID string

	// LigandID restricts to one ligand.
	LigandID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// PoseRecord is one pose with its originating cell context.
type PoseRecord struct {
	SessionID  string  `json:"session_id" yaml:"session_id"`
	ReceptorID string  `json:"receptor_id" yaml:"receptor_id"`
	LigandID   string  `json:"ligand_id" yaml:"ligand_id"`
	PocketRank int     `json:"pocket_rank" yaml:"pocket_rank"`
	Mode       int     `json:"mode" yaml:"mode"`
	Affinity   float64 `json:"affinity" yaml:"affinity"`
	Artifact   string  `json:"artifact" yaml:"artifact"`
}

// BestPoses returns recorded poses ordered by affinity, most favorable
// (most negative) first, with optional receptor and ligand filters.
func (s *Store) BestPoses(ctx context.Context, opts QueryOptions) ([]PoseRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT p.session_id, s.receptor_id, p.ligand_id, p.pocket_rank,
			p.mode, p.affinity, c.artifact_path
		FROM poses p
		JOIN sessions s ON s.id = p.session_id
		JOIN cells c ON c.session_id = p.session_id
			AND c.ligand_id = p.ligand_id AND c.pocket_rank = p.pocket_rank
		WHERE 1=1`)

	if opts.ReceptorID != "" {
		qb.WriteString(` AND s.receptor_id = ?`)
		args = append(args, opts.ReceptorID)
	}
	if opts.LigandID != "" {
		qb.WriteString(` AND p.ligand_id = ?`)
		args = append(args, opts.LigandID)
	}

	qb.WriteString(` ORDER BY p.affinity ASC LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying poses: %w", err)
	}
	defer rows.Close()

	var records []PoseRecord
	for rows.Next() {
		var (
			rec      PoseRecord
			artifact sql.NullString
		)
		if err := rows.Scan(
			&rec.SessionID, &rec.ReceptorID, &rec.LigandID, &rec.PocketRank,
			&rec.Mode, &rec.Affinity, &artifact,
		); err != nil {
			return nil, fmt.Errorf("scanning pose row: %w", err)
		}
		if artifact.Valid {
			rec.Artifact = artifact.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
