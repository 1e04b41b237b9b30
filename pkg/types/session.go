// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CellState tracks one (ligand, pocket) cell of the execution matrix.
type CellState string

const (
	CellPending   CellState = "pending"
	CellSucceeded CellState = "succeeded"
	CellFailed    CellState = "failed"
)

// Cell is one unit of the ligand×pocket matrix with its outcome. A cell
// whose ligand failed preparation is marked failed without ever invoking
// the engine.
type Cell struct {
	LigandID   string    `json:"ligand_id" yaml:"ligand_id"`
	PocketRank int       `json:"pocket_rank" yaml:"pocket_rank"`
	State      CellState `json:"state" yaml:"state"`

	// Reason describes the failure cause for failed cells.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// ArtifactPath is the persisted pose artifact for succeeded cells.
	ArtifactPath string `json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`

	// BestAffinity is the top pose affinity for succeeded cells.
	BestAffinity float64 `json:"best_affinity,omitempty" yaml:"best_affinity,omitempty"`

	// Result holds the full docking output for succeeded cells; omitted
	// from the persisted session report.
	Result *DockingResult `json:"-" yaml:"-"`
}

// SessionResult aggregates one orchestration session: which receptor ran,
// the pockets used, and the status of every matrix cell.
type SessionResult struct {
	SessionID  string    `json:"session_id" yaml:"session_id"`
	ReceptorID string    `json:"receptor_id" yaml:"receptor_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`

	Pockets []Pocket `json:"pockets" yaml:"pockets"`
	Cells   []Cell   `json:"cells" yaml:"cells"`
}

// Succeeded counts cells that produced a persisted result.
func (s *SessionResult) Succeeded() int {
	n := 0
	for _, c := range s.Cells {
		if c.State == CellSucceeded {
			n++
		}
	}
	return n
}

// Failed counts cells that did not produce a result.
func (s *SessionResult) Failed() int {
	n := 0
	for _, c := range s.Cells {
		if c.State == CellFailed {
			n++
		}
	}
	return n
}

// AllFailed reports whether every cell in a non-empty matrix failed. A
// session with failures still exits with partial success unless this holds.
func (s *SessionResult) AllFailed() bool {
	return len(s.Cells) > 0 && s.Failed() == len(s.Cells)
}
