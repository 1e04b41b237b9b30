// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchBox defines where and how the docking engine searches for poses.
// It is constructed fresh per docking invocation from a pocket center (or a
// manually supplied center) plus the session's search parameters.
type SearchBox struct {
	// Center is the box center in receptor coordinates.
	Center Vec3 `json:"center" yaml:"center"`

	// Size holds the box dimensions; each component must be positive and
	// large enough to enclose the ligand extent plus a safety margin.
	Size Vec3 `json:"size" yaml:"size"`

	// Exhaustiveness controls search thoroughness (default 8).
	Exhaustiveness int `json:"exhaustiveness" yaml:"exhaustiveness"`

	// NumModes is the requested number of output binding modes (default 9).
	NumModes int `json:"num_modes" yaml:"num_modes"`
}

// Pose is one ranked binding mode from a docking run. Mode is 1-based and
// poses are ordered best-first by ascending affinity.
type Pose struct {
	Mode     int     `json:"mode" yaml:"mode"`
	Affinity float64 `json:"affinity_kcal_mol" yaml:"affinity_kcal_mol"`
	RMSDLB   float64 `json:"rmsd_lb" yaml:"rmsd_lb"`
	RMSDUB   float64 `json:"rmsd_ub" yaml:"rmsd_ub"`
}

// DockingResult holds the outcome of one engine invocation plus its
// provenance. PosePath and LogPath point at the engine's working copies;
// the orchestrator persists them to their final destination.
type DockingResult struct {
	ReceptorID string `json:"receptor_id" yaml:"receptor_id"`
	LigandID   string `json:"ligand_id" yaml:"ligand_id"`
	PocketRank int    `json:"pocket_rank" yaml:"pocket_rank"`

	Box   SearchBox `json:"box" yaml:"box"`
	Poses []Pose    `json:"poses" yaml:"poses"`

	// PosePath is the multi-model PDBQT with the docked conformations.
	PosePath string `json:"pose_path" yaml:"pose_path"`

	// LogPath is the engine's textual score log.
	LogPath string `json:"log_path" yaml:"log_path"`
}

// BestAffinity returns the affinity of the top-ranked pose, or 0 when the
// result carries no poses.
func (r *DockingResult) BestAffinity() float64 {
	if len(r.Poses) == 0 {
		return 0
	}
	return r.Poses[0].Affinity
}
