// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that download structures.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "dockmate/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the structure fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// MaxRetries bounds retry attempts on throttled responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ToolchainConfig carries path overrides for the external chemistry tools.
// Empty fields fall back to a PATH lookup of the conventional binary name.
type ToolchainConfig struct {
	// Obabel is the Open Babel binary (format conversion, 3D generation).
	Obabel string `json:"obabel" yaml:"obabel"`

	// MGLPython is the MGLTools python interpreter used to run the
	// AutoDockTools preparation scripts.
	MGLPython string `json:"mgl_python" yaml:"mgl_python"`

	// PrepareReceptorScript is the path to prepare_receptor4.py.
	PrepareReceptorScript string `json:"prepare_receptor_script" yaml:"prepare_receptor_script"`

	// PrepareLigandScript is the path to prepare_ligand4.py.
	PrepareLigandScript string `json:"prepare_ligand_script" yaml:"prepare_ligand_script"`

	// Prank is the P2Rank launcher binary.
	Prank string `json:"prank" yaml:"prank"`

	// Vina is the AutoDock Vina binary.
	Vina string `json:"vina" yaml:"vina"`
}

// ReceptorPrepConfig holds receptor preparation options.
type ReceptorPrepConfig struct {
	// PH is the protonation pH when hydrogens are added (default 7.4).
	PH float64 `json:"ph" yaml:"ph"`

	// AddHydrogens adds hydrogens during preparation (default true).
	AddHydrogens bool `json:"add_hydrogens" yaml:"add_hydrogens"`

	// RemoveWaters strips water molecules before charge assignment
	// (default true).
	RemoveWaters bool `json:"remove_waters" yaml:"remove_waters"`
}

// LigandPrepConfig holds ligand preparation options.
type LigandPrepConfig struct {
	// AddHydrogens adds hydrogens during preparation (default true).
	AddHydrogens bool `json:"add_hydrogens" yaml:"add_hydrogens"`

	// Minimize performs energy minimization before charge assignment
	// (default true for ligands).
	Minimize bool `json:"minimize" yaml:"minimize"`

	// Forcefield selects the minimization forcefield: mmff94, mmff94s,
	// uff, or gaff (default mmff94). Ignored when Minimize is false.
	Forcefield string `json:"forcefield" yaml:"forcefield"`

	// RemoveNonPolarH merges non-polar hydrogens (default true).
	RemoveNonPolarH bool `json:"remove_nonpolar_h" yaml:"remove_nonpolar_h"`

	// RemoveLonePairs strips lone-pair pseudo atoms (default true).
	RemoveLonePairs bool `json:"remove_lone_pairs" yaml:"remove_lone_pairs"`

	// RemoveWaters strips water molecules (default true).
	RemoveWaters bool `json:"remove_waters" yaml:"remove_waters"`
}

// DetectConfig holds pocket detection options.
type DetectConfig struct {
	// MaxPockets limits how many pockets are reported. Zero reports all.
	MaxPockets int `json:"max_pockets" yaml:"max_pockets"`

	// MinScore drops pockets below this confidence score. Zero applies
	// no threshold.
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// Threads is the detector's worker thread count (default CPU count).
	Threads int `json:"threads" yaml:"threads"`
}

// EngineConfig holds per-run docking engine parameters.
type EngineConfig struct {
	// Size is the search box dimensions (default 40×40×40).
	Size Vec3 `json:"size" yaml:"size"`

	// Exhaustiveness controls search thoroughness (default 8).
	Exhaustiveness int `json:"exhaustiveness" yaml:"exhaustiveness"`

	// NumModes is the number of binding modes to generate (default 9).
	NumModes int `json:"num_modes" yaml:"num_modes"`

	// CPU is the engine's internal thread count (default CPU count).
	CPU int `json:"cpu" yaml:"cpu"`

	// Seed fixes the engine's random seed for reproducibility. Zero lets
	// the engine choose.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Margin is the safety margin added to the ligand extent when
	// validating box size (default 2.0).
	Margin float64 `json:"margin" yaml:"margin"`
}

// DockingConfig holds orchestration options for one session.
type DockingConfig struct {
	EngineConfig `yaml:",inline"`

	// ClearTemp clears the workspace temp tree before the session starts.
	ClearTemp bool `json:"clear_temp" yaml:"clear_temp"`

	// ManualCenter, when set, bypasses pocket detection and docks into a
	// single synthetic pocket at this center.
	ManualCenter *Vec3 `json:"manual_center,omitempty" yaml:"manual_center,omitempty"`

	// CellTimeout bounds one engine invocation's wall-clock time. Zero
	// means no limit; expiry fails that cell only.
	CellTimeout time.Duration `json:"cell_timeout" yaml:"cell_timeout"`
}

// WorkspaceConfig locates the working directory tree.
type WorkspaceConfig struct {
	// Root is the workspace root (default "workspace").
	Root string `json:"root" yaml:"root"`

	// ResultsDir is the results root (default "results").
	ResultsDir string `json:"results_dir" yaml:"results_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch     FetchConfig        `json:"fetch" yaml:"fetch"`
	Toolchain ToolchainConfig    `json:"toolchain" yaml:"toolchain"`
	Receptor  ReceptorPrepConfig `json:"receptor" yaml:"receptor"`
	Ligand    LigandPrepConfig   `json:"ligand" yaml:"ligand"`
	Detect    DetectConfig       `json:"detect" yaml:"detect"`
	Docking   DockingConfig      `json:"docking" yaml:"docking"`
	Workspace WorkspaceConfig    `json:"workspace" yaml:"workspace"`
}
