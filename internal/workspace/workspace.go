// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace manages the working directory tree and the
// deterministic, collision-free placement of result artifacts.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/dockmate/pkg/types"
)

const (
	rawDir      = "raw"
	tempDir     = "temp"
	preparedDir = "prepared"
	pocketsDir  = "pockets"
)

// Workspace is the explicit, process-scoped directory state for one
// orchestration session. Result names claimed during the session are
// tracked so a duplicate (receptor, ligand, pocket) triple surfaces as an
// ArtifactCollisionError instead of a silent overwrite.
type Workspace struct {
	root       string
	resultsDir string

	mu      sync.Mutex
	claimed map[string]struct{}
}

// New creates a Workspace rooted at cfg.Root with results under
// cfg.ResultsDir. Directories are created lazily by EnsureLayout.
func New(cfg types.WorkspaceConfig) *Workspace {
	root := cfg.Root
	if root == "" {
		root = "workspace"
	}
	results := cfg.ResultsDir
	if results == "" {
		results = "results"
	}
	return &Workspace{
		root:       root,
		resultsDir: results,
		claimed:    make(map[string]struct{}),
	}
}

// EnsureLayout creates the full directory tree. Safe to call repeatedly.
func (w *Workspace) EnsureLayout() error {
	for _, dir := range []string{
		w.RawDir(), w.TempDir(), w.PreparedDir(), w.PocketsDir(), w.resultsDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

func (w *Workspace) Root() string        { return w.root }
func (w *Workspace) RawDir() string      { return filepath.Join(w.root, rawDir) }
func (w *Workspace) TempDir() string     { return filepath.Join(w.root, tempDir) }
func (w *Workspace) PreparedDir() string { return filepath.Join(w.root, preparedDir) }
func (w *Workspace) PocketsDir() string  { return filepath.Join(w.root, pocketsDir) }
func (w *Workspace) ResultsDir() string  { return w.resultsDir }

// ClearTemp removes all intermediate artifacts from prior sessions.
// Idempotent; a missing workspace is not an error.
func (w *Workspace) ClearTemp() error {
	for _, dir := range []string{w.TempDir(), w.PreparedDir(), w.PocketsDir()} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clearing %s: %w", dir, err)
		}
	}
	return nil
}

// ResultBase claims the deterministic artifact base name for one matrix
// cell and returns it. Claiming the same triple twice within a session is
// a programming-invariant violation reported as ArtifactCollisionError.
func (w *Workspace) ResultBase(receptorID, ligandID string, pocketRank int) (string, error) {
	base := fmt.Sprintf("%s_%s_pocket_%d_docking", slug(receptorID), slug(ligandID), pocketRank)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.claimed[base]; dup {
		return "", &types.ArtifactCollisionError{Path: filepath.Join(w.resultsDir, base)}
	}
	w.claimed[base] = struct{}{}
	return base, nil
}

// ResultPaths locates the persisted artifacts for one cell.
type ResultPaths struct {
	Poses  string // docked conformations (PDBQT)
	Log    string // engine score log
	Scores string // parsed score table (CSV)
}

// Persist copies the engine's working artifacts for res under the claimed
// base name and writes the parsed score table alongside them.
func (w *Workspace) Persist(res *types.DockingResult, base string) (ResultPaths, error) {
	if err := os.MkdirAll(w.resultsDir, 0o755); err != nil {
		return ResultPaths{}, fmt.Errorf("creating results directory: %w", err)
	}

	paths := ResultPaths{
		Poses:  filepath.Join(w.resultsDir, base+".pdbqt"),
		Log:    filepath.Join(w.resultsDir, base+".log"),
		Scores: filepath.Join(w.resultsDir, base+".csv"),
	}

	if err := copyFile(res.PosePath, paths.Poses); err != nil {
		return ResultPaths{}, fmt.Errorf("persisting poses: %w", err)
	}
	if err := copyFile(res.LogPath, paths.Log); err != nil {
		return ResultPaths{}, fmt.Errorf("persisting log: %w", err)
	}
	if err := writeScoresCSV(res.Poses, paths.Scores); err != nil {
		return ResultPaths{}, fmt.Errorf("persisting scores: %w", err)
	}
	return paths, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func writeScoresCSV(poses []types.Pose, path string) error {
	var b strings.Builder
	b.WriteString("mode,affinity_kcal_mol,rmsd_lb,rmsd_ub\n")
	for _, p := range poses {
		fmt.Fprintf(&b, "%d,%.3f,%.3f,%.3f\n", p.Mode, p.Affinity, p.RMSDLB, p.RMSDUB)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// slug normalizes an identifier for use in a file name.
func slug(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, id)
}
