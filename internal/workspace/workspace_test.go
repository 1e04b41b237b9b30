// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/dockmate/pkg/types"
)

func testWorkspace(t *testing.T) *Workspace {
	t.Helper()
	dir := t.TempDir()
	return New(types.WorkspaceConfig{
		Root:       filepath.Join(dir, "workspace"),
		ResultsDir: filepath.Join(dir, "results"),
	})
}

func TestEnsureLayout(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	for _, dir := range []string{ws.RawDir(), ws.TempDir(), ws.PreparedDir(), ws.PocketsDir(), ws.ResultsDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("missing %s: %v", dir, err)
		}
	}
	// Repeat call is a no-op.
	if err := ws.EnsureLayout(); err != nil {
		t.Errorf("second EnsureLayout: %v", err)
	}
}

func TestClearTemp(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(ws.TempDir(), "old.mol2")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ws.ClearTemp(); err != nil {
		t.Fatalf("ClearTemp: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp artifact survived ClearTemp")
	}

	// Idempotent, and safe on a workspace that does not exist at all.
	if err := ws.ClearTemp(); err != nil {
		t.Errorf("repeated ClearTemp: %v", err)
	}
	if err := New(types.WorkspaceConfig{Root: filepath.Join(t.TempDir(), "nope")}).ClearTemp(); err != nil {
		t.Errorf("ClearTemp on missing workspace: %v", err)
	}
}

func TestResultBaseNaming(t *testing.T) {
	ws := testWorkspace(t)
	base, err := ws.ResultBase("1hsg", "indinavir", 2)
	if err != nil {
		t.Fatalf("ResultBase: %v", err)
	}
	if base != "1hsg_indinavir_pocket_2_docking" {
		t.Errorf("base = %q", base)
	}

	// Unsafe identifier characters are normalized.
	base, err = ws.ResultBase("my receptor", "lig/and", 1)
	if err != nil {
		t.Fatalf("ResultBase: %v", err)
	}
	if strings.ContainsAny(base, " /") {
		t.Errorf("base %q contains unsafe characters", base)
	}
}

func TestResultBaseCollision(t *testing.T) {
	ws := testWorkspace(t)
	if _, err := ws.ResultBase("r", "l", 1); err != nil {
		t.Fatal(err)
	}
	_, err := ws.ResultBase("r", "l", 1)
	var collision *types.ArtifactCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("want ArtifactCollisionError, got %v", err)
	}
}

func TestResultBaseMatrixDistinct(t *testing.T) {
	ws := testWorkspace(t)
	seen := make(map[string]bool)
	for _, lig := range []string{"l1", "l2", "l3"} {
		for rank := 1; rank <= 4; rank++ {
			base, err := ws.ResultBase("rec", lig, rank)
			if err != nil {
				t.Fatalf("ResultBase(%s,%d): %v", lig, rank, err)
			}
			if seen[base] {
				t.Errorf("duplicate base %q", base)
			}
			seen[base] = true
		}
	}
	if len(seen) != 12 {
		t.Errorf("got %d distinct bases, want 12", len(seen))
	}
}

func TestPersist(t *testing.T) {
	ws := testWorkspace(t)
	tmp := t.TempDir()
	posePath := filepath.Join(tmp, "out.pdbqt")
	logPath := filepath.Join(tmp, "out.log")
	if err := os.WriteFile(posePath, []byte("MODEL 1\nENDMDL\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, []byte("mode | affinity\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := &types.DockingResult{
		ReceptorID: "rec",
		LigandID:   "lig",
		PocketRank: 1,
		Poses: []types.Pose{
			{Mode: 1, Affinity: -9.1, RMSDLB: 0, RMSDUB: 0},
			{Mode: 2, Affinity: -7.4, RMSDLB: 1.2, RMSDUB: 2.8},
		},
		PosePath: posePath,
		LogPath:  logPath,
	}

	base, err := ws.ResultBase(res.ReceptorID, res.LigandID, res.PocketRank)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := ws.Persist(res, base)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	for _, p := range []string{paths.Poses, paths.Log, paths.Scores} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing artifact %s: %v", p, err)
		}
	}

	scores, err := os.ReadFile(paths.Scores)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("mode,affinity_kcal_mol,rmsd_lb,rmsd_ub\n%s%s",
		"1,-9.100,0.000,0.000\n", "2,-7.400,1.200,2.800\n")
	if string(scores) != want {
		t.Errorf("scores CSV = %q, want %q", scores, want)
	}
}
