// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// mockPreparer succeeds for every structure not listed in fail.
type mockPreparer struct {
	ws    *workspace.Workspace
	fail  map[string]error
	calls map[string]int
}

func (m *mockPreparer) Prepare(_ context.Context, s types.Structure) (*types.PreparedStructure, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[s.ID]++
	if err, ok := m.fail[s.ID]; ok {
		return nil, &types.PreparationError{StructureID: s.ID, Kind: s.Kind, Err: err}
	}
	return &types.PreparedStructure{
		Structure:    s,
		PreparedPath: filepath.Join(m.ws.PreparedDir(), s.ID+".pdbqt"),
	}, nil
}

type mockDetector struct {
	pockets []types.Pocket
	err     error
	calls   int
}

func (m *mockDetector) Detect(_ context.Context, _ *types.PreparedStructure) ([]types.Pocket, error) {
	m.calls++
	return m.pockets, m.err
}

// mockEngine writes real pose and log files so Persist has something to
// copy. Cells listed in fail error out instead.
type mockEngine struct {
	ws    *workspace.Workspace
	fail  map[string]error // key "ligand/rank"
	calls int
}

func (m *mockEngine) Dock(_ context.Context, receptor, ligand *types.PreparedStructure, box types.SearchBox) (*types.DockingResult, error) {
	m.calls++
	key := fmt.Sprintf("%s/%d", ligand.ID, pocketRankOf(box))
	if err, ok := m.fail[key]; ok {
		return nil, &types.DockingError{ReceptorID: receptor.ID, LigandID: ligand.ID, Err: err}
	}

	base := fmt.Sprintf("%s_%s_%s", receptor.ID, ligand.ID, box.Center.String())
	posePath := filepath.Join(m.ws.TempDir(), base+".pdbqt")
	logPath := filepath.Join(m.ws.TempDir(), base+".log")
	if err := os.WriteFile(posePath, []byte("MODEL 1\nENDMDL\n"), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(logPath, []byte("mode table\n"), 0o644); err != nil {
		return nil, err
	}
	return &types.DockingResult{
		ReceptorID: receptor.ID,
		LigandID:   ligand.ID,
		Box:        box,
		Poses:      []types.Pose{{Mode: 1, Affinity: -9.1}, {Mode: 2, Affinity: -8.5}},
		PosePath:   posePath,
		LogPath:    logPath,
	}, nil
}

// pocketRankOf maps a box back to the fixture pocket it was built from.
func pocketRankOf(box types.SearchBox) int {
	if box.Center.X == 10 {
		return 1
	}
	return 2
}

func twoPockets() []types.Pocket {
	return []types.Pocket{
		{Rank: 1, Center: types.Vec3{X: 10, Y: 10, Z: 10}, Score: 0.9},
		{Rank: 2, Center: types.Vec3{X: 5, Y: 5, Z: 5}, Score: 0.4},
	}
}

type fixture struct {
	prep *mockPreparer
	det  *mockDetector
	eng  *mockEngine
	ws   *workspace.Workspace
}

func setup(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	ws := workspace.New(types.WorkspaceConfig{
		Root:       filepath.Join(root, "ws"),
		ResultsDir: filepath.Join(root, "results"),
	})
	if err := ws.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		prep: &mockPreparer{ws: ws},
		det:  &mockDetector{pockets: twoPockets()},
		eng:  &mockEngine{ws: ws},
		ws:   ws,
	}
}

func (f *fixture) orchestrator(cfg types.DockingConfig) *Orchestrator {
	return New(f.prep, f.det, f.eng, f.ws, nil, cfg)
}

func receptor() types.Structure {
	return types.Structure{ID: "1abc", Kind: types.KindReceptor, SourcePath: "1abc.pdb"}
}

func ligand(id string) types.Structure {
	return types.Structure{ID: id, Kind: types.KindLigand, SourcePath: id + ".sdf"}
}

func TestRunFullMatrix(t *testing.T) {
	f := setup(t)
	o := f.orchestrator(types.DockingConfig{})
	var out bytes.Buffer

	session, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin"), ligand("caffeine")}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(session.Cells) != 4 {
		t.Fatalf("got %d cells, want 4", len(session.Cells))
	}
	if session.Succeeded() != 4 || session.Failed() != 0 {
		t.Errorf("summary = %d/%d", session.Succeeded(), session.Failed())
	}
	if f.eng.calls != 4 {
		t.Errorf("engine invoked %d times, want 4", f.eng.calls)
	}
	if f.det.calls != 1 {
		t.Errorf("detector invoked %d times, want 1", f.det.calls)
	}
	if f.prep.calls["1abc"] != 1 || f.prep.calls["aspirin"] != 1 || f.prep.calls["caffeine"] != 1 {
		t.Errorf("preparation counts = %v", f.prep.calls)
	}

	// Every cell gets a distinct deterministic artifact.
	seen := make(map[string]bool)
	for _, cell := range session.Cells {
		want := fmt.Sprintf("1abc_%s_pocket_%d_docking.pdbqt", cell.LigandID, cell.PocketRank)
		if filepath.Base(cell.ArtifactPath) != want {
			t.Errorf("artifact %q, want %q", filepath.Base(cell.ArtifactPath), want)
		}
		if seen[cell.ArtifactPath] {
			t.Errorf("duplicate artifact path %q", cell.ArtifactPath)
		}
		seen[cell.ArtifactPath] = true
		if _, err := os.Stat(cell.ArtifactPath); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
		if cell.BestAffinity != -9.1 {
			t.Errorf("best affinity = %v", cell.BestAffinity)
		}
	}

	// Session report lands in the results tree.
	report := filepath.Join(f.ws.ResultsDir(), session.SessionID+"_session.yaml")
	if _, err := os.Stat(report); err != nil {
		t.Errorf("session report missing: %v", err)
	}

	if !strings.Contains(out.String(), "Session summary: 4 succeeded, 0 failed (total: 4)") {
		t.Errorf("summary line missing from output:\n%s", out.String())
	}
}

func TestRunLigandPreparationFailureSkipsItsCells(t *testing.T) {
	f := setup(t)
	f.prep.fail = map[string]error{"broken": errors.New("obabel exit status 1")}
	o := f.orchestrator(types.DockingConfig{})
	var out bytes.Buffer

	session, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin"), ligand("broken")}, &out)
	if err != nil {
		t.Fatalf("Run should not fail the session for one bad ligand: %v", err)
	}

	if session.Succeeded() != 2 || session.Failed() != 2 {
		t.Fatalf("summary = %d/%d, want 2/2", session.Succeeded(), session.Failed())
	}
	// The failed ligand's cells never reach the engine.
	if f.eng.calls != 2 {
		t.Errorf("engine invoked %d times, want 2", f.eng.calls)
	}
	for _, cell := range session.Cells {
		if cell.LigandID != "broken" {
			continue
		}
		if cell.State != types.CellFailed {
			t.Errorf("cell %s/%d state = %s", cell.LigandID, cell.PocketRank, cell.State)
		}
		if !strings.Contains(cell.Reason, "preparation failed") {
			t.Errorf("cell reason = %q", cell.Reason)
		}
	}
	if session.AllFailed() {
		t.Error("partial failure reported as total failure")
	}
}

func TestRunCellFailureDoesNotAbortSiblings(t *testing.T) {
	f := setup(t)
	f.eng.fail = map[string]error{"aspirin/2": errors.New("engine crashed")}
	o := f.orchestrator(types.DockingConfig{})
	var out bytes.Buffer

	session, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin"), ligand("caffeine")}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if session.Succeeded() != 3 || session.Failed() != 1 {
		t.Fatalf("summary = %d/%d, want 3/1", session.Succeeded(), session.Failed())
	}
	for _, cell := range session.Cells {
		failed := cell.LigandID == "aspirin" && cell.PocketRank == 2
		if failed && cell.State != types.CellFailed {
			t.Errorf("expected cell aspirin/2 to fail")
		}
		if !failed && cell.State != types.CellSucceeded {
			t.Errorf("cell %s/%d state = %s", cell.LigandID, cell.PocketRank, cell.State)
		}
	}
}

func TestRunReceptorFailureIsFatal(t *testing.T) {
	f := setup(t)
	f.prep.fail = map[string]error{"1abc": errors.New("no atoms")}
	o := f.orchestrator(types.DockingConfig{})

	_, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin")}, &bytes.Buffer{})
	var pe *types.PreparationError
	if !errors.As(err, &pe) {
		t.Fatalf("want PreparationError, got %v", err)
	}
	if f.eng.calls != 0 || f.det.calls != 0 {
		t.Error("stages ran despite receptor failure")
	}
}

func TestRunDetectionFailureIsFatal(t *testing.T) {
	f := setup(t)
	f.det.err = &types.DetectionError{ReceptorID: "1abc", Err: errors.New("prank exit status 1")}
	o := f.orchestrator(types.DockingConfig{})

	_, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin")}, &bytes.Buffer{})
	var de *types.DetectionError
	if !errors.As(err, &de) {
		t.Fatalf("want DetectionError, got %v", err)
	}
}

func TestRunManualCenterSkipsDetection(t *testing.T) {
	f := setup(t)
	center := types.Vec3{X: 10, Y: 10, Z: 10}
	o := f.orchestrator(types.DockingConfig{ManualCenter: &center})
	var out bytes.Buffer

	session, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin")}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.det.calls != 0 {
		t.Error("detector invoked despite manual center")
	}
	if len(session.Cells) != 1 || session.Cells[0].PocketRank != 1 {
		t.Fatalf("cells = %+v", session.Cells)
	}
	if session.Cells[0].State != types.CellSucceeded {
		t.Errorf("cell state = %s", session.Cells[0].State)
	}
}

func TestRunEmptyLigandList(t *testing.T) {
	f := setup(t)
	o := f.orchestrator(types.DockingConfig{})
	if _, err := o.Run(context.Background(), receptor(), nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for empty ligand list")
	}
}

type mockRecorder struct {
	sessions []*types.SessionResult
	err      error
}

func (m *mockRecorder) RecordSession(_ context.Context, s *types.SessionResult) error {
	m.sessions = append(m.sessions, s)
	return m.err
}

func TestRunRecordsSession(t *testing.T) {
	f := setup(t)
	rec := &mockRecorder{}
	o := New(f.prep, f.det, f.eng, f.ws, rec, types.DockingConfig{})

	session, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin")}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.sessions) != 1 || rec.sessions[0].SessionID != session.SessionID {
		t.Fatalf("recorder sessions = %+v", rec.sessions)
	}
}

func TestRunRecorderFailureIsNonFatal(t *testing.T) {
	f := setup(t)
	rec := &mockRecorder{err: errors.New("database is locked")}
	o := New(f.prep, f.det, f.eng, f.ws, rec, types.DockingConfig{})
	var out bytes.Buffer

	if _, err := o.Run(context.Background(), receptor(), []types.Structure{ligand("aspirin")}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "session not recorded") {
		t.Errorf("missing warning in output:\n%s", out.String())
	}
}
