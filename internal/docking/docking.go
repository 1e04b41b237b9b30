// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docking sequences the pipeline end to end: receptor
// preparation, one pocket-detection pass, ligand preparation, and the
// ligand×pocket execution matrix, with per-cell status and deterministic
// artifact placement. One failed cell never aborts its siblings; a failed
// receptor aborts the session.
package docking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dockmate/internal/engine"
	"github.com/pdiddy/dockmate/internal/pocket"
	"github.com/pdiddy/dockmate/internal/prepare"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// Recorder persists finished sessions. The results store implements it;
// a nil Recorder disables recording.
type Recorder interface {
	RecordSession(ctx context.Context, session *types.SessionResult) error
}

// Orchestrator owns the execution matrix. It references prepared
// structures and pockets but never mutates them; the stage components
// remain their sole producers.
type Orchestrator struct {
	preparer prepare.Preparer
	detector pocket.Detector
	engine   engine.Engine
	ws       *workspace.Workspace
	recorder Recorder
	cfg      types.DockingConfig
}

// New builds an orchestrator, filling the stock search parameters for
// anything left zero: 40×40×40 box, exhaustiveness 8, 9 modes.
func New(preparer prepare.Preparer, detector pocket.Detector, eng engine.Engine, ws *workspace.Workspace, recorder Recorder, cfg types.DockingConfig) *Orchestrator {
	if cfg.Size == (types.Vec3{}) {
		cfg.Size = types.Vec3{X: 40, Y: 40, Z: 40}
	}
	if cfg.Exhaustiveness <= 0 {
		cfg.Exhaustiveness = 8
	}
	if cfg.NumModes <= 0 {
		cfg.NumModes = 9
	}
	return &Orchestrator{
		preparer: preparer,
		detector: detector,
		engine:   eng,
		ws:       ws,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Run executes one session: receptor × ligands over all detected pockets.
// The returned SessionResult carries every cell's status even when cells
// failed; the error return is reserved for session-fatal conditions
// (receptor preparation, pocket detection, invariant violations).
func (o *Orchestrator) Run(ctx context.Context, receptor types.Structure, ligands []types.Structure, w io.Writer) (*types.SessionResult, error) {
	if len(ligands) == 0 {
		return nil, fmt.Errorf("no ligands supplied")
	}

	if o.cfg.ClearTemp {
		if err := o.ws.ClearTemp(); err != nil {
			return nil, err
		}
	}
	if err := o.ws.EnsureLayout(); err != nil {
		return nil, err
	}

	session := &types.SessionResult{
		SessionID:  fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102-150405"), receptor.ID),
		ReceptorID: receptor.ID,
		StartedAt:  time.Now().UTC(),
	}

	// Receptor path: prepared exactly once, fatal on failure.
	prepRec, err := o.preparer.Prepare(ctx, receptor)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "prepared: %s (receptor)\n", receptor.ID)

	// One detection pass per session; the list is cached and read-only
	// afterwards. A manual center bypasses detection entirely.
	var pockets []types.Pocket
	if o.cfg.ManualCenter != nil {
		pockets = pocket.Manual(*o.cfg.ManualCenter)
		fmt.Fprintf(w, "using manual center %s\n", o.cfg.ManualCenter.String())
	} else {
		pockets, err = o.detector.Detect(ctx, prepRec)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "pockets:  %d detected\n", len(pockets))
	}
	session.Pockets = pockets

	// Each ligand prepared exactly once; a failure here marks all of that
	// ligand's cells failed without executing them.
	preparedLigands := make(map[string]*types.PreparedStructure, len(ligands))
	prepFailures := make(map[string]string)
	for _, lig := range ligands {
		if _, done := preparedLigands[lig.ID]; done || prepFailures[lig.ID] != "" {
			continue
		}
		pl, err := o.preparer.Prepare(ctx, lig)
		if err != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", lig.ID, err)
			prepFailures[lig.ID] = err.Error()
			continue
		}
		preparedLigands[lig.ID] = pl
		fmt.Fprintf(w, "prepared: %s (ligand)\n", lig.ID)
	}

	// Materialize the matrix up front: outer ligands, inner pockets.
	for _, lig := range ligands {
		for _, p := range pockets {
			session.Cells = append(session.Cells, types.Cell{
				LigandID:   lig.ID,
				PocketRank: p.Rank,
				State:      types.CellPending,
			})
		}
	}

	pocketByRank := make(map[int]types.Pocket, len(pockets))
	for _, p := range pockets {
		pocketByRank[p.Rank] = p
	}

	for i := range session.Cells {
		cell := &session.Cells[i]

		if reason, failed := prepFailures[cell.LigandID]; failed {
			cell.State = types.CellFailed
			cell.Reason = "preparation failed: " + reason
			continue
		}

		if err := o.runCell(ctx, prepRec, preparedLigands[cell.LigandID], pocketByRank[cell.PocketRank], cell); err != nil {
			// Collisions violate the naming invariant: abort the session.
			var collision *types.ArtifactCollisionError
			if errors.As(err, &collision) {
				return nil, err
			}
			cell.State = types.CellFailed
			cell.Reason = err.Error()
			fmt.Fprintf(w, "failed:   %s pocket %d (%v)\n", cell.LigandID, cell.PocketRank, err)
			continue
		}
		fmt.Fprintf(w, "docked:   %s pocket %d (best %.1f kcal/mol) -> %s\n",
			cell.LigandID, cell.PocketRank, cell.BestAffinity, cell.ArtifactPath)
	}

	fmt.Fprintf(w, "\nSession summary: %d succeeded, %d failed (total: %d)\n",
		session.Succeeded(), session.Failed(), len(session.Cells))

	if err := o.writeReport(session); err != nil {
		return nil, err
	}
	if o.recorder != nil {
		if err := o.recorder.RecordSession(ctx, session); err != nil {
			fmt.Fprintf(w, "warning: session not recorded: %v\n", err)
		}
	}
	return session, nil
}

// runCell executes one matrix cell: claim the artifact name, build the
// box, dock, persist.
func (o *Orchestrator) runCell(ctx context.Context, receptor, ligand *types.PreparedStructure, p types.Pocket, cell *types.Cell) error {
	base, err := o.ws.ResultBase(receptor.ID, ligand.ID, p.Rank)
	if err != nil {
		return err
	}

	box := types.SearchBox{
		Center:         p.Center,
		Size:           o.cfg.Size,
		Exhaustiveness: o.cfg.Exhaustiveness,
		NumModes:       o.cfg.NumModes,
	}

	dockCtx := ctx
	if o.cfg.CellTimeout > 0 {
		var cancel context.CancelFunc
		dockCtx, cancel = context.WithTimeout(ctx, o.cfg.CellTimeout)
		defer cancel()
	}

	result, err := o.engine.Dock(dockCtx, receptor, ligand, box)
	if err != nil {
		return err
	}
	result.PocketRank = p.Rank

	paths, err := o.ws.Persist(result, base)
	if err != nil {
		return err
	}

	cell.State = types.CellSucceeded
	cell.ArtifactPath = paths.Poses
	cell.BestAffinity = result.BestAffinity()
	cell.Result = result
	return nil
}

// writeReport persists the per-cell status table next to the result
// artifacts.
func (o *Orchestrator) writeReport(session *types.SessionResult) error {
	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session report: %w", err)
	}
	path := filepath.Join(o.ws.ResultsDir(), session.SessionID+"_session.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session report: %w", err)
	}
	return nil
}
