// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prepare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/dockmate/internal/toolchain"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// ligandInputs lists the accepted ligand file formats.
var ligandInputs = map[string]bool{
	"mol2": true, "sdf": true, "pdb": true, "mol": true, "smi": true,
}

// forcefields lists the minimization forcefields Open Babel accepts.
var forcefields = map[string]bool{
	"mmff94": true, "mmff94s": true, "uff": true, "gaff": true,
}

// LigandPreparer converts a ligand to MOL2 with 3D coordinates (optionally
// energy-minimized) and runs prepare_ligand4.py to produce the PDBQT.
type LigandPreparer struct {
	tools toolchain.Runner
	ws    *workspace.Workspace
	cfg   types.LigandPrepConfig
}

// NewLigandPreparer applies defaults: hydrogens added, minimization on
// with mmff94, non-polar hydrogens, lone pairs, and waters removed.
// DefaultLigandConfig gives callers the same defaults explicitly.
func NewLigandPreparer(tools toolchain.Runner, ws *workspace.Workspace, cfg types.LigandPrepConfig) *LigandPreparer {
	if cfg.Forcefield == "" {
		cfg.Forcefield = "mmff94"
	}
	return &LigandPreparer{tools: tools, ws: ws, cfg: cfg}
}

// DefaultLigandConfig returns the stock ligand preparation options.
func DefaultLigandConfig() types.LigandPrepConfig {
	return types.LigandPrepConfig{
		AddHydrogens:    true,
		Minimize:        true,
		Forcefield:      "mmff94",
		RemoveNonPolarH: true,
		RemoveLonePairs: true,
		RemoveWaters:    true,
	}
}

func (p *LigandPreparer) Prepare(ctx context.Context, s types.Structure) (*types.PreparedStructure, error) {
	ext, err := checkSource(s, ligandInputs)
	if err != nil {
		return nil, prepError(s, err)
	}
	if p.cfg.Minimize && !forcefields[p.cfg.Forcefield] {
		return nil, prepError(s, fmt.Errorf("unsupported forcefield %q (supported: mmff94, mmff94s, uff, gaff)", p.cfg.Forcefield))
	}

	// Step 1: convert + generate 3D coordinates (+ optional minimization)
	// into a MOL2 intermediate.
	mol2Path := filepath.Join(p.ws.TempDir(), s.ID+".mol2")
	args := []string{
		"-i", ext, s.SourcePath,
		"-o", "mol2", "-O", mol2Path,
		"--gen3d", "-h",
	}
	if p.cfg.Minimize {
		args = append(args, "--minimize", "--ff", p.cfg.Forcefield)
	}
	if _, err := p.tools.Run(ctx, "", toolchain.ToolObabel, args...); err != nil {
		return nil, prepError(s, fmt.Errorf("converting to MOL2: %w", err))
	}
	if err := checkOutput(mol2Path); err != nil {
		return nil, prepError(s, err)
	}

	// Step 2: assign atom types and charges. prepare_ligand4.py resolves
	// its input relative to the working directory, so run it in temp and
	// move the artifact to its final location afterwards.
	tempOut := s.ID + ".pdbqt"
	mglArgs := []string{
		p.tools.Script(toolchain.ScriptPrepareLigand),
		"-l", filepath.Base(mol2Path),
		"-o", tempOut,
	}
	if p.cfg.AddHydrogens {
		mglArgs = append(mglArgs, "-A", "hydrogens")
	}
	if flags := p.removeFlags(); flags != "" {
		mglArgs = append(mglArgs, "-U", flags)
	}

	if _, err := p.tools.Run(ctx, p.ws.TempDir(), toolchain.ToolMGLPython, mglArgs...); err != nil {
		return nil, prepError(s, err)
	}

	tempPath := filepath.Join(p.ws.TempDir(), tempOut)
	if err := checkOutput(tempPath); err != nil {
		return nil, prepError(s, err)
	}

	outPath := preparedPath(p.ws, s)
	if err := os.Rename(tempPath, outPath); err != nil {
		return nil, prepError(s, fmt.Errorf("placing prepared ligand: %w", err))
	}

	ps := &types.PreparedStructure{Structure: s, PreparedPath: outPath}
	options := map[string]any{
		"add_hydrogens": p.cfg.AddHydrogens,
		"minimize":      p.cfg.Minimize,
		"remove":        p.removeFlags(),
	}
	if p.cfg.Minimize {
		options["forcefield"] = p.cfg.Forcefield
	}
	if err := writeMetadata(ps, options); err != nil {
		return nil, prepError(s, err)
	}
	return ps, nil
}

// removeFlags joins the enabled -U cleanup flags the way the MGLTools
// script expects them ("nphs_lps_waters").
func (p *LigandPreparer) removeFlags() string {
	var flags []string
	if p.cfg.RemoveNonPolarH {
		flags = append(flags, "nphs")
	}
	if p.cfg.RemoveLonePairs {
		flags = append(flags, "lps")
	}
	if p.cfg.RemoveWaters {
		flags = append(flags, "waters")
	}
	return strings.Join(flags, "_")
}
