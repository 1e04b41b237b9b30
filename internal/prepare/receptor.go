// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prepare

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/dockmate/internal/toolchain"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// receptorInputs lists the accepted receptor file formats.
var receptorInputs = map[string]bool{
	"pdb": true, "mol2": true, "sdf": true, "pdbqt": true, "ent": true, "xyz": true,
}

// ReceptorPreparer converts a receptor to PDB when needed and runs
// prepare_receptor4.py to assign AutoDock atom types and charges.
type ReceptorPreparer struct {
	tools toolchain.Runner
	ws    *workspace.Workspace
	cfg   types.ReceptorPrepConfig
}

// NewReceptorPreparer applies defaults: pH 7.4, hydrogens added, waters
// removed.
func NewReceptorPreparer(tools toolchain.Runner, ws *workspace.Workspace, cfg types.ReceptorPrepConfig) *ReceptorPreparer {
	if cfg.PH == 0 {
		cfg.PH = 7.4
	}
	return &ReceptorPreparer{tools: tools, ws: ws, cfg: cfg}
}

func (p *ReceptorPreparer) Prepare(ctx context.Context, s types.Structure) (*types.PreparedStructure, error) {
	ext, err := checkSource(s, receptorInputs)
	if err != nil {
		return nil, prepError(s, err)
	}

	// Non-PDB inputs go through Open Babel first; the preparation script
	// only reads PDB.
	pdbPath := s.SourcePath
	if ext != "pdb" {
		pdbPath = filepath.Join(p.ws.TempDir(), s.ID+".pdb")
		if _, err := p.tools.Run(ctx, "", toolchain.ToolObabel,
			s.SourcePath, "-O", pdbPath, "--gen3d"); err != nil {
			return nil, prepError(s, fmt.Errorf("converting to PDB: %w", err))
		}
		if err := checkOutput(pdbPath); err != nil {
			return nil, prepError(s, err)
		}
	}

	outPath := preparedPath(p.ws, s)
	args := []string{
		p.tools.Script(toolchain.ScriptPrepareReceptor),
		"-r", pdbPath,
		"-o", outPath,
	}
	if p.cfg.AddHydrogens {
		args = append(args, "-A", "hydrogens")
	}
	if p.cfg.RemoveWaters {
		args = append(args, "-U", "waters")
	}

	if _, err := p.tools.Run(ctx, "", toolchain.ToolMGLPython, args...); err != nil {
		return nil, prepError(s, err)
	}
	if err := checkOutput(outPath); err != nil {
		return nil, prepError(s, err)
	}

	ps := &types.PreparedStructure{Structure: s, PreparedPath: outPath}
	if err := writeMetadata(ps, map[string]any{
		"ph":            p.cfg.PH,
		"add_hydrogens": p.cfg.AddHydrogens,
		"remove_waters": p.cfg.RemoveWaters,
	}); err != nil {
		return nil, prepError(s, err)
	}
	return ps, nil
}
