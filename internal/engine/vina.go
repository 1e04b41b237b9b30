// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs AutoDock Vina inside a validated search box and
// parses its score table into ranked poses. The engine writes only into
// the workspace temp tree; final artifact placement belongs to the
// orchestrator.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pdiddy/dockmate/internal/mol"
	"github.com/pdiddy/dockmate/internal/toolchain"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// Engine performs one docking run. Implementations must validate the box
// and fail fast without invoking the underlying search when it cannot
// enclose the ligand.
type Engine interface {
	Dock(ctx context.Context, receptor, ligand *types.PreparedStructure, box types.SearchBox) (*types.DockingResult, error)
}

// Vina wraps the AutoDock Vina CLI.
type Vina struct {
	tools toolchain.Runner
	ws    *workspace.Workspace
	cfg   types.EngineConfig
}

// NewVina applies defaults: CPU-count worker threads and the stock safety
// margin.
func NewVina(tools toolchain.Runner, ws *workspace.Workspace, cfg types.EngineConfig) *Vina {
	if cfg.CPU <= 0 {
		cfg.CPU = runtime.NumCPU()
	}
	if cfg.Margin <= 0 {
		cfg.Margin = DefaultMargin
	}
	return &Vina{tools: tools, ws: ws, cfg: cfg}
}

func (v *Vina) Dock(ctx context.Context, receptor, ligand *types.PreparedStructure, box types.SearchBox) (*types.DockingResult, error) {
	if err := mol.Geometry(ligand); err != nil {
		return nil, v.dockError(receptor, ligand, fmt.Errorf("deriving ligand extent: %w", err))
	}
	if err := ValidateBox(box, *ligand.Extent, v.cfg.Margin); err != nil {
		return nil, err
	}

	workDir := filepath.Join(v.ws.TempDir(), "vina")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, v.dockError(receptor, ligand, err)
	}

	base := fmt.Sprintf("%s_%s_docked", receptor.ID, ligand.ID)
	posePath := filepath.Join(workDir, base+".pdbqt")
	logPath := filepath.Join(workDir, base+".log")

	args := []string{
		"--receptor", receptor.PreparedPath,
		"--ligand", ligand.PreparedPath,
		"--center_x", formatFloat(box.Center.X),
		"--center_y", formatFloat(box.Center.Y),
		"--center_z", formatFloat(box.Center.Z),
		"--size_x", formatFloat(box.Size.X),
		"--size_y", formatFloat(box.Size.Y),
		"--size_z", formatFloat(box.Size.Z),
		"--out", posePath,
		"--exhaustiveness", strconv.Itoa(box.Exhaustiveness),
		"--num_modes", strconv.Itoa(box.NumModes),
		"--cpu", strconv.Itoa(v.cfg.CPU),
	}
	if v.cfg.Seed != 0 {
		args = append(args, "--seed", strconv.FormatInt(v.cfg.Seed, 10))
	}

	stdout, err := v.tools.Run(ctx, "", toolchain.ToolVina, args...)
	if err != nil {
		return nil, v.dockError(receptor, ligand, err)
	}

	// The score table only exists on stdout; persist it as the run log.
	if err := os.WriteFile(logPath, []byte(stdout), 0o644); err != nil {
		return nil, v.dockError(receptor, ligand, fmt.Errorf("writing score log: %w", err))
	}

	poses, err := ParseScoreTable(stdout)
	if err != nil {
		return nil, v.dockError(receptor, ligand, err)
	}

	return &types.DockingResult{
		ReceptorID: receptor.ID,
		LigandID:   ligand.ID,
		Box:        box,
		Poses:      poses,
		PosePath:   posePath,
		LogPath:    logPath,
	}, nil
}

func (v *Vina) dockError(receptor, ligand *types.PreparedStructure, err error) error {
	return &types.DockingError{ReceptorID: receptor.ID, LigandID: ligand.ID, Err: err}
}

// ParseScoreTable extracts poses from Vina's stdout table:
//
//	mode |   affinity | dist from best mode
//	     | (kcal/mol) | rmsd l.b.| rmsd u.b.
//	-----+------------+----------+----------
//	   1         -9.1      0.000      0.000
//
// Rows appear best-first; malformed rows are skipped. An empty table is
// an error.
func ParseScoreTable(output string) ([]types.Pose, error) {
	var poses []types.Pose
	headerFound := false

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "mode") {
			headerFound = true
			continue
		}
		if !headerFound || trimmed == "" || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "|") {
			continue
		}

		tokens := strings.Fields(trimmed)
		if len(tokens) != 4 {
			continue
		}
		mode, err1 := strconv.Atoi(tokens[0])
		affinity, err2 := strconv.ParseFloat(tokens[1], 64)
		rmsdLB, err3 := strconv.ParseFloat(tokens[2], 64)
		rmsdUB, err4 := strconv.ParseFloat(tokens[3], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		poses = append(poses, types.Pose{Mode: mode, Affinity: affinity, RMSDLB: rmsdLB, RMSDUB: rmsdUB})
	}

	if len(poses) == 0 {
		return nil, fmt.Errorf("no poses in engine output")
	}
	return poses, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
