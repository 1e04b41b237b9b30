// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prepare normalizes raw receptor and ligand structures into
// PDBQT inputs for the docking engine. Format conversion runs through
// Open Babel and charge/type assignment through the MGLTools preparation
// scripts; this package owns sequencing, artifact placement, and the
// provenance metadata written next to each prepared file.
package prepare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dockmate/internal/mol"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// Preparer turns a raw structure into a docking-ready artifact. The
// receptor and ligand implementations differ in tool flow; the
// orchestrator sees only this interface.
type Preparer interface {
	Prepare(ctx context.Context, s types.Structure) (*types.PreparedStructure, error)
}

// Pipeline dispatches to the kind-specific preparer.
type Pipeline struct {
	Receptor Preparer
	Ligand   Preparer
}

func (p *Pipeline) Prepare(ctx context.Context, s types.Structure) (*types.PreparedStructure, error) {
	switch s.Kind {
	case types.KindReceptor:
		return p.Receptor.Prepare(ctx, s)
	case types.KindLigand:
		return p.Ligand.Prepare(ctx, s)
	default:
		return nil, &types.PreparationError{
			StructureID: s.ID,
			Kind:        s.Kind,
			Err:         fmt.Errorf("unknown structure kind %q", s.Kind),
		}
	}
}

// metadata is the provenance record written next to each prepared
// structure.
type metadata struct {
	ID           string         `yaml:"id"`
	Kind         string         `yaml:"kind"`
	SourcePath   string         `yaml:"source_path"`
	PreparedPath string         `yaml:"prepared_path"`
	PreparedAt   time.Time      `yaml:"prepared_at"`
	Center       *types.Vec3    `yaml:"center,omitempty"`
	Options      map[string]any `yaml:"options"`
}

func writeMetadata(ps *types.PreparedStructure, options map[string]any) error {
	if err := mol.Geometry(ps); err != nil {
		return fmt.Errorf("deriving geometry: %w", err)
	}
	m := metadata{
		ID:           ps.ID,
		Kind:         string(ps.Kind),
		SourcePath:   ps.SourcePath,
		PreparedPath: ps.PreparedPath,
		PreparedAt:   time.Now().UTC(),
		Center:       ps.Center,
		Options:      options,
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	metaPath := strings.TrimSuffix(ps.PreparedPath, filepath.Ext(ps.PreparedPath)) + ".yaml"
	return os.WriteFile(metaPath, data, 0o644)
}

// checkSource verifies the raw input exists and carries a supported
// extension. Returns the lowercased extension without the dot.
func checkSource(s types.Structure, supported map[string]bool) (string, error) {
	if _, err := os.Stat(s.SourcePath); err != nil {
		return "", fmt.Errorf("input file: %w", err)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(s.SourcePath)), ".")
	if !supported[ext] {
		keys := make([]string, 0, len(supported))
		for k := range supported {
			keys = append(keys, k)
		}
		return "", fmt.Errorf("unsupported input format %q (supported: %s)", ext, strings.Join(keys, ", "))
	}
	return ext, nil
}

// checkOutput verifies the tool actually produced a non-empty artifact.
// MGLTools scripts sometimes exit zero with no output on malformed input.
func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("tool produced no output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("tool produced empty output: %s", path)
	}
	return nil
}

func prepError(s types.Structure, err error) error {
	return &types.PreparationError{StructureID: s.ID, Kind: s.Kind, Err: err}
}

// preparedPath is the deterministic output location for a structure, so
// re-preparation overwrites rather than accumulates.
func preparedPath(ws *workspace.Workspace, s types.Structure) string {
	return filepath.Join(ws.PreparedDir(), s.ID+".pdbqt")
}
