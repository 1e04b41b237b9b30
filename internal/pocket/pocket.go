// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pocket predicts candidate binding sites on a prepared receptor
// with P2Rank and turns its CSV output into a stable, ranked pocket list.
package pocket

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/dockmate/internal/toolchain"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// Detector produces one finite, materialized pocket list per detection
// run. The list is not restartable: receptor geometry does not change
// between reads, so callers cache the slice.
type Detector interface {
	Detect(ctx context.Context, receptor *types.PreparedStructure) ([]types.Pocket, error)
}

// P2Rank wraps the prank CLI.
type P2Rank struct {
	tools toolchain.Runner
	ws    *workspace.Workspace
	cfg   types.DetectConfig
}

// NewP2Rank applies defaults: all pockets, no score threshold, CPU-count
// threads.
func NewP2Rank(tools toolchain.Runner, ws *workspace.Workspace, cfg types.DetectConfig) *P2Rank {
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	return &P2Rank{tools: tools, ws: ws, cfg: cfg}
}

// Detect runs prediction, parses the ranked pocket table, and writes the
// human-readable report. At least one pocket is required; zero pockets is
// a DetectionError.
func (d *P2Rank) Detect(ctx context.Context, receptor *types.PreparedStructure) ([]types.Pocket, error) {
	// P2Rank reads PDB, not PDBQT: point it at the raw source when that
	// is a PDB, otherwise at the conversion intermediate in temp.
	input := receptor.SourcePath
	if strings.ToLower(filepath.Ext(input)) != ".pdb" {
		input = filepath.Join(d.ws.TempDir(), receptor.ID+".pdb")
	}
	if _, err := os.Stat(input); err != nil {
		return nil, d.detectError(receptor, fmt.Errorf("receptor PDB for detection: %w", err))
	}

	outDir := filepath.Join(d.ws.PocketsDir(), receptor.ID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, d.detectError(receptor, err)
	}

	if _, err := d.tools.Run(ctx, "", toolchain.ToolPrank,
		"predict",
		"-f", input,
		"-o", outDir,
		"-threads", strconv.Itoa(d.cfg.Threads),
	); err != nil {
		return nil, d.detectError(receptor, err)
	}

	csvPath := filepath.Join(outDir, filepath.Base(input)+"_predictions.csv")
	pockets, err := parsePredictions(csvPath)
	if err != nil {
		return nil, d.detectError(receptor, err)
	}

	pockets = d.filterAndRank(pockets)
	if len(pockets) == 0 {
		return nil, d.detectError(receptor, fmt.Errorf("no pockets detected"))
	}

	if err := writeReport(filepath.Join(outDir, receptor.ID+"_pockets.txt"), receptor.ID, pockets); err != nil {
		return nil, d.detectError(receptor, err)
	}
	return pockets, nil
}

func (d *P2Rank) detectError(receptor *types.PreparedStructure, err error) error {
	return &types.DetectionError{ReceptorID: receptor.ID, Err: err}
}

// filterAndRank applies the score threshold and pocket cap, then fixes the
// total order: descending score with ascending-coordinate tie-break, so
// ranks are reproducible across runs on identical input.
func (d *P2Rank) filterAndRank(pockets []types.Pocket) []types.Pocket {
	if d.cfg.MinScore > 0 {
		kept := pockets[:0]
		for _, p := range pockets {
			if p.Score >= d.cfg.MinScore {
				kept = append(kept, p)
			}
		}
		pockets = kept
	}

	sort.SliceStable(pockets, func(i, j int) bool {
		if pockets[i].Score != pockets[j].Score {
			return pockets[i].Score > pockets[j].Score
		}
		return pockets[i].Center.Less(pockets[j].Center)
	})

	if d.cfg.MaxPockets > 0 && len(pockets) > d.cfg.MaxPockets {
		pockets = pockets[:d.cfg.MaxPockets]
	}
	for i := range pockets {
		pockets[i].Rank = i + 1
	}
	return pockets
}

// parsePredictions reads the P2Rank predictions CSV. Header cells carry
// leading spaces, so they are trimmed before matching.
func parsePredictions(path string) ([]types.Pocket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("prediction CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading prediction header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"score", "center_x", "center_y", "center_z"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("prediction CSV missing column %q", required)
		}
	}

	var pockets []types.Pocket
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading prediction row %d: %w", row, err)
		}

		p, err := parseRow(rec, col)
		if err != nil {
			return nil, fmt.Errorf("prediction row %d: %w", row, err)
		}
		pockets = append(pockets, p)
	}
	return pockets, nil
}

func parseRow(rec []string, col map[string]int) (types.Pocket, error) {
	field := func(name string) (float64, error) {
		i := col[name]
		if i >= len(rec) {
			return 0, fmt.Errorf("short row, missing %s", name)
		}
		return strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	}

	score, err := field("score")
	if err != nil {
		return types.Pocket{}, fmt.Errorf("score: %w", err)
	}
	x, err := field("center_x")
	if err != nil {
		return types.Pocket{}, fmt.Errorf("center_x: %w", err)
	}
	y, err := field("center_y")
	if err != nil {
		return types.Pocket{}, fmt.Errorf("center_y: %w", err)
	}
	z, err := field("center_z")
	if err != nil {
		return types.Pocket{}, fmt.Errorf("center_z: %w", err)
	}
	return types.Pocket{Score: score, Center: types.Vec3{X: x, Y: y, Z: z}}, nil
}

// writeReport persists the pocket table for the run: one header, one line
// per pocket, written once and never appended.
func writeReport(path, receptorID string, pockets []types.Pocket) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Binding pockets for %s (%d found)\n", receptorID, len(pockets))
	fmt.Fprintf(&b, "%-5s %-28s %s\n", "rank", "center", "score")
	for _, p := range pockets {
		fmt.Fprintf(&b, "%-5d %-28s %.3f\n", p.Rank, p.Center.String(), p.Score)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Manual returns the synthetic single-pocket list used when the caller
// supplies a center explicitly instead of running detection.
func Manual(center types.Vec3) []types.Pocket {
	return []types.Pocket{{Rank: 1, Center: center, Score: 0}}
}
