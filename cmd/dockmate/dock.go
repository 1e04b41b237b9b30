package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dockmate/internal/docking"
	"github.com/pdiddy/dockmate/internal/engine"
	"github.com/pdiddy/dockmate/internal/pocket"
	"github.com/pdiddy/dockmate/internal/prepare"
	"github.com/pdiddy/dockmate/internal/store"
	"github.com/pdiddy/dockmate/pkg/types"
)

var dockCmd = &cobra.Command{
	Use:   "dock [ligand-files...]",
	Short: "Dock ligands against a receptor over all detected pockets",
	Long: `Dock runs the full pipeline for one session: the receptor is
prepared once, pockets are detected once (or a single manual center is
used with --center), each ligand is prepared once, and AutoDock Vina runs
over every ligand by pocket combination. A failed ligand or cell never
aborts the rest of the matrix; the session fails only when the receptor
cannot be prepared or every cell failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDock,
}

func init() {
	dockCmd.Flags().String("receptor", "", "receptor structure file (required)")
	dockCmd.MarkFlagRequired("receptor")

	dockCmd.Flags().String("center", "", "manual search center as x,y,z (skips pocket detection)")
	dockCmd.Flags().String("size", "", "search box size as x,y,z (default 40,40,40)")
	dockCmd.Flags().Int("exhaustiveness", 0, "search thoroughness (default 8)")
	dockCmd.Flags().Int("num-modes", 0, "binding modes to generate (default 9)")
	dockCmd.Flags().Int("cpu", 0, "engine thread count (default CPU count)")
	dockCmd.Flags().Int64("seed", 0, "random seed for reproducible runs (0 = engine-chosen)")

	dockCmd.Flags().Int("max-pockets", 0, "limit the number of pockets docked (0 = all)")
	dockCmd.Flags().Float64("min-score", 0, "drop pockets below this score (0 = no threshold)")

	dockCmd.Flags().Bool("clear-temp", true, "clear intermediate artifacts before the session")
	dockCmd.Flags().Duration("cell-timeout", 0, "wall-clock limit per docking cell (0 = none)")
	dockCmd.Flags().Bool("record", true, "record the session in the results database")

	rootCmd.AddCommand(dockCmd)
}

func runDock(cmd *cobra.Command, args []string) error {
	receptorPath, _ := cmd.Flags().GetString("receptor")

	tools, err := resolveToolchain()
	if err != nil {
		return err
	}
	ws := workspaceFromFlags(cmd)

	cfg, err := dockingConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	preparer := &prepare.Pipeline{
		Receptor: prepare.NewReceptorPreparer(tools, ws, types.ReceptorPrepConfig{
			AddHydrogens: true,
			RemoveWaters: true,
		}),
		Ligand: prepare.NewLigandPreparer(tools, ws, prepare.DefaultLigandConfig()),
	}

	maxPockets, _ := cmd.Flags().GetInt("max-pockets")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	detector := pocket.NewP2Rank(tools, ws, types.DetectConfig{
		MaxPockets: maxPockets,
		MinScore:   minScore,
	})

	vina := engine.NewVina(tools, ws, cfg.EngineConfig)

	var recorder docking.Recorder
	if record, _ := cmd.Flags().GetBool("record"); record {
		s, err := store.NewStore(ws.ResultsDir())
		if err != nil {
			return err
		}
		defer s.Close()
		recorder = s
	}

	receptor := structureFromPath(receptorPath, types.KindReceptor)
	ligands := make([]types.Structure, 0, len(args))
	for _, path := range args {
		ligands = append(ligands, structureFromPath(path, types.KindLigand))
	}

	o := docking.New(preparer, detector, vina, ws, recorder, cfg)
	session, err := o.Run(context.Background(), receptor, ligands, os.Stdout)
	if err != nil {
		return err
	}
	if session.AllFailed() {
		return fmt.Errorf("all %d docking cell(s) failed", len(session.Cells))
	}
	return nil
}

func dockingConfigFromFlags(cmd *cobra.Command) (types.DockingConfig, error) {
	var cfg types.DockingConfig

	cfg.Exhaustiveness, _ = cmd.Flags().GetInt("exhaustiveness")
	cfg.NumModes, _ = cmd.Flags().GetInt("num-modes")
	cfg.CPU, _ = cmd.Flags().GetInt("cpu")
	cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	cfg.ClearTemp, _ = cmd.Flags().GetBool("clear-temp")
	cfg.CellTimeout, _ = cmd.Flags().GetDuration("cell-timeout")

	if sizeStr, _ := cmd.Flags().GetString("size"); sizeStr != "" {
		size, err := parseVec3(sizeStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid --size: %w", err)
		}
		cfg.Size = size
	}
	if centerStr, _ := cmd.Flags().GetString("center"); centerStr != "" {
		center, err := parseVec3(centerStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid --center: %w", err)
		}
		cfg.ManualCenter = &center
	}
	return cfg, nil
}

// parseVec3 parses "x,y,z" into a vector.
func parseVec3(s string) (types.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return types.Vec3{}, fmt.Errorf("want three comma-separated values, got %q", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("component %d of %q: %w", i+1, s, err)
		}
		vals[i] = v
	}
	return types.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
