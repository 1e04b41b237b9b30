package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dockmate/internal/pocket"
	"github.com/pdiddy/dockmate/internal/prepare"
	"github.com/pdiddy/dockmate/pkg/types"
)

var pocketsCmd = &cobra.Command{
	Use:   "pockets [receptor-file]",
	Short: "Detect binding pockets on a receptor",
	Long: `Pockets prepares the receptor and runs P2Rank over it, printing the
candidate binding sites ranked by score. The full prediction output is
kept under the workspace pockets directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runPockets,
}

func init() {
	pocketsCmd.Flags().Int("max-pockets", 0, "limit the number of pockets reported (0 = all)")
	pocketsCmd.Flags().Float64("min-score", 0, "drop pockets below this score (0 = no threshold)")
	pocketsCmd.Flags().Int("threads", 0, "detector thread count (0 = CPU count)")

	rootCmd.AddCommand(pocketsCmd)
}

func runPockets(cmd *cobra.Command, args []string) error {
	maxPockets, _ := cmd.Flags().GetInt("max-pockets")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	threads, _ := cmd.Flags().GetInt("threads")

	tools, err := resolveToolchain()
	if err != nil {
		return err
	}
	ws := workspaceFromFlags(cmd)
	if err := ws.EnsureLayout(); err != nil {
		return err
	}

	preparer := prepare.NewReceptorPreparer(tools, ws, types.ReceptorPrepConfig{
		AddHydrogens: true,
		RemoveWaters: true,
	})
	s := structureFromPath(args[0], types.KindReceptor)
	ps, err := preparer.Prepare(context.Background(), s)
	if err != nil {
		return err
	}

	detector := pocket.NewP2Rank(tools, ws, types.DetectConfig{
		MaxPockets: maxPockets,
		MinScore:   minScore,
		Threads:    threads,
	})
	pockets, err := detector.Detect(context.Background(), ps)
	if err != nil {
		return err
	}

	fmt.Printf("%-5s  %-8s  %-30s\n", "Rank", "Score", "Center")
	for _, p := range pockets {
		fmt.Printf("%-5d  %-8.3f  %s\n", p.Rank, p.Score, p.Center.String())
	}
	fmt.Printf("\n%d pocket(s)\n", len(pockets))
	return nil
}
