package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dockmate/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query recorded docking sessions (sessions, best)",
	Long: `Results queries the SQLite index of finished sessions. Use
subcommands to list sessions or rank recorded poses by binding affinity.`,
}

var resultsSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded docking sessions",
	RunE:  runResultsSessions,
}

var resultsBestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show recorded poses ranked by binding affinity",
	RunE:  runResultsBest,
}

func init() {
	resultsBestCmd.Flags().String("receptor", "", "filter by receptor id")
	resultsBestCmd.Flags().String("ligand", "", "filter by ligand id")
	resultsBestCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	resultsBestCmd.Flags().Bool("json", false, "output results as JSON")

	resultsCmd.AddCommand(resultsSessionsCmd)
	resultsCmd.AddCommand(resultsBestCmd)
	rootCmd.AddCommand(resultsCmd)
}

func openResultsStore(cmd *cobra.Command) (*store.Store, error) {
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	return store.NewStore(resultsDir)
}

func runResultsSessions(cmd *cobra.Command, args []string) error {
	s, err := openResultsStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := s.ListSessions(context.Background())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	fmt.Printf("%-28s  %-10s  %-20s  %-9s  %s\n",
		"Session", "Receptor", "Started", "Succeeded", "Failed")
	for _, sum := range sessions {
		fmt.Printf("%-28s  %-10s  %-20s  %-9d  %d\n",
			sum.SessionID, sum.ReceptorID,
			sum.StartedAt.Format("2006-01-02 15:04:05"),
			sum.Succeeded, sum.Failed)
	}
	fmt.Printf("\n%d session(s)\n", len(sessions))
	return nil
}

func runResultsBest(cmd *cobra.Command, args []string) error {
	receptorID, _ := cmd.Flags().GetString("receptor")
	ligandID, _ := cmd.Flags().GetString("ligand")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openResultsStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	poses, err := s.BestPoses(context.Background(), store.QueryOptions{
		ReceptorID: receptorID,
		LigandID:   ligandID,
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(poses)
	}

	if len(poses) == 0 {
		fmt.Println("No poses recorded.")
		return nil
	}

	fmt.Printf("%-10s  %-12s  %-7s  %-5s  %-10s  %s\n",
		"Receptor", "Ligand", "Pocket", "Mode", "Affinity", "Artifact")
	for _, p := range poses {
		fmt.Printf("%-10s  %-12s  %-7d  %-5d  %-10.2f  %s\n",
			p.ReceptorID, p.LigandID, p.PocketRank, p.Mode, p.Affinity, p.Artifact)
	}
	fmt.Printf("\n%d pose(s)\n", len(poses))
	return nil
}
