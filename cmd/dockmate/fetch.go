package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dockmate/internal/fetch"
	"github.com/pdiddy/dockmate/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "dockmate/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [compounds...]",
	Short: "Download structures from RCSB and PubChem",
	Long: `Fetch downloads a receptor from RCSB by PDB id (--receptor) and
ligands from PubChem by CID or compound name (positional arguments) into
the workspace raw directory. Existing files are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("receptor", "", "PDB id of the receptor to download")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	fetchCmd.Flags().Int("retries", 0, "retry attempts on throttled responses (default 5)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	receptorID, _ := cmd.Flags().GetString("receptor")
	if receptorID == "" && len(args) == 0 {
		return fmt.Errorf("provide --receptor and/or one or more ligand compounds (PubChem CIDs or names)")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	retries, _ := cmd.Flags().GetInt("retries")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: delay,
		MaxRetries:    retries,
	}

	ws := workspaceFromFlags(cmd)
	if err := ws.EnsureLayout(); err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Timeout}

	result := fetch.Batch(context.Background(), client, receptorID, args, ws, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d structure(s) failed to download", result.Failed)
	}
	return nil
}
