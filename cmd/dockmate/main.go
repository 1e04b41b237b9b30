// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dockmate CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dockmate/internal/toolchain"
	"github.com/pdiddy/dockmate/internal/workspace"
	"github.com/pdiddy/dockmate/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the dockmate CLI.
var rootCmd = &cobra.Command{
	Use:   "dockmate",
	Short: "Molecular docking pipeline orchestration",
	Long: `dockmate orchestrates protein-ligand docking: it fetches structures
from RCSB and PubChem, prepares receptors and ligands into PDBQT via Open
Babel and MGLTools, detects binding pockets with P2Rank, and runs AutoDock
Vina over the full ligand by pocket matrix.

Each pipeline stage is a subcommand: fetch, prepare, pockets, and dock.
Results are persisted under results/ and indexed in a local SQLite
database queryable through the results subcommand.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./dockmate.yaml or ~/.config/dockmate/config.yaml)")
	rootCmd.PersistentFlags().String("workspace-dir", "workspace", "base directory for intermediate artifacts")
	rootCmd.PersistentFlags().String("results-dir", "results", "base directory for docking results")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dockmate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dockmate"))
		}
	}

	viper.SetEnvPrefix("DOCKMATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// workspaceFromFlags builds the Workspace from the persistent directory
// flags.
func workspaceFromFlags(cmd *cobra.Command) *workspace.Workspace {
	wsDir, _ := cmd.Flags().GetString("workspace-dir")
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	return workspace.New(types.WorkspaceConfig{Root: wsDir, ResultsDir: resultsDir})
}

// resolveToolchain locates the external chemistry binaries, honoring
// config-file and environment overrides (toolchain.obabel and friends).
func resolveToolchain() (*toolchain.Toolchain, error) {
	cfg := types.ToolchainConfig{
		Obabel:                viper.GetString("toolchain.obabel"),
		MGLPython:             viper.GetString("toolchain.mgl_python"),
		PrepareReceptorScript: viper.GetString("toolchain.prepare_receptor_script"),
		PrepareLigandScript:   viper.GetString("toolchain.prepare_ligand_script"),
		Prank:                 viper.GetString("toolchain.prank"),
		Vina:                  viper.GetString("toolchain.vina"),
	}
	return toolchain.Resolve(cfg)
}

// structureFromPath derives a Structure from a file path, using the
// lowercased file stem as the identifier.
func structureFromPath(path string, kind types.StructureKind) types.Structure {
	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	return types.Structure{
		ID:         strings.ToLower(stem),
		Kind:       kind,
		SourcePath: path,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
