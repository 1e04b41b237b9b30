package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dockmate/internal/prepare"
	"github.com/pdiddy/dockmate/pkg/types"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Prepare structures for docking (receptor, ligand)",
	Long: `Prepare converts raw structure files into docking-ready PDBQT.
Receptors are converted to PDB when needed and run through
prepare_receptor4.py; ligands go through Open Babel (3D generation,
optional minimization) and prepare_ligand4.py.`,
}

var prepareReceptorCmd = &cobra.Command{
	Use:   "receptor [file]",
	Short: "Prepare a receptor structure",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrepareReceptor,
}

var prepareLigandCmd = &cobra.Command{
	Use:   "ligand [files...]",
	Short: "Prepare one or more ligand structures",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPrepareLigand,
}

func init() {
	prepareReceptorCmd.Flags().Float64("ph", 7.4, "protonation pH")
	prepareReceptorCmd.Flags().Bool("add-hydrogens", true, "add hydrogens during preparation")
	prepareReceptorCmd.Flags().Bool("remove-waters", true, "strip water molecules")

	prepareLigandCmd.Flags().Bool("add-hydrogens", true, "add hydrogens during 3D generation")
	prepareLigandCmd.Flags().Bool("minimize", true, "energy-minimize before charge assignment")
	prepareLigandCmd.Flags().String("forcefield", "mmff94", "minimization forcefield: mmff94, mmff94s, uff, or gaff")

	prepareCmd.AddCommand(prepareReceptorCmd)
	prepareCmd.AddCommand(prepareLigandCmd)
	rootCmd.AddCommand(prepareCmd)
}

func runPrepareReceptor(cmd *cobra.Command, args []string) error {
	ph, _ := cmd.Flags().GetFloat64("ph")
	addH, _ := cmd.Flags().GetBool("add-hydrogens")
	removeWaters, _ := cmd.Flags().GetBool("remove-waters")

	tools, err := resolveToolchain()
	if err != nil {
		return err
	}
	ws := workspaceFromFlags(cmd)
	if err := ws.EnsureLayout(); err != nil {
		return err
	}

	p := prepare.NewReceptorPreparer(tools, ws, types.ReceptorPrepConfig{
		PH:           ph,
		AddHydrogens: addH,
		RemoveWaters: removeWaters,
	})

	s := structureFromPath(args[0], types.KindReceptor)
	ps, err := p.Prepare(context.Background(), s)
	if err != nil {
		return err
	}
	fmt.Printf("prepared: %s -> %s\n", s.ID, ps.PreparedPath)
	return nil
}

func runPrepareLigand(cmd *cobra.Command, args []string) error {
	cfg := prepare.DefaultLigandConfig()
	cfg.AddHydrogens, _ = cmd.Flags().GetBool("add-hydrogens")
	cfg.Minimize, _ = cmd.Flags().GetBool("minimize")
	cfg.Forcefield, _ = cmd.Flags().GetString("forcefield")

	tools, err := resolveToolchain()
	if err != nil {
		return err
	}
	ws := workspaceFromFlags(cmd)
	if err := ws.EnsureLayout(); err != nil {
		return err
	}

	p := prepare.NewLigandPreparer(tools, ws, cfg)

	failed := 0
	for _, path := range args {
		s := structureFromPath(path, types.KindLigand)
		ps, err := p.Prepare(context.Background(), s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed:   %s (%v)\n", s.ID, err)
			failed++
			continue
		}
		fmt.Printf("prepared: %s -> %s\n", s.ID, ps.PreparedPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d ligand(s) failed preparation", failed)
	}
	return nil
}
