package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove intermediate workspace artifacts",
	Long: `Clean removes the temp, prepared, and pockets directories from the
workspace. Raw downloads and persisted results are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspaceFromFlags(cmd)
		if err := ws.ClearTemp(); err != nil {
			return err
		}
		fmt.Printf("cleaned: %s\n", ws.Root())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
