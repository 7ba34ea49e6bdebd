package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetlib/internal/config"
	"assetlib/internal/remap"
)

func newRemapCommand() *cobra.Command {
	remapCmd := &cobra.Command{
		Use:         "remap",
		Short:       "Inspect path remapping tables",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	remapCmd.AddCommand(newRemapShowCommand())
	return remapCmd
}

func newRemapShowCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <paths.json>",
		Short: "Print an asset's original to packaged path mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve paths file: %w", err)
			}
			table, err := remap.Load(path)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, table)
			}
			out := cmd.OutOrStdout()
			entries := table.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No remapped paths")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Filename, e.OldPath, e.NewPath})
			}
			printTable(out, []column{col("File"), col("Original"), col("Packaged")}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the table as JSON")
	return cmd
}
