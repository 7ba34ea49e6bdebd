package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetlib/internal/registry"
)

func newRegistryCommand(ctx *commandContext) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect locally registered assets",
	}
	registryCmd.AddCommand(newRegistryListCommand(ctx))
	return registryCmd
}

func newRegistryListCommand(ctx *commandContext) *cobra.Command {
	var (
		filter     registry.Filter
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered assets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *registry.Store) error {
				records, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					if records == nil {
						records = []*registry.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No assets registered")
					return nil
				}
				printTable(out, []column{
					col("Asset"), col("Name"), col("Type"), col("Subcategory"),
					numCol("Version"), col("Ingested"), col("Created"),
				}, registryRows(records))
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&filter.BaseUID, "base", "", "Only show assets with this base UID")
	flags.StringVar(&filter.AssetType, "type", "", "Only show assets of this type")
	flags.BoolVar(&filter.PendingIngest, "pending", false, "Only show assets not yet ingested")
	flags.IntVar(&filter.Limit, "limit", 0, "Maximum number of assets to show")
	flags.BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	return cmd
}

func registryRows(records []*registry.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.AssetID,
			rec.Name,
			rec.AssetType,
			rec.Subcategory,
			strconv.Itoa(rec.Version),
			yesNo(rec.IngestedAt != nil),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}
