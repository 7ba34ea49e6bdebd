package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"assetlib/internal/config"
	"assetlib/internal/logging"
	"assetlib/internal/metadata"
	"assetlib/internal/registry"
	"assetlib/internal/services/ingest"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <metadata.json>",
		Short: "Post an exported asset's metadata to the asset index",
		Long: "Replay ingestion for an asset that was exported while the index was unavailable. " +
			"Posting the same asset twice never creates a second record.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Ingestion.BaseURL == "" {
				return errors.New("ingestion base_url is not configured (set [ingestion] base_url or ASSETLIB_API_URL)")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			metadataPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve metadata path: %w", err)
			}

			client := ingest.NewFromConfig(cfg, logger)
			outcome, ingestErr := client.Replay(cmd.Context(), metadataPath)
			if ingestErr == nil {
				if err := ctx.withStore(func(store *registry.Store) error {
					return markIngested(cmd, store, metadataPath, outcome)
				}); err != nil {
					logger.Warn("failed to record ingestion", logging.Error(err))
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, outcome); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				kind := statusOK
				if ingestErr != nil {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Ingestion", kind, ingestionDetail(outcome), shouldColorize(out)))
			}
			return ingestErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the outcome as JSON")
	return cmd
}

// markIngested records the outcome when the asset is known locally.
func markIngested(cmd *cobra.Command, store *registry.Store, metadataPath string, outcome ingest.Outcome) error {
	record, err := metadata.Load(metadataPath)
	if err != nil {
		return err
	}
	existing, err := store.Get(cmd.Context(), record.ID)
	if err != nil || existing == nil {
		return err
	}
	return store.MarkIngested(cmd.Context(), record.ID, outcome.ExternalID)
}
