package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"assetlib/internal/config"
	"assetlib/internal/export"
	"assetlib/internal/host"
	"assetlib/internal/registry"
)

type exportOptions struct {
	name         string
	description  string
	dimension    string
	assetType    string
	subcategory  string
	renderEngine string
	tags         string
	createdBy    string
	versionUp    string
	variant      string
	skipIngest   bool
	output       string
	inPlace      bool
	jsonOutput   bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <manifest>",
		Short: "Package the references listed in a scene manifest",
		Long: "Copy every file a scene manifest references into a new library asset, " +
			"write Data/paths.json and metadata.json, register the asset and, when enabled, " +
			"post it to the asset index.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.versionUp != "" && opts.variant != "" {
				return errors.New("--version-up and --variant are mutually exclusive")
			}
			if opts.inPlace && opts.output != "" {
				return errors.New("--in-place and --output are mutually exclusive")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			manifestPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve manifest path: %w", err)
			}
			manifest, err := host.LoadManifest(manifestPath)
			if err != nil {
				return err
			}

			var result *export.Result
			err = ctx.withStore(func(store *registry.Store) error {
				exporter, err := export.New(cfg, store, logger)
				if err != nil {
					return err
				}
				result = exporter.Run(cmd.Context(), opts.request(manifest))
				return nil
			})
			if err != nil {
				return err
			}

			if result.Success {
				if target := opts.manifestTarget(manifestPath); target != "" {
					if err := manifest.Save(target); err != nil {
						return fmt.Errorf("save remapped manifest: %w", err)
					}
				}
			}

			if opts.jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, line := range exportLines(result, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
			}
			if !result.Success {
				return fmt.Errorf("export failed: %s", result.Status)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "", "Asset name (defaults to the manifest's asset.name)")
	flags.StringVar(&opts.description, "description", "", "Asset description")
	flags.StringVar(&opts.dimension, "dimension", "", "Dimension, e.g. 3D or 2D")
	flags.StringVar(&opts.assetType, "type", "", "Asset type, e.g. Props")
	flags.StringVar(&opts.subcategory, "subcategory", "", "Asset subcategory")
	flags.StringVar(&opts.renderEngine, "render-engine", "", "Render engine")
	flags.StringVar(&opts.tags, "tags", "", "Comma separated user tags")
	flags.StringVar(&opts.createdBy, "created-by", "", "Override the configured author")
	flags.StringVar(&opts.versionUp, "version-up", "", "Add a version to BASEUID+VARIANT, e.g. ABCDEF12345AA")
	flags.StringVar(&opts.variant, "variant", "", "Open a new variant of BASEUID")
	flags.BoolVar(&opts.skipIngest, "skip-ingest", false, "Do not post the asset to the index")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the remapped manifest to this path")
	flags.BoolVar(&opts.inPlace, "in-place", false, "Overwrite the manifest with remapped paths")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

// request merges flags over the manifest's asset defaults.
func (o exportOptions) request(manifest *host.Manifest) export.Request {
	defaults := manifest.Asset
	req := export.Request{
		Mode:         export.ModeNew,
		Name:         firstSet(o.name, defaults.Name),
		Description:  firstSet(o.description, defaults.Description),
		Dimension:    firstSet(o.dimension, defaults.Dimension),
		AssetType:    firstSet(o.assetType, defaults.AssetType),
		Subcategory:  firstSet(o.subcategory, defaults.Subcategory),
		RenderEngine: firstSet(o.renderEngine, defaults.RenderEngine),
		Tags:         firstSet(o.tags, strings.Join(defaults.Tags, ",")),
		CreatedBy:    o.createdBy,
		SkipIngest:   o.skipIngest,
		Host:         manifest,
	}
	switch {
	case o.versionUp != "":
		req.Mode = export.ModeVersionUp
		req.BaseID = o.versionUp
	case o.variant != "":
		req.Mode = export.ModeVariant
		req.BaseID = o.variant
	}
	return req
}

func (o exportOptions) manifestTarget(source string) string {
	if o.inPlace {
		return source
	}
	if o.output == "" {
		return ""
	}
	expanded, err := config.ExpandPath(o.output)
	if err != nil {
		return o.output
	}
	return expanded
}

func firstSet(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
