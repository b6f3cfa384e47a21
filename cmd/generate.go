package cmd

import (

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/announce"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/audit"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/generator"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/pipeline"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/sampler"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

var generateAndLoad bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and validate a snapshot",
	Long: `Generate the five storefront tables, validate each one before the next
is generated, and write the CSV files and manifest to the artifact store.
With --load the snapshot is also loaded, audited and announced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := runContext(cmd)

		cfg, p, reg, err := newPipeline()
		if err != nil {
			return err
		}
		defer flushMetrics(reg)

		artifacts, err := artifact.OpenStore(ctx, cfg.Artifacts)
		if err != nil {
			return err
		}
		catalog := schema.Ecommerce()
		src := generator.New(catalog, generator.OptionsFromConfig(cfg, p.Reference()), sampler.New(cfg.Seed))
		stages := pipeline.Stages{Artifacts: artifacts}

		if generateAndLoad {
			store, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			publisher := announce.New(cfg.Announce.Kafka)
			defer publisher.Close()

			stages.Loader = newWriter(cfg, store, reg)
			stages.Auditor = audit.New(store, catalog, cfg.Audit.AnomalySigma).WithMetrics(reg)
			stages.Publisher = publisher
		}

		m, err := p.Run(ctx, src, stages)
		if err != nil {
			return err
		}
		color.Green("\n✅ Snapshot %s ready", m.SnapshotID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Int64("seed", 0, "Override the sampler seed")
	generateCmd.Flags().String("reference-date", "", "Override the reference date (YYYY-MM-DD)")
	generateCmd.Flags().BoolVar(&generateAndLoad, "load", false, "Also load, audit and announce the snapshot")

	viper.BindPFlag("seed", generateCmd.Flags().Lookup("seed"))
	viper.BindPFlag("reference_date", generateCmd.Flags().Lookup("reference-date"))
}
