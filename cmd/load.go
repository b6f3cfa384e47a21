package cmd

import (

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/announce"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/audit"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/pipeline"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

var skipAudit bool

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate stored artifacts and load them into the database",
	Long: `Read the CSV files and manifest from the artifact store, check their
checksums, validate them again and load the snapshot in a single transaction.
The store is audited afterwards unless --skip-audit is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		snap, m, err := p.ReadArtifacts(ctx, artifacts)
		if err != nil {
			return err
		}

		store, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		publisher := announce.New(cfg.Announce.Kafka)
		defer publisher.Close()

		stages := pipeline.Stages{
			Loader:    newWriter(cfg, store, reg),
			Publisher: publisher,
		}
		if !skipAudit {
			stages.Auditor = audit.New(store, schema.Ecommerce(), cfg.Audit.AnomalySigma).WithMetrics(reg)
		}
		if err := p.Deliver(ctx, snap, m, stages); err != nil {
			return err
		}

		counts, err := store.RowCounts(ctx, tableNames())
		if err != nil {
			return err
		}
		pipeline.PrintCounts(counts)
		color.Green("\n✅ Snapshot %s loaded", m.SnapshotID)
		return nil
	},
}

func tableNames() []string {
	order, _ := schema.Ecommerce().InsertionOrder()
	return order
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("mode", "", "Behaviour when the store is not empty: replace or refuse")
	loadCmd.Flags().Int("chunk-size", 0, "Rows per savepoint chunk")
	loadCmd.Flags().BoolVar(&skipAudit, "skip-audit", false, "Do not audit the store after loading")

	viper.BindPFlag("load.mode", loadCmd.Flags().Lookup("mode"))
	viper.BindPFlag("load.chunk_size", loadCmd.Flags().Lookup("chunk-size"))
}
