package cmd

import (

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/audit"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/pipeline"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check the database against the stored snapshot manifest",
	Long: `Compare row counts with the manifest, scan every foreign key for
orphans, recompute line and order totals, and check that payment
discrepancies match the injected anomalies.`,
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
		m, err := artifact.ReadManifest(ctx, artifacts)
		if err != nil {
			return err
		}

		store, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		r, err := p.Audit(ctx, audit.New(store, schema.Ecommerce(), cfg.Audit.AnomalySigma).WithMetrics(reg), m)
		if r != nil {
			pipeline.PrintCounts(r.Counts)
		}
		if err != nil {
			return err
		}
		color.Green("\n✅ Store matches snapshot %s", m.SnapshotID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
