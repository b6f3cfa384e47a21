package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

var schemaApply bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print or apply the DDL of the storefront schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog := schema.Ecommerce()

		if schemaApply {
			ctx := runContext(cmd)
			store, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.CreateSchema(ctx, catalog, cfg.Database.EnforceForeignKeys); err != nil {
				return err
			}
			color.Green("✅ Schema applied to %s", cfg.Database.Provider)
			return nil
		}

		adapter, err := database.NewAdapter(cfg.Database.Provider)
		if err != nil {
			return err
		}
		stmts, err := database.GenerateSchemaSQL(adapter, catalog, cfg.Database.EnforceForeignKeys)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			fmt.Printf("%s;\n\n", stmt)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().String("provider", "", "Database provider (sqlite, sqlite-purego, postgresql, mysql)")
	schemaCmd.Flags().BoolVar(&schemaApply, "apply", false, "Create the tables in the configured database")

	viper.BindPFlag("database.provider", schemaCmd.Flags().Lookup("provider"))
}
