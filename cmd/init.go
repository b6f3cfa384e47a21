package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
)

var (
	initPath  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a documented default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initPath); err == nil && !initForce {
			color.Yellow("⚠️  %s already exists", initPath)
			color.Yellow("💡 Use --force to overwrite it")
			return fmt.Errorf("refusing to overwrite %s", initPath)
		}

		data, err := config.MarshalDocumented(config.Default())
		if err != nil {
			return err
		}
		if err := os.WriteFile(initPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", initPath, err)
		}

		color.Green("✅ Wrote %s", initPath)
		color.Cyan("\n📝 Next steps:")
		fmt.Println("  1. Set DATABASE_URL (or database.url) for your target store")
		fmt.Println("  2. ecomgen generate")
		fmt.Println("  3. ecomgen load")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPath, "path", "ecomgen.config.yaml", "Where to write the config")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config")
}
