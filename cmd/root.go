package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	quiet       bool
	metricsFile string
	configErr   error
	Version     = "0.3.0"
)

var rootCmd = &cobra.Command{
	Use:   "ecomgen",
	Short: "Synthetic e-commerce dataset generator and validating loader",
	Long: `
ecomgen generates a referentially consistent storefront snapshot
(customers, products, orders, order_items, payments), validates every
table before it is persisted, loads it into a relational store in one
transaction and audits the result.

Database Support:
- SQLite (cgo or pure-Go driver)
- PostgreSQL
- MySQL`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			color.Output = io.Discard
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("ecomgen version %s\n", Version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the command tree. An interrupt or SIGTERM cancels the run
// context, so an open load transaction is rolled back before exit.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return executeContext(ctx)
}

func executeContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runContext returns the context the tree was executed with. Cobra only hands
// it to a subcommand the first time that subcommand runs.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Root().Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ecomgen.config.{json,yaml})")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write prometheus metrics to this file in textfile format")
	rootCmd.PersistentFlags().String("artifacts-dir", "", "Override the artifact directory")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")

	viper.BindPFlag("artifacts.dir", rootCmd.PersistentFlags().Lookup("artifacts-dir"))
}

func initConfig() {
	configErr = nil
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("ecomgen.config")
	}

	viper.SetEnvPrefix("ECOMGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = err
		}
	}
}
