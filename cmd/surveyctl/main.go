package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"surveystats/config"
	"surveystats/internal/analytics"
	"surveystats/internal/app"
	surveycfg "surveystats/internal/config"
	"surveystats/internal/model"
	"surveystats/internal/report"
)

// cli holds flag values and lazily built dependencies
type cli struct {
	schemaFile string
	level      float64
	threshold  int
	extended   bool
	verbose    bool

	logger *zap.Logger
	schema *model.Schema
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	defaults, err := surveycfg.DefaultAnalysisConfig(model.DefaultScale())
	if err != nil {
		defaults = &surveycfg.AnalysisConfig{Options: analytics.DefaultOptions()}
	}

	root := &cobra.Command{
		Use:   "surveyctl",
		Short: "Analyze Likert survey responses",
		Long: `surveyctl computes descriptive statistics and t-based confidence
intervals for Likert survey responses, from a CSV file or the survey database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if c.verbose {
				level = "debug"
			}
			logger, err := app.NewLogger(level)
			if err != nil {
				return err
			}
			c.logger = logger

			c.schema, err = surveycfg.SchemaOrDefault(c.schemaFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				cfg, err := surveycfg.DefaultAnalysisConfig(c.schema.Scale())
				if err != nil {
					return err
				}
				c.threshold = cfg.Options.AgreementThreshold
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.schemaFile, "schema", os.Getenv("SCHEMA_FILE"), "YAML schema file (default: built-in AI survey)")
	pf.Float64Var(&c.level, "level", defaults.Options.ConfidenceLevel, "confidence level of section intervals")
	pf.IntVar(&c.threshold, "threshold", defaults.Options.AgreementThreshold, "lowest answer counted as agreement; unset follows AGREEMENT_THRESHOLD or the scale midpoint")
	pf.BoolVar(&c.extended, "extended", defaults.Extended, "add mode, min and max columns")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.analyzeCmd(),
		c.stratifyCmd(),
		c.schemaCmd(),
		c.importCmd(),
		c.exportCmd(),
	)
	return root
}

func (c *cli) options() analytics.Options {
	return analytics.Options{ConfidenceLevel: c.level, AgreementThreshold: c.threshold}
}

func (c *cli) tableOptions() report.Options {
	return report.Options{Extended: c.extended}
}

// connect opens the survey database the way the server does
func (c *cli) connect(cmd *cobra.Command) (*app.App, error) {
	cfg := config.Load()
	if c.schemaFile != "" {
		cfg.SchemaFile = c.schemaFile
	}
	a, err := app.New(cmd.Context(), cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return a, nil
}
