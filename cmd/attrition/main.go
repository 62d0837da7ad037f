// Command attrition runs the HR attrition analysis pipeline over the IBM HR
// CSV and writes figures and tables to an output directory.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himetrics/attrition/internal/report"
	"github.com/himetrics/attrition/pkg/log"
)

func main() {
	cmd := &cobra.Command{
		Use:   "attrition",
		Short: "HR attrition analysis over the IBM HR dataset",
		RunE:  run,
		Args:  cobra.NoArgs,

		SilenceUsage: true,
	}

	setupFlags(cmd)
	if err := bindFlags(cmd); err != nil {
		cmd.PrintErrln(err)
		os.Exit(1)
	}

	cobra.OnInitialize(initConfig)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			logger := log.Logger()
			logger.Warn().Err(err).Msg("config file not read")
		}
	}
	viper.SetEnvPrefix("ATTRITION")
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, _ []string) error {
	if err := log.SetupConsole(viper.GetString("log-level")); err != nil {
		return err
	}

	cfg := report.Config{
		CSVPath:      viper.GetString("csv"),
		OutDir:       viper.GetString("out"),
		Seed:         viper.GetInt64("seed"),
		TestFraction: viper.GetFloat64("test-fraction"),
		Out:          cmd.OutOrStdout(),
	}

	summary, err := report.Run(cfg)
	logger := log.Logger()
	if err != nil {
		logger.Error().Err(err).Msg("analysis failed")
		return err
	}

	logger.Info().
		Int(log.SamplesKey, summary.Rows).
		Int("outliers", summary.Outliers).
		Int(log.ClustersKey, summary.Clusters).
		Msg("analysis finished")
	return nil
}

func setupFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("csv", "c", "WA_Fn-UseC_-HR-Employee-Attrition.csv", "path to the HR attrition CSV")
	cmd.Flags().StringP("out", "o", "out", "output directory for figures")
	cmd.Flags().Int64P("seed", "s", 42, "random seed for the split and the embedding")
	cmd.Flags().Float64("test-fraction", 0.2, "held-out fraction of the stratified split")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("config", "", "optional config file")
}

func bindFlags(cmd *cobra.Command) error {
	for _, name := range []string{"csv", "out", "seed", "test-fraction", "log-level", "config"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
