package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"silva/internal/config"
	"silva/internal/logging"
	"silva/internal/version"
)

var (
	debugFlag bool
	cfg       *config.Config

	rootCmd = &cobra.Command{
		Use:   "silva",
		Short: "Silva - container workflow automation",
		Long: `Silva runs directory-defined workflows: each job folder declares a
container image, three scripts and typed parameters, and the engine
executes the jobs in dependency order, piping outputs between them.`,
		Version: version.GetVersionString(),
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(paramsCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if debugFlag {
		cfg.Debug = true
	}
}

func initLogging() {
	logging.Initialize(cfg.Debug)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
