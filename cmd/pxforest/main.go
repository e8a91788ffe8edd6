package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose    bool
	configFile string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pxforest",
		Short: "pxforest trains and serves per-pixel random forest classifiers",
		Long:  `A distributed random-forest training engine for dense, 2-D, per-pixel image classification.`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.PersistentFlags().StringVarP(&(config.configFile), "config", "c", "", "path to a pxforest.yaml config file (optional, searched for by default)")
	rootCmd.AddCommand(versionCmd(), trainCmd(config), predictCmd(config))
	return rootCmd
}
