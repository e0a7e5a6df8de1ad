package main

import (
	"fmt"
	"os"

	"fsptrainer"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "fsptrainer",
	Short:        "Medical terminology trainer (Latin/German term pairs)",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./fsptrainer.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debugging output")
	rootCmd.AddCommand(playCmd, checkCmd)
}

// loadConfig reads the config and sets up logging for a subcommand
func loadConfig() (*fsptrainer.Config, error) {
	cfg, err := fsptrainer.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	fsptrainer.ConfigureLogger(cfg.Log)
	fsptrainer.SetVerbose(verbose)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
