// Package cli implements the twin command line.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"digitaltwin/internal/config"
)

// version is set at build time with -ldflags "-X digitaltwin/internal/cli.version=...".
var version = "dev"

var (
	cfgPath string
	verbose bool
	appCfg  *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "twin",
	Short: "Chat with a digital twin grounded in a profile document",
	Long: `twin answers questions about one person using only the facts in their
profile document. It searches a vector index when one is configured and
reachable, and falls back to keyword rules over the profile otherwise.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/twin/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	_ = godotenv.Load()

	var err error
	if cfgPath == "" {
		appCfg, _, err = config.LoadDefault()
	} else {
		appCfg, err = config.Load(cfgPath)
	}
	return err
}
