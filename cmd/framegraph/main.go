// framegraph renders a task-graph pipeline headlessly and serves its
// configuration tree for live tuning.
//
// Usage:
//
//	framegraph run [--frames=N] [--profile=low] [--set Forward.Draw.maxDrawn=100] [--debug]
//	framegraph tree [--pipeline=forward]
//	framegraph version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/framegraph/config"
	"github.com/kbukum/framegraph/version"
)

const appName = "framegraph"

var rootFlags struct {
	configFile string
	envFile    string
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Render task graphs headlessly and tune them live",
	Long: `framegraph builds a render pipeline from a registered task graph and
renders it frame by frame against a recording GPU backend.

Job parameters live in a configuration tree addressed by node path
(e.g. Forward.Draw). They can be set from a YAML profile, from --set
overrides, or over HTTP through the debug surface while frames render.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configFile, "config", "", "Config file (default: ./cmd/framegraph/config.yml, ./config.yml)")
	pf.StringVar(&rootFlags.envFile, "env", "", "Env file loaded before FRAMEGRAPH_* variables are read")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.Get().Short()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, env file and FRAMEGRAPH_* variables.
// Defaults and validation are left to bootstrap.NewApp.
func loadConfig() (*config.AppConfig, error) {
	var opts []config.LoaderOption
	if rootFlags.configFile != "" {
		opts = append(opts, config.WithConfigFile(rootFlags.configFile))
	}
	if rootFlags.envFile != "" {
		opts = append(opts, config.WithEnvFile(rootFlags.envFile))
	}

	cfg := &config.AppConfig{}
	if err := config.LoadConfig(appName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	return cfg, nil
}
