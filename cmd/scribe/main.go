// Command scribe serves the transcription API and runs one-off
// transcriptions from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/scribe"

	// Storage backends register themselves with storage.New.
	_ "github.com/kbukum/scribe/storage/local"
	_ "github.com/kbukum/scribe/storage/memory"
	_ "github.com/kbukum/scribe/storage/s3"
)

type rootFlags struct {
	configFile string
	envFile    string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	serve := newServeCmd(flags)

	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Speech-to-text with speaker segments",
		Long:          "scribe uploads audio to a speech-to-text provider and groups the recognised words into speaker segments.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to config.yml")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "path to a .env file")

	root.AddCommand(serve, newTranscribeCmd(flags), newHistoryCmd(flags), newVersionCmd())
	return root
}

// loadConfig reads config.yml, .env and the environment, then applies
// overrides from flags.
func loadConfig(flags *rootFlags, overrides map[string]any) (*scribe.Config, error) {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	for env, key := range scribe.EnvAliases {
		opts = append(opts, config.WithEnvAlias(env, key))
	}
	for key, value := range overrides {
		opts = append(opts, config.WithOverride(key, value))
	}

	cfg := &scribe.Config{}
	if err := config.LoadConfig(scribe.ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
