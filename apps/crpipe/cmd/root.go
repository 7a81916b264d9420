package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/astrokit/crpipe/pkg/config"
)

type contextKey string

const configContextKey contextKey = "crpipeconfig"

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "crpipe",
		Short: "Run external cosmic-ray correction tools against astro images",
		Long: `crpipe drives external image-correction utilities (lacosmic, deepcr,
cosmetic correction) from the command line. It exports an image to a temp
file, launches the tool's CLI with validated parameters, loads the corrected
result back, and cleans up every temp artifact whether the run succeeds or
fails. Parameter sets can be saved as named presets and replayed in batch.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			if err := cfg.Viper().BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}
)

// GetConfig retrieves the Config from the command context
func GetConfig(cmd *cobra.Command) (*config.Config, error) {
	ctx := cmd.Context()
	cfg, ok := ctx.Value(configContextKey).(*config.Config)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return cfg, nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML). Searches: crpipe.yaml, .crpipe/config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
