// Package main provides the varloc command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/config"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "varloc",
		Short: "Resolve variant names to genomic coordinates",
		Long: `varloc resolves HGVS variant names and rs identifiers to normalized
genomic coordinates, trying local conversion first and falling back to
gene databases and alignment search.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.varloc.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().String("genome", "", "genome build (default hg19)")
	cmd.PersistentFlags().String("cache-dir", "", "cache directory (default ~/.varloc)")
	viper.BindPFlag("genome", cmd.PersistentFlags().Lookup("genome"))
	viper.BindPFlag("cache_dir", cmd.PersistentFlags().Lookup("cache-dir"))

	cmd.AddCommand(newResolveCmd(&verbose))
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig(cfgFile string) error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".varloc")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VARLOC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

// loadConfig reads and validates the operator configuration, prompting for
// the contact email interactively when it is missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Email == "" {
		email, promptErr := config.PromptEmail(os.Stdin, os.Stderr)
		if promptErr != nil {
			return nil, config.ErrEmailRequired
		}
		cfg.Email = email
		viper.Set("email", email)
		if err := saveConfig(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func saveConfig() error {
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".varloc.yaml")
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
