package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/koustreak/featurerepo/internal/config"
	"github.com/koustreak/featurerepo/internal/logger"
	"github.com/koustreak/featurerepo/internal/repo"
)

const defaultConfigPath = "feature_repo.yaml"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "featurerepo",
		Short: "Validate, inspect and serve feature-repo file sources",
		Long: `featurerepo reads a feature_repo.yaml declaring file data sources stored
in an S3-compatible object store (MinIO or AWS S3).

The object-store key pair is read from the environment variables named in
the file (FEATUREREPO_S3_ACCESS_KEY and FEATUREREPO_S3_SECRET_KEY by default).`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Feature repo file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides the file)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: json, console (overrides the file)")

	cmd.AddCommand(
		newInitCmd(opts),
		newValidateCmd(opts),
		newDescribeCmd(opts),
		newStatCmd(opts),
		newFetchCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// loadConfig reads the feature repo file and applies flag overrides.
// Overrides are held to the same level and format sets as the file.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRepo loads the file and binds it to the object store. Logs go to
// errOut so command output on stdout stays parseable.
func (o *rootOptions) openRepo(errOut io.Writer) (*repo.Repo, *logger.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.LoggerConfig(errOut))
	r, err := repo.Load(cfg, repo.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", o.configPath, err)
	}
	return r, log, nil
}
