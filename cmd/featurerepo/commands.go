package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/featurerepo/internal/config"
	"github.com/koustreak/featurerepo/internal/datasource"
	"github.com/koustreak/featurerepo/internal/server"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter feature repo file",
		Long: `Write a starter feature repo file declaring the driver statistics source
on the in-cluster MinIO. The file names the credential environment variables;
it never contains the keys themselves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", opts.configPath)
			}

			data, err := config.Marshal(config.Default())
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.configPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			absPath, _ := filepath.Abs(opts.configPath)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ feature repo file created: %s\n", absPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the feature repo file and every source declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := opts.openRepo(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer r.Close()

			if ping {
				if err := r.Ping(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, src := range r.Sources() {
				fmt.Fprintf(out, "✓ %s -> %s\n", src.Name(), src.StoragePath())
			}
			fmt.Fprintf(out, "%s: %d source(s) valid\n", opts.configPath, len(r.Sources()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Also check that every referenced bucket is reachable")
	return cmd
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [name]",
		Short: "Print source declarations as YAML",
		Long:  "Print source declarations as YAML. Credentials are not needed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			summaries := make([]datasource.Summary, 0, len(cfg.Sources))
			for _, decl := range cfg.Sources {
				if len(args) == 1 && decl.Name != args[0] {
					continue
				}
				src, err := datasource.New(decl.Options())
				if err != nil {
					return fmt.Errorf("source %q: %w", decl.Name, err)
				}
				summaries = append(summaries, src.Describe())
			}
			if len(args) == 1 && len(summaries) == 0 {
				return fmt.Errorf("no data source named %q", args[0])
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(summaries)
		},
	}
}

type statOutput struct {
	Source       string `yaml:"source"`
	URI          string `yaml:"uri"`
	Size         int64  `yaml:"size"`
	ContentType  string `yaml:"content_type,omitempty"`
	ETag         string `yaml:"etag,omitempty"`
	LastModified string `yaml:"last_modified,omitempty"`
}

func newStatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <name>",
		Short: "Show metadata of the object behind a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := opts.openRepo(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer r.Close()

			info, err := r.Stat(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := statOutput{
				Source:      args[0],
				URI:         info.URI.String(),
				Size:        info.Size,
				ContentType: info.ContentType,
				ETag:        info.ETag,
			}
			if !info.LastModified.IsZero() {
				out.LastModified = info.LastModified.UTC().Format(time.RFC3339)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(out)
		},
	}
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <name> <dst>",
		Short: "Download the object behind a source to a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := opts.openRepo(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := r.Download(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", n, args[1])
			return nil
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only inspection API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, log, err := opts.openRepo(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer r.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(r, log).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")
	return cmd
}
