package root

import (
	"cmp"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/cli"
	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/paths"
)

func newConfigCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and write the configuration stored in ~/.config/agentops/config.yaml",
		Example: `  # Show the resolved configuration, keys redacted
  agentops config show

  # Write a config file
  agentops config init --api-key $KEY --tag dev`,
		GroupID: "advanced",
		RunE:    root.runConfigShowCommand,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Long:  "Display the configuration after applying the environment and defaults, with keys redacted",
		Args:  cobra.NoArgs,
		RunE:  root.runConfigShowCommand,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config file and data directory",
		Args:  cobra.NoArgs,
		RunE:  root.runConfigPathCommand,
	})
	cmd.AddCommand(newConfigInitCmd(root))

	return cmd
}

func (f *rootFlags) runConfigShowCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := f.loadConfig(cmd.Context())
	if err != nil {
		return RuntimeError{Err: err}
	}

	data, err := yaml.MarshalWithOptions(cfg.Redacted(), yaml.IndentSequence(true), yaml.UseSingleQuote(false))
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	cli.NewPrinter(cmd.OutOrStdout()).Print(string(data))
	return nil
}

func (f *rootFlags) runConfigPathCommand(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config: %s\n", cmp.Or(f.configPath, paths.GetConfigFile()))
	fmt.Fprintf(out, "data:   %s\n", paths.GetDataDir())
	return nil
}

type configInitFlags struct {
	cfg   config.Config
	force bool
}

func newConfigInitCmd(root *rootFlags) *cobra.Command {
	var flags configInitFlags

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.runConfigInitCommand(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.cfg.APIKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&flags.cfg.OrgKey, "org-key", "", "Organization key")
	cmd.Flags().StringVar(&flags.cfg.Endpoint, "endpoint", "", "Collector endpoint")
	cmd.Flags().StringArrayVar(&flags.cfg.Tags, "tag", nil, "Default session tag (repeatable)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing file")

	return cmd
}

func (f *rootFlags) runConfigInitCommand(cmd *cobra.Command, flags configInitFlags) error {
	path := cmp.Or(f.configPath, paths.GetConfigFile())

	if _, err := os.Stat(path); err == nil && !flags.force {
		return RuntimeError{Err: fmt.Errorf("%s already exists, use --force to overwrite it", path)}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return RuntimeError{Err: err}
	}

	if err := flags.cfg.Validate(); err != nil {
		return RuntimeError{Err: err}
	}
	if err := config.Save(path, flags.cfg); err != nil {
		return RuntimeError{Err: fmt.Errorf("failed to write config: %w", err)}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
