package root

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/cli"
	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/environment"
	"github.com/agentops-ai/agentops-go/pkg/logging"
	"github.com/agentops-ai/agentops-go/pkg/paths"
)

const (
	logFileMaxBytes = 10 * 1024 * 1024
	logFileBackups  = 3
)

type rootFlags struct {
	enableOtel  bool
	debugMode   bool
	logFilePath string
	configPath  string
	envFiles    []string

	logFile      io.Closer
	shutdownOtel func(context.Context) error
}

func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "agentops",
		Short: "agentops - record agent sessions",
		Long:  "agentops records sessions and events and ships them to an AgentOps collector",
		Example: `  agentops run -- python agent.py
  agentops record --file events.jsonl --end-state success
  agentops collector --db sessions.db`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags.setupLogging(cmd.ErrOrStderr())

			if flags.enableOtel {
				shutdown, err := initOTelSDK(cmd.Context())
				if err != nil {
					slog.Warn("Failed to initialize OpenTelemetry SDK", "error", err)
				} else {
					flags.shutdownOtel = shutdown
					slog.Debug("OpenTelemetry SDK initialized successfully")
				}
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if flags.shutdownOtel != nil {
				if err := flags.shutdownOtel(context.WithoutCancel(cmd.Context())); err != nil {
					slog.Warn("Failed to flush traces", "error", err)
				}
			}
			if flags.logFile != nil {
				if err := flags.logFile.Close(); err != nil {
					slog.Error("Failed to close log file", "error", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.enableOtel, "otel", "o", false, "Enable OpenTelemetry tracing")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Write logs to this file instead of stderr")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to the config file (default: ~/.config/agentops/config.yaml)")
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "Read AGENTOPS_* variables from these files when unset")

	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "advanced", Title: "Advanced Commands:"})

	cmd.AddCommand(newRunCmd(&flags))
	cmd.AddCommand(newRecordCmd(&flags))
	cmd.AddCommand(newCollectorCmd())
	cmd.AddCommand(newConfigCmd(&flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	rootCmd := NewRootCmd()
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return processErr(ctx, err, stderr, rootCmd)
	}
	return nil
}

func processErr(ctx context.Context, err error, stderr io.Writer, rootCmd *cobra.Command) error {
	if ctx.Err() != nil {
		return ctx.Err()
	} else if _, ok := errors.AsType[*ExitError](err); ok {
		// The child already reported its own failure
	} else if _, ok := errors.AsType[RuntimeError](err); ok {
		cli.NewPrinter(stderr).PrintError(err)
	} else {
		// Command line usage errors - show the error and usage
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr)
		if strings.HasPrefix(err.Error(), "unknown command ") || strings.HasPrefix(err.Error(), "accepts ") {
			_ = rootCmd.Usage()
		}
	}

	return err
}

// setupLogging installs the default slog handler. Logs go to stderr, or to a
// size-capped file with --log-file. --debug lowers the level to debug.
func (f *rootFlags) setupLogging(stderr io.Writer) {
	level := slog.LevelInfo
	if f.debugMode {
		level = slog.LevelDebug
	}

	var out io.Writer = stderr
	if path := strings.TrimSpace(f.logFilePath); path != "" {
		logFile, err := logging.OpenFile(logging.FileConfig{
			Path:     path,
			MaxBytes: logFileMaxBytes,
			Backups:  logFileBackups,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open log file %s, logging to stderr: %v\n", path, err)
		} else {
			f.logFile = logFile
			out = logFile
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves the config file, then the environment and any
// --env-file, then defaults.
func (f *rootFlags) loadConfig(ctx context.Context) (config.Config, error) {
	env, err := environment.NewDefaultProvider(f.envFiles...)
	if err != nil {
		return config.Config{}, err
	}

	path := cmp.Or(f.configPath, paths.GetConfigFile())
	cfg, err := config.Load(ctx, path, env)
	if err != nil {
		return cfg, err
	}

	slog.Debug("Configuration loaded", "path", path, "endpoint", cfg.Endpoint, "tags", cfg.Tags)
	return cfg, nil
}

// RuntimeError wraps runtime errors to distinguish them from usage errors
type RuntimeError struct {
	Err error
}

func (e RuntimeError) Error() string {
	return e.Err.Error()
}

func (e RuntimeError) Unwrap() error {
	return e.Err
}

// ExitError carries the exit code of a command run by `agentops run`.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
