package root

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/agentops"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

type runFlags struct {
	tags []string
}

func newRunCmd(root *rootFlags) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command inside a session",
		Long: `Run a command with a session open. The command is recorded as an action
event; the session ends Success when it exits 0 and Fail otherwise. The
command's exit code is passed through.`,
		Example: `  agentops run -- python agent.py
  agentops run --tag nightly --tag eval -- ./bench.sh --fast`,
		GroupID: "core",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runCommand(cmd, args, flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.tags, "tag", nil, "Tag the session (repeatable)")

	return cmd
}

func (f *rootFlags) runCommand(cmd *cobra.Command, args []string, flags runFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := f.loadConfig(ctx)
	if err != nil {
		return RuntimeError{Err: err}
	}
	cfg.Tags = append(cfg.Tags, flags.tags...)

	// The child gets the same signals; the session ends when it exits.
	client, err := agentops.New(ctx, cfg, agentops.WithoutSignalHandling())
	if err != nil {
		return RuntimeError{Err: err}
	}
	defer func() { _ = client.Shutdown(context.WithoutCancel(ctx)) }()

	run := agentops.WrapErr(client, filepath.Base(args[0]), func(ctx context.Context, argv []string) (int, error) {
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = cmd.InOrStdin()
		c.Stdout = cmd.OutOrStdout()
		c.Stderr = cmd.ErrOrStderr()

		err := c.Run()
		if exitErr, ok := errors.AsType[*exec.ExitError](err); ok {
			return exitErr.ExitCode(), err
		}
		if err != nil {
			return -1, err
		}
		return 0, nil
	})

	code, runErr := run(ctx, args)

	state := session.Success
	if runErr != nil {
		state = session.Fail
	}
	endCtx := context.WithoutCancel(ctx)
	if err := client.EndSession(endCtx, state, ""); err != nil {
		slog.Warn("Failed to deliver session", "session_id", client.SessionID(), "error", err)
	}

	if runErr == nil {
		return nil
	}
	if _, ok := errors.AsType[*exec.ExitError](runErr); ok {
		// A child killed by a signal reports -1
		return &ExitError{Code: max(code, 1)}
	}
	return RuntimeError{Err: runErr}
}
