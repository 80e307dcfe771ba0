package root

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/agentops"
	"github.com/agentops-ai/agentops-go/pkg/cli"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

const maxLineBytes = 4 * 1024 * 1024

type recordFlags struct {
	file     string
	endState string
	rating   string
	tags     []string
}

func newRecordCmd(root *rootFlags) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record events from a JSON lines file",
		Long: `Read one event per line, record them all in a new session and end it.
Lines with an event_type of action, llm or tool are decoded as that event;
lines with error_type or trigger_event are error events. Missing ids and
timestamps are filled in.`,
		Example: `  agentops record --file run.jsonl --end-state success --rating 5
  tail -n 100 trace.jsonl | agentops record --tag replay`,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.runRecordCommand(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "-", "JSON lines file to read, - for stdin")
	cmd.Flags().StringVar(&flags.endState, "end-state", string(session.Success), "End state: Success, Fail or Indeterminate")
	cmd.Flags().StringVar(&flags.rating, "rating", "", "Rating attached to the ended session")
	cmd.Flags().StringArrayVar(&flags.tags, "tag", nil, "Tag the session (repeatable)")

	return cmd
}

func (f *rootFlags) runRecordCommand(cmd *cobra.Command, flags recordFlags) error {
	ctx := cmd.Context()

	state, err := session.ParseEndState(flags.endState)
	if err != nil {
		return err
	}

	records, err := readRecords(cmd.InOrStdin(), flags.file)
	if err != nil {
		return RuntimeError{Err: err}
	}

	cfg, err := f.loadConfig(ctx)
	if err != nil {
		return RuntimeError{Err: err}
	}
	if cfg.APIKey == "" {
		return RuntimeError{Err: errors.New("no API key configured: set AGENTOPS_API_KEY or api_key in the config file")}
	}
	cfg.Tags = append(cfg.Tags, flags.tags...)

	client, err := agentops.New(ctx, cfg)
	if err != nil {
		return RuntimeError{Err: err}
	}
	defer func() { _ = client.Shutdown(context.WithoutCancel(ctx)) }()

	if client.SessionID() == "" {
		if err := client.StartSession(ctx); err != nil {
			return RuntimeError{Err: err}
		}
	}

	for _, r := range records {
		client.Record(r)
	}
	if err := client.EndSession(ctx, state, flags.rating); err != nil {
		return RuntimeError{Err: fmt.Errorf("failed to deliver session %s: %w", client.SessionID(), err)}
	}

	cli.NewPrinter(cmd.OutOrStdout()).PrintSessionSummary(client.SessionID(), state, len(records))
	return nil
}

// readRecords decodes every non-blank line of path, or of stdin when path
// is "-".
func readRecords(stdin io.Reader, path string) ([]event.Record, error) {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open events file: %w", err)
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	now := time.Now()
	var records []event.Record
	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		r, err := event.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		event.FillDefaults(r, now)
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	slog.Debug("Events read", "path", path, "count", len(records))
	return records, nil
}
