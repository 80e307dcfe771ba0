package root

import (
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentops-ai/agentops-go/pkg/cli"
	"github.com/agentops-ai/agentops-go/pkg/collector"
)

type collectorFlags struct {
	listenAddrs []string
	dbPath      string
	apiKey      string
}

func newCollectorCmd() *cobra.Command {
	var flags collectorFlags

	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Run a local collector",
		Long: `Serve the sessions and events endpoints of the AgentOps API locally.
Point the SDK at it with AGENTOPS_ENDPOINT=http://localhost:8787.`,
		Example: `  agentops collector
  agentops collector --db ~/.agentops/sessions.db --api-key dev
  agentops collector --listen unix:///tmp/agentops.sock --listen 127.0.0.1:8787`,
		GroupID: "advanced",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollectorCommand(cmd, flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.listenAddrs, "listen", "l", []string{":8787"}, "Addresses to listen on (host:port or unix://path)")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "SQLite database file (default: in memory)")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "Only accept this API key (default: any non-empty key)")

	return cmd
}

func runCollectorCommand(cmd *cobra.Command, flags collectorFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store collector.Store = collector.NewMemoryStore()
	if flags.dbPath != "" {
		sqlite, err := collector.NewSQLiteStore(ctx, flags.dbPath)
		if err != nil {
			return RuntimeError{Err: err}
		}
		store = sqlite
	}
	defer store.Close()

	var opts []collector.Opt
	if flags.apiKey != "" {
		opts = append(opts, collector.WithAPIKey(flags.apiKey))
	}
	srv := collector.New(store, opts...)

	out := cli.NewPrinter(cmd.OutOrStdout())
	listeners := make([]net.Listener, 0, len(flags.listenAddrs))
	for _, addr := range flags.listenAddrs {
		ln, err := collector.Listen(ctx, addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return RuntimeError{Err: err}
		}
		listeners = append(listeners, ln)
		out.PrintListening(ln.Addr().String())
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, ln := range listeners {
		g.Go(func() error { return srv.Serve(ctx, ln) })
	}

	if err := g.Wait(); err != nil {
		return RuntimeError{Err: err}
	}
	slog.Debug("Collector stopped")
	return nil
}
