package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/httpclient"
	"github.com/agentops-ai/agentops-go/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the version information",
		Long:    `Display the version, commit hash and the User-Agent sent to the API`,
		GroupID: "advanced",
		Args:    cobra.NoArgs,
		Run:     runVersionCommand,
	}
}

func runVersionCommand(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "agentops version %s\n", version.Version)
	fmt.Fprintf(out, "Commit: %s\n", version.Commit)
	fmt.Fprintf(out, "User-Agent: %s\n", httpclient.UserAgent())
}
