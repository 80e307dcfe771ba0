package version

// Set at build time with -ldflags "-X github.com/agentops-ai/agentops-go/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
)
