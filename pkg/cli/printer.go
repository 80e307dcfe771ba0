// Package cli formats command output.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/agentops-ai/agentops-go/pkg/session"
)

var (
	bold  = color.New(color.Bold).SprintfFunc()
	green = color.New(color.FgGreen, color.Bold).SprintfFunc()
	red   = color.New(color.FgRed, color.Bold).SprintfFunc()
)

type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out: out,
	}
}

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Printer) Print(a ...any) {
	fmt.Fprint(p.out, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) {
	p.Printf("%s %s\n", red("Error:"), err)
}

// PrintSessionSummary prints how many events a finished session carried.
func (p *Printer) PrintSessionSummary(sessionID string, state session.EndState, count int) {
	p.Printf("Recorded %d events in session %s (%s)\n", count, sessionID, formatState(state))
}

// PrintListening prints an address the collector accepts connections on.
func (p *Printer) PrintListening(addr string) {
	p.Printf("Listening on %s\n", bold(addr))
}

func formatState(state session.EndState) string {
	switch state {
	case session.Success:
		return green(string(state))
	case session.Fail:
		return red(string(state))
	default:
		return bold(string(state))
	}
}
