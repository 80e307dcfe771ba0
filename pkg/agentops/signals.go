package agentops

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/session"
)

const signalShutdownTimeout = 30 * time.Second

// watchSignals ends the session as Fail when the process is interrupted or
// terminated, then exits with code 0. The returned func uninstalls the
// handler.
func (c *Client) watchSignals(ch chan os.Signal, exit func(int)) func() {
	notify := ch == nil
	if notify {
		ch = make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	}

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			c.onSignal(sig)
			exit(0)
		case <-done:
		}
	}()

	return func() {
		if notify {
			signal.Stop(ch)
		}
		close(done)
	}
}

func (c *Client) onSignal(sig os.Signal) {
	c.logger.Info("Received signal, ending session", "signal", sig.String())
	c.recorder.StopTimer()

	ctx, cancel := context.WithTimeout(context.Background(), signalShutdownTimeout)
	defer cancel()

	if c.hasActiveSession() {
		if err := c.EndSession(ctx, session.Fail, ""); err != nil {
			c.logger.Error("Failed to end session on signal", "error", err)
		}
	}
	if err := c.recorder.Close(ctx); err != nil {
		c.logger.Error("Failed to deliver pending events on signal", "error", err)
	}
}
