package main

import (
	"context"
	"errors"
	"os"

	"github.com/agentops-ai/agentops-go/cmd/root"
)

func main() {
	err := root.Execute(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...)
	if exitErr, ok := errors.AsType[*root.ExitError](err); ok {
		os.Exit(exitErr.Code)
	}
	if err != nil {
		os.Exit(1)
	}
}
