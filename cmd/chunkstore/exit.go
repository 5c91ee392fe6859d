package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/chunkstore/internal/transfer"
)

const (
	exitOK        = 0
	exitUsage     = 1
	exitTransport = 2
	exitStatus    = 3
	exitIntegrity = 4
)

// failure converts a client error into a cli.ExitCoder carrying the
// user-facing message and the exit code of its class.
func failure(err error) error {
	var (
		se *transfer.StatusError
		te *transfer.TransportError
		ie *transfer.IntegrityError
	)
	switch {
	case errors.As(err, &se):
		return cli.Exit(fmt.Sprintf("> %d %s", se.Code, se.Reason), exitStatus)
	case errors.As(err, &ie):
		return cli.Exit(fmt.Sprintf("> integrity error: %s", ie.Error()), exitIntegrity)
	case errors.As(err, &te):
		return cli.Exit(fmt.Sprintf("> %s", te.Err), exitTransport)
	default:
		return cli.Exit(err.Error(), exitUsage)
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return exitUsage
}
