package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	"rgehrsitz/semrex/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// ExitErrors have already been reported by the command.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			log.Error().Err(err).Msg("Usage: rex <compile|query> [flags]")
		}
		os.Exit(cli.GetExitCode(err))
	}
}
