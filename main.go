package main

import (
	"os"

	"github.com/pojntfx/pojde-rs/cmd"
	"github.com/pojntfx/pojde-rs/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
