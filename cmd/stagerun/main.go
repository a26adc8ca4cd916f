package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/stagerun/internal/cli"
	"github.com/arthur-debert/stagerun/pkg/ui"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		format := ui.FormatAuto.Resolve(os.Stderr)
		fmt.Fprintln(os.Stderr, ui.RenderError(err, format))
		os.Exit(1)
	}
}
