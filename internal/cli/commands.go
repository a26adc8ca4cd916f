// Package cli defines the stagerun command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/stagerun/internal/version"
	"github.com/arthur-debert/stagerun/pkg/core"
	"github.com/arthur-debert/stagerun/pkg/errors"
	"github.com/arthur-debert/stagerun/pkg/logging"
	"github.com/arthur-debert/stagerun/pkg/ui"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		cwd       string
		quiet     bool
		jobs      int
	)

	rootCmd := &cobra.Command{
		Use:   "stagerun",
		Short: "Run commands against the files staged for commit",
		Long: `stagerun matches the files staged for commit against glob patterns from
your configuration and runs the associated commands (formatters, linters)
on exactly those files. Rules run in parallel; commands within a rule run
in order, with the matched files appended as arguments.

Configuration is read from the "stagerun" key of package.json, or from
.stagerunrc.json, .stagerunrc.yaml or .stagerun.toml.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(verbosity)
			logger.Debug().Str("command", cmd.Name()).Msg("Command started")

			format := ui.FormatAuto.Resolve(os.Stdout)

			result, err := core.Run(cmd.Context(), core.RunOptions{
				Cwd:     cwd,
				Quiet:   quiet,
				Workers: jobs,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSummary(result, format))

			if !result.Ok() {
				return errors.Newf(errors.ErrCommandExit,
					"%d command(s) failed", len(result.Dispatch.Failures()))
			}
			return nil
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.Flags().StringVar(&cwd, "cwd", ".", "Directory to run in (configuration, repository and commands)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Exit successfully when nothing is staged")
	rootCmd.Flags().IntVar(&jobs, "jobs", 0, "Maximum rules running concurrently (0 for the default)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newManCmd(rootCmd))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stagerun version %s\n", version.Version)
			fmt.Fprintf(out, "  commit: %s\n", version.Commit)
			fmt.Fprintf(out, "  built:  %s\n", version.Date)
		},
	}
}

// sampleConfig is the starter configuration emitted by genconfig
const sampleConfig = `{
  "*.go": ["gofmt -w", "go vet"],
  "*.js": "eslint --fix",
  "*.md": "mdlint"
}
`

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: "Print a starter .stagerunrc.json",
		Long: `Print a starter configuration to stdout. Redirect it to get going:

  stagerun genconfig > .stagerunrc.json`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), sampleConfig)
		},
	}
}

func newManCmd(rootCmd *cobra.Command) *cobra.Command {
	var dir string

	manCmd := &cobra.Command{
		Use:    "man",
		Short:  "Generate man pages",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{
				Title:   "STAGERUN",
				Section: "1",
			}
			return doc.GenManTree(rootCmd, header, dir)
		},
	}
	manCmd.Flags().StringVar(&dir, "dir", ".", "Directory to write man pages into")

	return manCmd
}
