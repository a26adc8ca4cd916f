// Package core wires the stagerun pipeline: load configuration, compile
// rules, locate staged files, dispatch commands.
package core

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/stagerun/pkg/config"
	"github.com/arthur-debert/stagerun/pkg/dispatcher"
	"github.com/arthur-debert/stagerun/pkg/errors"
	"github.com/arthur-debert/stagerun/pkg/repo"
	"github.com/arthur-debert/stagerun/pkg/rules"
)

// RunOptions configures one stagerun invocation
type RunOptions struct {
	// Cwd is the invocation root: configuration is discovered here, the
	// repository is opened from here, and commands run with this as
	// their working directory. Empty means the current directory.
	Cwd string

	// Quiet downgrades "no staged files" from a fatal error to a
	// successful no-op
	Quiet bool

	// Workers bounds rule fan-out; zero means the dispatcher default
	Workers int

	// Logger is the explicit logging handle for the whole run
	Logger zerolog.Logger
}

// RunResult reports what a run did
type RunResult struct {
	// ConfigSource is the configuration file the rules came from
	ConfigSource string

	// Staged is the deduplicated list of staged files
	Staged []string

	// Dispatch holds per-rule, per-command outcomes. Nil when the run
	// was a quiet no-op with nothing staged.
	Dispatch *dispatcher.Result
}

// Ok reports whether every dispatched command succeeded
func (r *RunResult) Ok() bool {
	return r.Dispatch == nil || r.Dispatch.Ok()
}

// Run executes the full pipeline. Configuration and repository errors
// abort before any command is spawned; per-command failures are recorded
// in the result and reported through RunResult.Ok.
func Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	log := opts.Logger.With().Str("component", "core").Logger()

	cwd := opts.Cwd
	if cwd == "" {
		cwd = "."
	}
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "failed to resolve working directory")
	}

	log.Debug().Str("cwd", cwd).Msg("starting run")

	cfg, err := config.Load(cwd, opts.Logger)
	if err != nil {
		return nil, err
	}

	ruleSet, err := rules.Compile(cfg.Entries)
	if err != nil {
		return nil, err
	}

	repository, err := repo.Open(cwd, opts.Logger)
	if err != nil {
		return nil, err
	}

	staged, err := repository.StagedFiles()
	if err != nil {
		return nil, err
	}

	result := &RunResult{ConfigSource: cfg.Source, Staged: staged}

	if len(staged) == 0 {
		if opts.Quiet {
			log.Info().Msg("no staged files, nothing to do")
			return result, nil
		}
		return nil, errors.New(errors.ErrNoStagedFiles, "no staged files")
	}

	result.Dispatch = dispatcher.Run(ctx, opts.Logger, ruleSet, staged, dispatcher.Options{
		Cwd:     cwd,
		Root:    repository.Root(),
		Workers: opts.Workers,
	})

	return result, nil
}
