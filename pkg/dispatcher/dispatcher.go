// Package dispatcher fans rules out across a bounded worker pool and runs
// each rule's commands against the staged files matching its pattern.
//
// Rules are independent and execute concurrently in no particular order.
// Commands within one rule run strictly in declared order, since later
// commands may depend on the side effects of earlier ones (format, then
// verify). Every spawned child is waited on before Run returns; a failing
// command never cancels sibling rules.
//
// Command strings are split on whitespace into executable and static
// arguments. There is no shell quoting or escaping support: an argument
// containing spaces cannot be expressed. Known limitation.
package dispatcher

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/stagerun/pkg/errors"
	"github.com/arthur-debert/stagerun/pkg/rules"
)

// DefaultWorkers is the rule fan-out bound used when Options.Workers is zero
const DefaultWorkers = 4

// Options configures a dispatch run
type Options struct {
	// Cwd is the working directory for spawned commands
	Cwd string

	// Root is the repository root that staged paths are relativized
	// against when matching
	Root string

	// Workers bounds how many rules execute concurrently.
	// Zero means DefaultWorkers.
	Workers int
}

// CommandResult records one command invocation within a rule
type CommandResult struct {
	Pattern string
	Command string
	Err     error
}

// RuleResult records the outcome of one rule: the files it matched and
// the result of each of its commands. Skipped is true when the rule
// matched no staged files, in which case no commands were spawned.
type RuleResult struct {
	Pattern  string
	Matched  []string
	Skipped  bool
	Commands []CommandResult
}

// Result aggregates every rule's outcome for one run
type Result struct {
	Rules []RuleResult
}

// Failures returns every failed command invocation across all rules
func (r *Result) Failures() []CommandResult {
	var failures []CommandResult
	for _, rule := range r.Rules {
		for _, command := range rule.Commands {
			if command.Err != nil {
				failures = append(failures, command)
			}
		}
	}
	return failures
}

// Ok reports whether every spawned command succeeded
func (r *Result) Ok() bool {
	return len(r.Failures()) == 0
}

// Run dispatches every rule in ruleSet against the staged file list and
// blocks until all spawned commands have completed. Per-command failures
// are recorded in the result, never propagated as an error and never
// allowed to cancel sibling rules.
func Run(ctx context.Context, logger zerolog.Logger, ruleSet *rules.RuleSet, staged []string, opts Options) *Result {
	log := logger.With().Str("component", "dispatcher").Logger()

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(ruleSet.Rules) {
		workers = len(ruleSet.Rules)
	}

	log.Debug().
		Int("rules", len(ruleSet.Rules)).
		Int("staged", len(staged)).
		Int("workers", workers).
		Str("cwd", opts.Cwd).
		Msg("dispatching rules")

	result := &Result{Rules: make([]RuleResult, len(ruleSet.Rules))}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result.Rules[idx] = runRule(ctx, log, &ruleSet.Rules[idx], staged, opts)
			}
		}()
	}

	for idx := range ruleSet.Rules {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	log.Debug().Int("failures", len(result.Failures())).Msg("dispatch complete")
	return result
}

// runRule filters the staged list for one rule and runs its commands in
// declared order. A rule with no matched files is skipped entirely rather
// than invoked with zero path arguments, since many linters treat an
// empty target list as "lint everything".
func runRule(ctx context.Context, log zerolog.Logger, rule *rules.Rule, staged []string, opts Options) RuleResult {
	log.Debug().Str("pattern", rule.Pattern).Msg("processing rule")

	matched := rule.MatchAll(opts.Root, staged)
	if len(matched) == 0 {
		log.Debug().Str("pattern", rule.Pattern).Msg("no staged files matched, skipping rule")
		return RuleResult{Pattern: rule.Pattern, Skipped: true}
	}

	ruleResult := RuleResult{
		Pattern:  rule.Pattern,
		Matched:  matched,
		Commands: make([]CommandResult, 0, len(rule.Commands)),
	}

	for _, command := range rule.Commands {
		err := runCommand(ctx, log, command, matched, opts)
		ruleResult.Commands = append(ruleResult.Commands, CommandResult{
			Pattern: rule.Pattern,
			Command: command,
			Err:     err,
		})
	}

	return ruleResult
}

// runCommand spawns one command with the matched paths appended as
// trailing arguments and waits for it to finish.
func runCommand(ctx context.Context, log zerolog.Logger, command string, matched []string, opts Options) error {
	parts := strings.Fields(command)
	executable, staticArgs := parts[0], parts[1:]

	args := make([]string, 0, len(staticArgs)+len(matched))
	args = append(args, staticArgs...)
	args = append(args, matched...)

	log.Debug().
		Str("executable", executable).
		Strs("args", args).
		Msg("spawning command")

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = opts.Cwd
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		return errors.Newf(errors.ErrCommandExit, "command %q exited with status %d", command, exitErr.ExitCode()).
			WithDetail("exitCode", exitErr.ExitCode())
	}
	return errors.Wrapf(err, errors.ErrCommandSpawn, "failed to start %q", command)
}
