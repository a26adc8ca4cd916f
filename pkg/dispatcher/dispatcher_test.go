// pkg/dispatcher/dispatcher_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Spawns shell script fixtures
// PURPOSE: Test rule fan-out, command ordering, and failure aggregation

package dispatcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/stagerun/pkg/config"
	"github.com/arthur-debert/stagerun/pkg/errors"
	"github.com/arthur-debert/stagerun/pkg/rules"
)

// writeScript creates an executable shell script fixture and returns its path
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

// recordScript appends its arguments as one line to outFile each time it runs
func recordScript(t *testing.T, dir string, outFile string) string {
	t.Helper()
	return writeScript(t, dir, "record.sh", `echo "$@" >> `+outFile)
}

func recordedLines(t *testing.T, outFile string) []string {
	t.Helper()
	data, err := os.ReadFile(outFile)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func compileRules(t *testing.T, entries ...config.Entry) *rules.RuleSet {
	t.Helper()
	ruleSet, err := rules.Compile(entries)
	require.NoError(t, err)
	return ruleSet
}

func TestRun_MatchedFilesOnly(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.log")
	script := recordScript(t, dir, outFile)

	ruleSet := compileRules(t, config.Entry{Pattern: "*.js", Commands: []string{script + " ran"}})
	staged := []string{filepath.Join(dir, "a.js"), filepath.Join(dir, "b.txt")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir})

	require.True(t, result.Ok())
	lines := recordedLines(t, outFile)
	require.Len(t, lines, 1)
	assert.Equal(t, "ran "+filepath.Join(dir, "a.js"), lines[0])
	assert.NotContains(t, lines[0], "b.txt")
}

func TestRun_CommandsInDeclaredOrder(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.log")
	script := recordScript(t, dir, outFile)

	ruleSet := compileRules(t, config.Entry{
		Pattern:  "*.ts",
		Commands: []string{script + " fmt", script + " lint"},
	})
	staged := []string{filepath.Join(dir, "x.ts")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir})

	require.True(t, result.Ok())
	lines := recordedLines(t, outFile)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "fmt "), "fmt must run before lint, got %q", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "lint "), "lint must run after fmt, got %q", lines[1])
}

func TestRun_FailingRuleDoesNotStopSiblings(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.log")
	record := recordScript(t, dir, outFile)
	fail := writeScript(t, dir, "fail.sh", "exit 3")

	ruleSet := compileRules(t,
		config.Entry{Pattern: "*.js", Commands: []string{fail}},
		config.Entry{Pattern: "*.css", Commands: []string{record + " ok"}},
	)
	staged := []string{filepath.Join(dir, "a.js"), filepath.Join(dir, "style.css")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir})

	assert.False(t, result.Ok())

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "*.js", failures[0].Pattern)
	assert.True(t, errors.IsErrorCode(failures[0].Err, errors.ErrCommandExit))
	assert.Equal(t, 3, errors.GetErrorDetails(failures[0].Err)["exitCode"])

	// The sibling rule still completed
	lines := recordedLines(t, outFile)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "ok "))
}

func TestRun_SpawnFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()

	ruleSet := compileRules(t, config.Entry{
		Pattern:  "*.js",
		Commands: []string{"definitely-not-a-real-executable-3aa1f"},
	})
	staged := []string{filepath.Join(dir, "a.js")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir})

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.True(t, errors.IsErrorCode(failures[0].Err, errors.ErrCommandSpawn))
}

func TestRun_FailedCommandDoesNotStopLaterCommandsInRule(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.log")
	record := recordScript(t, dir, outFile)
	fail := writeScript(t, dir, "fail.sh", "exit 1")

	ruleSet := compileRules(t, config.Entry{
		Pattern:  "*.js",
		Commands: []string{fail, record + " second"},
	})
	staged := []string{filepath.Join(dir, "a.js")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir})

	require.Len(t, result.Failures(), 1)
	lines := recordedLines(t, outFile)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "second "))
}

func TestRun_RuleWithNoMatchesIsSkipped(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.log")
	script := recordScript(t, dir, outFile)

	ruleSet := compileRules(t, config.Entry{Pattern: "*.py", Commands: []string{script + " ran"}})
	staged := []string{filepath.Join(dir, "a.js")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir})

	require.True(t, result.Ok())
	require.Len(t, result.Rules, 1)
	assert.True(t, result.Rules[0].Skipped)
	assert.Empty(t, result.Rules[0].Commands)
	assert.Empty(t, recordedLines(t, outFile), "skipped rule must not spawn anything")
}

func TestRun_ManyRulesWithBoundedWorkers(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.log")
	script := recordScript(t, dir, outFile)

	entries := make([]config.Entry, 0, 8)
	for _, ext := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		entries = append(entries, config.Entry{
			Pattern:  "*." + ext,
			Commands: []string{script + " " + ext},
		})
	}
	ruleSet := compileRules(t, entries...)

	staged := make([]string, 0, 8)
	for _, ext := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		staged = append(staged, filepath.Join(dir, "file."+ext))
	}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: dir, Root: dir, Workers: 2})

	require.True(t, result.Ok())
	assert.Len(t, recordedLines(t, outFile), 8)
	require.Len(t, result.Rules, 8)
	for i, ruleResult := range result.Rules {
		assert.Equal(t, entries[i].Pattern, ruleResult.Pattern, "results keep rule declaration order")
		assert.False(t, ruleResult.Skipped)
	}
}

func TestRun_CommandRunsInCwd(t *testing.T) {
	dir := t.TempDir()
	workDir := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(workDir, 0755))

	// Writes the working directory into a file in the fixture dir
	script := writeScript(t, dir, "pwd.sh", `pwd > `+filepath.Join(dir, "pwd.log"))

	ruleSet := compileRules(t, config.Entry{Pattern: "*.js", Commands: []string{script}})
	staged := []string{filepath.Join(workDir, "a.js")}

	result := Run(context.Background(), zerolog.Nop(), ruleSet, staged, Options{Cwd: workDir, Root: workDir})
	require.True(t, result.Ok())

	data, err := os.ReadFile(filepath.Join(dir, "pwd.log"))
	require.NoError(t, err)

	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
