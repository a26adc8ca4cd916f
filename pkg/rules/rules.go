// Package rules compiles the parsed configuration into matchable rules.
//
// Each rule binds one glob pattern to an ordered list of commands. Globs
// use doublestar syntax (`*`, `**`, `?`, character classes). A pattern
// containing no slash is matched against the file's base name, so "*.js"
// matches JavaScript files at any depth;
// a pattern containing a slash is matched against the whole path relative
// to the repository root.
package rules

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/stagerun/pkg/config"
	"github.com/arthur-debert/stagerun/pkg/errors"
)

// Rule is one compiled configuration entry. Immutable once compiled.
type Rule struct {
	Pattern  string
	Commands []string

	// baseOnly is true for patterns without a path separator, which are
	// matched against base names rather than full relative paths.
	baseOnly bool
}

// RuleSet holds all compiled rules in declaration order. It is built once
// at startup and shared read-only across dispatch workers.
type RuleSet struct {
	Rules []Rule
}

// Compile turns configuration entries into a RuleSet. It fails with a
// CONFIG_INVALID error when a glob pattern does not parse or an entry has
// no commands.
func Compile(entries []config.Entry) (*RuleSet, error) {
	ruleSet := &RuleSet{Rules: make([]Rule, 0, len(entries))}

	for _, entry := range entries {
		if !doublestar.ValidatePattern(entry.Pattern) {
			return nil, errors.Newf(errors.ErrConfigInvalid, "invalid glob pattern %q", entry.Pattern)
		}
		if len(entry.Commands) == 0 {
			return nil, errors.Newf(errors.ErrConfigInvalid, "pattern %q has no commands", entry.Pattern)
		}
		for _, command := range entry.Commands {
			if strings.TrimSpace(command) == "" {
				return nil, errors.Newf(errors.ErrConfigInvalid, "pattern %q has an empty command", entry.Pattern)
			}
		}

		ruleSet.Rules = append(ruleSet.Rules, Rule{
			Pattern:  entry.Pattern,
			Commands: entry.Commands,
			baseOnly: !strings.ContainsRune(entry.Pattern, '/'),
		})
	}

	return ruleSet, nil
}

// Matches reports whether the absolute path matches the rule's pattern.
// The path is relativized against root and slash-normalized before
// matching.
func (r *Rule) Matches(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the repository root, matched as-is
		rel = path
	}
	rel = filepath.ToSlash(rel)

	target := rel
	if r.baseOnly {
		target = filepath.Base(rel)
	}

	// Pattern validity is checked at compile time
	matched, _ := doublestar.Match(r.Pattern, target)
	return matched
}

// MatchAll returns the subset of paths matching the rule, preserving
// input order.
func (r *Rule) MatchAll(root string, paths []string) []string {
	var matched []string
	for _, path := range paths {
		if r.Matches(root, path) {
			matched = append(matched, path)
		}
	}
	return matched
}
