package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/stagerun/pkg/core"
	"github.com/arthur-debert/stagerun/pkg/errors"
)

// RenderSummary produces the user-facing report for one run: which rules
// ran against how many files, and every failed command. The format
// controls whether styles are applied.
func RenderSummary(result *core.RunResult, format Format) string {
	styled := format == FormatTerminal

	if result.Dispatch == nil {
		return line(MutedStyle, "No staged files, nothing to do.", styled)
	}

	var b strings.Builder

	ran := 0
	for _, rule := range result.Dispatch.Rules {
		if rule.Skipped {
			continue
		}
		ran++
		fmt.Fprintf(&b, "%s %s (%d file(s), %d command(s))\n",
			line(MutedStyle, "ran", styled),
			line(CommandStyle, rule.Pattern, styled),
			len(rule.Matched), len(rule.Commands))
	}
	if ran == 0 {
		b.WriteString(line(MutedStyle, "No rules matched the staged files.", styled) + "\n")
	}

	failures := result.Dispatch.Failures()
	for _, failure := range failures {
		detail := failure.Err.Error()
		if code, ok := errors.GetErrorDetails(failure.Err)["exitCode"]; ok {
			detail = fmt.Sprintf("exited with status %v", code)
		}
		fmt.Fprintf(&b, "%s %s %s: %s\n",
			line(ErrorStyle, "✗", styled),
			line(CommandStyle, failure.Pattern, styled),
			line(CommandStyle, fmt.Sprintf("%q", failure.Command), styled),
			detail)
	}

	if len(failures) == 0 {
		fmt.Fprintf(&b, "%s %d staged file(s) passed.\n",
			line(SuccessStyle, "✓", styled), len(result.Staged))
	} else {
		fmt.Fprintf(&b, "%s %d command(s) failed.\n",
			line(ErrorStyle, "✗", styled), len(failures))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderError styles a fatal error message
func RenderError(err error, format Format) string {
	msg := fmt.Sprintf("Error: %v", err)
	if format == FormatTerminal {
		return ErrorStyle.Render(msg)
	}
	return msg
}

func line(style lipgloss.Style, s string, styled bool) string {
	if styled {
		return style.Render(s)
	}
	return s
}
