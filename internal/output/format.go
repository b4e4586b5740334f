// Package output provides terminal output formatting utilities for the pactverify CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ariel-frischer/pactverify/internal/verifier"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintSeparator prints a dim labelled rule across the terminal.
func PrintSeparator(out io.Writer, label string) {
	termWidth := GetTerminalWidth()
	magenta := color.New(color.FgMagenta, color.Faint).SprintFunc()

	label = " " + label + " "
	lineLen := (termWidth - len(label)) / 2
	if lineLen < 3 {
		lineLen = 3
	}

	line := strings.Repeat("─", lineLen)
	fmt.Fprintf(out, "\n%s%s%s\n", magenta(line), magenta(label), magenta(line))
}

// PrintVerifyHeader prints which pact is being verified and where it comes from.
func PrintVerifyHeader(out io.Writer, req verifier.Request) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(out, "%s %s %s %s\n", cyan("Verifying a pact between"),
		white(req.ConsumerName), cyan("and"), white(req.ProviderName))
	fmt.Fprintf(out, "  %s %s\n", dim("source:  "), req.Source.Describe())
	fmt.Fprintf(out, "  %s %s\n", dim("provider:"), req.ProviderBaseURL.Redacted())
	if req.ProviderStateURL != nil {
		fmt.Fprintf(out, "  %s %s\n", dim("states:  "), req.ProviderStateURL.Redacted())
	}
	fmt.Fprintln(out)
}

// PrintOutcome prints one line per interaction, then the differences of every
// mismatch, then a summary.
func PrintOutcome(out io.Writer, outcome *verifier.Outcome) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, r := range outcome.Results {
		mark := green("✓")
		if !r.Passed {
			mark = red("✗")
		}
		line := r.Description
		if r.ProviderState != "" {
			line = fmt.Sprintf("Given %s, %s", r.ProviderState, r.Description)
		}
		fmt.Fprintf(out, "  %s %s\n", mark, line)
	}

	if len(outcome.Mismatches) > 0 {
		fmt.Fprintf(out, "\n%s\n", red("Failures:"))
		for i, m := range outcome.Mismatches {
			printMismatch(out, i+1, m)
		}
	}

	fmt.Fprintln(out)
	summary := fmt.Sprintf("%d interactions, %d passed, %d failed",
		len(outcome.Results), outcome.Passed(), len(outcome.Mismatches))
	if outcome.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", outcome.Skipped)
	}
	if outcome.Success() {
		fmt.Fprintf(out, "%s %s %s\n", green("✓"), summary, dim("("+formatDuration(outcome.Duration)+")"))
	} else {
		fmt.Fprintf(out, "%s %s %s\n", red("✗"), summary, dim("("+formatDuration(outcome.Duration)+")"))
	}
}

func printMismatch(out io.Writer, n int, m verifier.Mismatch) {
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(out, "\n  %d) %s\n", n, m.Interaction)
	if m.ProviderState != "" {
		fmt.Fprintf(out, "     given %s\n", m.ProviderState)
	}
	for _, d := range m.Differences {
		where := string(d.Kind)
		if d.Path != "" {
			where += " " + d.Path
		}
		fmt.Fprintf(out, "     %s %s\n", yellow(where+":"), d.Message)
		if d.Expected != "" || d.Actual != "" {
			fmt.Fprintf(out, "       %s %s\n", green("expected:"), d.Expected)
			fmt.Fprintf(out, "       %s %s\n", red("actual:  "), d.Actual)
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
