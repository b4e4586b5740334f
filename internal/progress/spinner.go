package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows activity while a verification run is in flight. It is inert
// when the terminal is not a TTY so piped and JSON output stay clean.
type Spinner struct {
	s       *spinner.Spinner
	out     io.Writer
	symbols ProgressSymbols
}

// NewSpinner creates a spinner writing to out. It only spins when enabled and
// caps reports a terminal.
func NewSpinner(out io.Writer, caps TerminalCapabilities, enabled bool) *Spinner {
	sp := &Spinner{out: out, symbols: SelectSymbols(caps)}
	if enabled && caps.IsTTY {
		sp.s = spinner.New(spinner.CharSets[sp.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(out))
	}
	return sp
}

// Start begins spinning with message as the suffix.
func (sp *Spinner) Start(message string) {
	if sp.s == nil {
		return
	}
	sp.s.Suffix = " " + message
	sp.s.Start()
}

// Succeed stops the spinner and prints message with a checkmark.
func (sp *Spinner) Succeed(message string) {
	sp.finish(sp.symbols.Checkmark, message)
}

// Fail stops the spinner and prints message with a failure mark.
func (sp *Spinner) Fail(message string) {
	sp.finish(sp.symbols.Failure, message)
}

// Stop stops the spinner without printing anything.
func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}

func (sp *Spinner) finish(symbol, message string) {
	if sp.s == nil {
		return
	}
	sp.s.FinalMSG = fmt.Sprintf("%s %s\n", symbol, message)
	sp.s.Stop()
}
