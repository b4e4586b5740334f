package progress

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DetectTerminalCapabilities inspects the terminal behind w, normally stderr
// where the spinner draws. A writer that is not a terminal file gets no
// spinner. NO_COLOR, TERM=dumb and PACTVERIFY_ASCII=1 narrow the result.
func DetectTerminalCapabilities(w io.Writer) TerminalCapabilities {
	isTTY, width := false, 0
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		isTTY = true
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = cols
		}
	}
	return capabilitiesFor(isTTY, width, os.Getenv)
}

func capabilitiesFor(isTTY bool, width int, getenv func(string) string) TerminalCapabilities {
	dumb := getenv("TERM") == "dumb"
	return TerminalCapabilities{
		IsTTY:           isTTY && !dumb,
		SupportsColor:   isTTY && !dumb && getenv("NO_COLOR") == "",
		SupportsUnicode: isTTY && getenv("PACTVERIFY_ASCII") != "1",
		Width:           width,
	}
}

// SelectSymbols picks Unicode glyphs and the braille spinner (set 14), or
// [OK]/[FAIL] and the |/-\ spinner (set 9) for plain terminals.
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14}
	}
	return ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9}
}
