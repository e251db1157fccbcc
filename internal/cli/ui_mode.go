package cli

import (
	"io"
	"os"
	"strings"

	"github.com/Laisky/errors/v2"
	"golang.org/x/term"
)

// Output modes accepted by --ui and ui.mode.
const (
	uiAuto  = "auto"
	uiLive  = "live"
	uiPlain = "plain"
)

const liveFallbackWarning = "Live UI needs a terminal; stdout is redirected, using plain progress lines."

// uiModeDecision says whether run follows the session in the live view.
type uiModeDecision struct {
	useLive bool
	warning string
}

// isTerminal is swapped in tests.
var isTerminal = defaultIsTerminal

// resolveUIMode maps a mode name onto a decision for stdout. An empty name
// means auto. Asking for live on a redirected stdout degrades to plain with
// a warning instead of failing the run.
func resolveUIMode(mode string, stdout io.Writer) (uiModeDecision, error) {
	name := strings.ToLower(strings.TrimSpace(mode))
	if name == "" {
		name = uiAuto
	}
	if name == uiPlain {
		return uiModeDecision{}, nil
	}
	if name != uiAuto && name != uiLive {
		return uiModeDecision{}, errors.Errorf("invalid ui mode %q (expected %s|%s|%s)", mode, uiAuto, uiLive, uiPlain)
	}
	tty := isTerminal(stdout)
	decision := uiModeDecision{useLive: tty}
	if name == uiLive && !tty {
		decision.warning = liveFallbackWarning
	}
	return decision, nil
}

func defaultIsTerminal(w io.Writer) bool {
	var fd uintptr
	switch out := w.(type) {
	case nil:
		return false
	case *os.File:
		fd = out.Fd()
	case interface{ Fd() uintptr }:
		fd = out.Fd()
	default:
		return false
	}
	return term.IsTerminal(int(fd))
}
