package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"captionary/internal/logging"
	"captionary/internal/transcribe"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusError
)

const (
	ansiReset     = "\x1b[0m"
	ansiRed       = "\x1b[31m"
	ansiGreen     = "\x1b[32m"
	ansiBlue      = "\x1b[34m"
	ansiClearLine = "\r\x1b[2K"
)

const progressBarWidth = 30

func renderStatusLine(kind statusKind, message string, colorize bool) string {
	base := fmt.Sprintf("[%s] %s", statusKindLabel(kind), message)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressRenderer draws session updates. On a terminal the progress bar is
// redrawn in place; otherwise a line is printed whenever the status changes
// or progress crosses a 5% bucket.
type progressRenderer struct {
	out         io.Writer
	interactive bool
	sampler     *logging.ProgressSampler

	mu      sync.Mutex
	drawing bool
	failed  bool
}

func newProgressRenderer(out io.Writer, interactive bool) *progressRenderer {
	return &progressRenderer{
		out:         out,
		interactive: interactive,
		sampler:     logging.NewProgressSampler(5),
	}
}

func (r *progressRenderer) Report(s transcribe.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.State.Terminal() {
		if r.drawing {
			fmt.Fprint(r.out, ansiClearLine)
			r.drawing = false
		}
		kind := statusOK
		if s.State == transcribe.StateFailed {
			kind = statusError
			r.failed = true
		}
		fmt.Fprintln(r.out, renderStatusLine(kind, s.StatusText, r.interactive))
		return
	}

	line := fmt.Sprintf("%s %3d%%  %s", renderProgressBar(s.Percent, progressBarWidth), s.Percent, s.StatusText)
	if r.interactive {
		fmt.Fprint(r.out, ansiClearLine+line)
		r.drawing = true
		return
	}
	if r.sampler.ShouldLog(s.Percent, s.StatusText) {
		fmt.Fprintln(r.out, line)
	}
}

// printedFailure reports whether a failed session's status line was written.
func (r *progressRenderer) printedFailure() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}
