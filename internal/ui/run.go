package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"qasm3/internal/driver"
)

// Mode selects whether the progress view is drawn.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
)

func ParseMode(value string) (Mode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return ModeAuto, nil
	case "on":
		return ModeOn, nil
	case "off":
		return ModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// Enabled resolves auto against out.
func (m Mode) Enabled(out io.Writer) bool {
	switch m {
	case ModeOn:
		return true
	case ModeOff:
		return false
	default:
		return IsTerminal(out)
	}
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

type outcome struct {
	err error
}

// Run draws progress on out while work runs in its own goroutine. The sink
// handed to work feeds the view; Run returns once both have finished.
func Run(title string, files []string, out io.Writer, work func(driver.ProgressSink) error) error {
	events := make(chan driver.Event, 256)
	done := make(chan outcome, 1)

	go func() {
		err := work(driver.ChannelSink{Ch: events})
		close(events)
		done <- outcome{err: err}
	}()

	program := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so work never blocks on a full channel
		go func() {
			for range events {
			}
		}()
	}
	res := <-done
	if uiErr != nil {
		return uiErr
	}
	return res.err
}
