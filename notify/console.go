package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Console renders signals as styled terminal lines.
type Console struct {
	out      io.Writer
	progress lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	failure  lipgloss.Style
}

// NewConsole creates a console notifier writing to stderr, leaving stdout for
// piped artifact data.
func NewConsole() *Console {
	return NewConsoleWriter(os.Stderr)
}

// NewConsoleWriter creates a console notifier writing to w.
func NewConsoleWriter(w io.Writer) *Console {
	styled := termenv.DefaultOutput().Profile != termenv.Ascii
	style := func(color string) lipgloss.Style {
		if !styled {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return &Console{
		out:      w,
		progress: style("244"),
		success:  style("35"),
		warning:  style("214"),
		failure:  style("196"),
	}
}

func (c *Console) Progress(msg string) {
	fmt.Fprintln(c.out, c.progress.Render("… "+msg))
}

func (c *Console) Success(msg string) {
	fmt.Fprintln(c.out, c.success.Render("✓ "+msg))
}

func (c *Console) Warning(msg string) {
	fmt.Fprintln(c.out, c.warning.Render("! "+msg))
}

func (c *Console) Failure(msg string) {
	fmt.Fprintln(c.out, c.failure.Render("✗ "+msg))
}
