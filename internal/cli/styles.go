package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// styles renders highlighted output for one writer. Colors are dropped when
// the writer is not a terminal, NO_COLOR is set or --no-color was given.
type styles struct {
	name    lipgloss.Style
	path    lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	header  lipgloss.Style
	subtle  lipgloss.Style
	profile termenv.Profile
}

func newStyles(w io.Writer, noColor bool) *styles {
	r := lipgloss.NewRenderer(w)
	if noColor || os.Getenv("NO_COLOR") != "" {
		r.SetColorProfile(termenv.Ascii)
	}

	return &styles{
		name:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}),
		path:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}),
		ok:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFB74D"}),
		fail:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}).Bold(true),
		header:  r.NewStyle().Bold(true),
		subtle:  r.NewStyle().Faint(true),
		profile: r.ColorProfile(),
	}
}

// colored reports whether the styles emit escape sequences.
func (s *styles) colored() bool {
	return s.profile != termenv.Ascii
}
