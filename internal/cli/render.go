package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/journey-copilot/journey-copilot/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffcc00")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")).
			Bold(true)
)

// renderMarkdown renders model output for the terminal, falling back to the
// raw text if the renderer cannot be built.
func renderMarkdown(text string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

func printResponse(w io.Writer, title, text string, raw bool) {
	fmt.Fprintln(w, titleStyle.Render(title))
	if raw {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprint(w, renderMarkdown(text))
}

func printSession(w io.Writer, sess *session.Session) {
	fmt.Fprintf(w, "SESSION: %s\n", sess.ID)
	fmt.Fprintf(w, "PERSONA: %s\n", sess.Persona)
	fmt.Fprintf(w, "TIMELINE: %s\n", sess.Timeline)
	if h := sess.Highlight(); h != "" {
		source := sess.Selected
		if sess.Override != "" {
			source = "override"
		}
		fmt.Fprintf(w, "HIGHLIGHT: %s (%s)\n", h, source)
	}
	var live []string
	for c, text := range sess.Responses {
		if text != "" {
			live = append(live, c.Title())
		}
	}
	if len(live) > 0 {
		fmt.Fprintf(w, "RESPONSES: %s\n", strings.Join(live, ", "))
	}
	fmt.Fprintln(w, mutedStyle.Render("updated "+sess.UpdatedAt.Format("2006-01-02 15:04")))
}
