package sink

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Ayu palette, light/dark adaptive.
var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorBlue = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMute)
	accentStyle = lipgloss.NewStyle().Foreground(colorBlue)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMute).
			Padding(0, 1)
)

const (
	iconPass = "✓"
	iconFail = "✗"
)

// Console renders sink updates to a terminal writer.
type Console struct {
	out      io.Writer
	color    bool
	markdown bool
	inDelta  bool
}

// NewConsole returns a Console writing to out. Color and markdown
// rendering switch off automatically when out is not a TTY or NO_COLOR
// is set.
func NewConsole(out io.Writer) *Console {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	color := isTTY && os.Getenv("NO_COLOR") == "" && termenv.EnvColorProfile() != termenv.Ascii
	return &Console{out: out, color: color, markdown: color}
}

func (c *Console) styled(s string, style Style) string {
	if !c.color {
		return s
	}
	switch style {
	case StylePass:
		return passStyle.Render(s)
	case StyleWarn:
		return warnStyle.Render(s)
	case StyleFail:
		return failStyle.Render(s)
	case StyleDim:
		return mutedStyle.Render(s)
	case StyleAccent:
		return accentStyle.Render(s)
	default:
		return s
	}
}

// endDelta closes a pending streamed-text line before other output.
func (c *Console) endDelta() {
	if c.inDelta {
		fmt.Fprintln(c.out)
		c.inDelta = false
	}
}

func (c *Console) Panel(title, body string, style Style) {
	c.endDelta()
	rendered := body
	if c.markdown {
		if md, err := renderMarkdown(body); err == nil {
			rendered = strings.TrimRight(md, "\n")
		}
	}
	content := c.styled(titleText(title, c), style) + "\n" + rendered
	if c.color {
		fmt.Fprintln(c.out, panelStyle.Render(content))
		return
	}
	fmt.Fprintf(c.out, "== %s ==\n%s\n", title, rendered)
}

func titleText(title string, c *Console) string {
	if c.color {
		return titleStyle.Render(title)
	}
	return title
}

func (c *Console) Line(text string, style Style) {
	c.endDelta()
	fmt.Fprintln(c.out, c.styled(text, style))
}

func (c *Console) Table(title string, rows [][]string) {
	c.endDelta()
	if title != "" {
		fmt.Fprintln(c.out, c.styled(title, StyleAccent))
	}
	widths := columnWidths(rows)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(c.out, "  "+strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func (c *Console) Tool(name, detail string, ok bool) {
	c.endDelta()
	icon := c.styled(iconPass, StylePass)
	if !ok {
		icon = c.styled(iconFail, StyleFail)
	}
	line := fmt.Sprintf("%s %s", icon, c.styled(name, StyleAccent))
	if detail != "" {
		line += " " + c.styled(detail, StyleDim)
	}
	fmt.Fprintln(c.out, line)
}

func (c *Console) Text(chunk string, delta bool) {
	if delta {
		fmt.Fprint(c.out, chunk)
		c.inDelta = true
		return
	}
	c.endDelta()
	fmt.Fprintln(c.out, chunk)
}

func (c *Console) Stats(kv map[string]string) {
	c.endDelta()
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, kv[k])
	}
	fmt.Fprintln(c.out, c.styled(strings.Join(parts, "  "), StyleDim))
}

func (c *Console) Error(msg string) {
	c.endDelta()
	fmt.Fprintln(c.out, c.styled("error: "+msg, StyleFail))
}

// renderMarkdown renders body with glamour, word-wrapped to the
// terminal (capped at 100 columns for readability).
func renderMarkdown(body string) (string, error) {
	wrap := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		wrap = w
	}
	if wrap > 100 {
		wrap = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			for len(widths) <= i {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
