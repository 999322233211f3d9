package panel

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/ncobase/rendercore/jobs"
)

// styles colors whole lines after alignment, escape codes never reach the tabwriter
type styles struct {
	header   lipgloss.Style
	selected lipgloss.Style
	status   map[jobs.Status]lipgloss.Style
	footer   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")), // Blue
		selected: r.NewStyle().Reverse(true),
		status: map[jobs.Status]lipgloss.Style{
			jobs.StatusQueued:    r.NewStyle().Foreground(lipgloss.Color("244")), // Light gray
			jobs.StatusRendering: r.NewStyle().Foreground(lipgloss.Color("39")),  // Cyan
			jobs.StatusCompleted: r.NewStyle().Foreground(lipgloss.Color("10")),  // Green
			jobs.StatusCancelled: r.NewStyle().Foreground(lipgloss.Color("9")),   // Red
		},
		footer: r.NewStyle().Foreground(lipgloss.Color("240")), // Gray
	}
}

// Headers are the column titles
var Headers = []string{"Type", "Info", "Render Time", "Progress"}

// Render draws the panel as a table followed by the two checkboxes.
// The colored form differs from the plain one only by escape codes.
func (p *Panel) Render(color bool) string {
	p.mu.Lock()
	rows := append([]Row(nil), p.rows...)
	selected := make(map[string]bool, len(p.selected))
	for id := range p.selected {
		selected[id] = true
	}
	st := p.styles
	p.mu.Unlock()

	var table strings.Builder
	w := tabwriter.NewWriter(&table, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "  "+strings.Join(Headers, "\t"))
	for _, r := range rows {
		mark := "  "
		if selected[r.ID] {
			mark = "> "
		}
		_, _ = fmt.Fprintln(w, mark+strings.Join([]string{r.Type, r.Text, r.Elapsed, r.Progress}, "\t"))
	}
	_ = w.Flush()

	lines := strings.Split(strings.TrimSuffix(table.String(), "\n"), "\n")
	var sb strings.Builder
	for i, line := range lines {
		if color {
			line = lineStyle(st, rows, selected, i).Render(line)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if p.toggles != nil {
		footer := fmt.Sprintf("%s Render sequentially   %s Open jobs panel on add",
			checkbox(p.toggles.RenderSequentially()),
			checkbox(p.toggles.OpenPanelOnAdd()))
		if color {
			footer = st.footer.Render(footer)
		}
		sb.WriteString(footer)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// lineStyle picks the style of table line i, line 0 being the header
func lineStyle(st styles, rows []Row, selected map[string]bool, i int) lipgloss.Style {
	if i == 0 {
		return st.header
	}
	r := rows[i-1]
	style := st.status[r.Status]
	if selected[r.ID] {
		style = style.Inherit(st.selected)
	}
	return style
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
