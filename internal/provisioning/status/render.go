package status

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/oxide/internal/provisioning"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	greenStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	redStyle     = lipgloss.NewStyle().Foreground(colorRed)
)

var columns = []string{"Name", "ID", "Status", "Public IP", "Private IP"}

// Render formats a report as one table per pool.
func Render(r *Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  oxide status: " + r.Cluster))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")

	if len(r.Groups) == 0 {
		b.WriteString("\n  No servers found.\n")
	}
	for _, g := range r.Groups {
		b.WriteString("\n")
		renderGroup(&b, g)
	}

	for _, err := range r.Invalid {
		b.WriteString(redStyle.Render("  Warning: " + err.Error()))
		b.WriteString("\n")
	}

	if r.Kubernetes {
		b.WriteString("\n")
		renderKubernetes(&b, r)
	}

	return b.String()
}

func renderGroup(b *strings.Builder, g Group) {
	b.WriteString(sectionStyle.Render(fmt.Sprintf("  %s pool %s (%d)", roleTitle(g.Role), g.Pool, len(g.Nodes))))
	b.WriteString("\n")

	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{
			n.Name,
			strconv.FormatInt(n.ID, 10),
			n.Status,
			orNA(n.PublicIP),
			orNA(n.PrivateIP),
		})
	}
	renderTable(b, columns, rows)
}

func renderKubernetes(b *strings.Builder, r *Report) {
	b.WriteString(sectionStyle.Render("  Kubernetes"))
	b.WriteString("\n")

	if r.KubeErr != nil {
		b.WriteString(redStyle.Render("  unavailable: " + r.KubeErr.Error()))
		b.WriteString("\n")
		return
	}

	fmt.Fprintf(b, "  %s\n", r.CNI)
	ready := 0
	rows := make([][]string, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		state := redStyle.Render("NotReady")
		if n.Ready {
			ready++
			state = greenStyle.Render("Ready")
		}
		rows = append(rows, []string{n.Name, state, strings.Join(n.Roles, ","), n.Version})
	}
	fmt.Fprintf(b, "  %d/%d nodes ready\n", ready, len(r.Nodes))
	if len(rows) > 0 {
		renderTable(b, []string{"Node", "Ready", "Roles", "Version"}, rows)
	}
}

// renderTable pads columns to their widest cell. Widths are measured with
// lipgloss so styled cells align.
func renderTable(b *strings.Builder, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string) string {
		var parts []string
		for i, c := range cells {
			parts = append(parts, c+strings.Repeat(" ", widths[i]-lipgloss.Width(c)))
		}
		return "  " + strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	b.WriteString(dimStyle.Render(line(header)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(line(row))
		b.WriteString("\n")
	}
}

func roleTitle(r provisioning.Role) string {
	if r.IsControlPlane() {
		return "Control plane"
	}
	return "Worker"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
