package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/task"
)

const (
	defaultBoardWidth = 120
	minColumnWidth    = 18
	maxStackedWidth   = 60
)

// newBoardCmd creates the board command
func newBoardCmd() *cobra.Command {
	var tenant string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show a project's board",
		Long: `Show every column of a project's board in display order.

Columns are laid out side by side when the terminal is wide enough and
stacked otherwise. Colour is used only when stdout is a terminal.

Examples:
  taskboard board demo --tenant demo
  taskboard board demo --tenant demo --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, logger, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			coord, pub, err := newCoordinator(cfg, backend, logger)
			if err != nil {
				return err
			}
			defer pub.Close()

			view, err := coord.Board(cmd.Context(), board.Caller{TenantID: tenant}, args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), view)
			}

			tty := isatty.IsTerminal(os.Stdout.Fd())
			width := defaultBoardWidth
			if tty {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
					width = w
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderBoard(view, width, tty && !noColor, time.Now()))
			return nil
		},
	}

	addCallerFlags(cmd, &tenant, nil)
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	addDatabaseFlags(cmd)

	return cmd
}

var statusColors = map[task.Status]lipgloss.Color{
	task.StatusBacklog:    lipgloss.Color("245"),
	task.StatusInProgress: lipgloss.Color("33"),
	task.StatusBlocked:    lipgloss.Color("196"),
	task.StatusDone:       lipgloss.Color("42"),
	task.StatusCanceled:   lipgloss.Color("241"),
}

// renderBoard lays out the view's columns for a terminal width wide. Card
// ages are measured from now.
func renderBoard(v board.View, width int, color bool, now time.Time) string {
	if len(v.Columns) == 0 {
		return ""
	}
	colWidth := width/len(v.Columns) - 2
	stacked := colWidth < minColumnWidth
	if stacked {
		colWidth = min(width-2, maxStackedWidth)
	}

	rendered := make([]string, 0, len(v.Columns))
	for _, col := range v.Columns {
		rendered = append(rendered, renderColumn(col, colWidth, color, now))
	}

	var b strings.Builder
	if v.Project != nil {
		title := lipgloss.NewStyle().Bold(color)
		b.WriteString(title.Render(fmt.Sprintf("%s (%s)", v.Project.Name, v.Project.Status)))
		b.WriteString("\n")
	}
	if stacked {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rendered...))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return b.String()
}

// cardTitleStyle dims finished and abandoned work.
func cardTitleStyle(t *task.Task, color bool) lipgloss.Style {
	return lipgloss.NewStyle().Faint(color && t.IsTerminal())
}

func renderColumn(col board.Column, width int, color bool, now time.Time) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(width)
	header := lipgloss.NewStyle().Bold(color)
	meta := lipgloss.NewStyle()
	if color {
		box = box.BorderForeground(statusColors[col.Status])
		header = header.Foreground(statusColors[col.Status])
		meta = meta.Foreground(lipgloss.Color("241"))
	}

	inner := width - 2
	lines := []string{header.Render(fmt.Sprintf("%s · %d", strings.ToUpper(string(col.Status)), len(col.Tasks)))}
	if len(col.Tasks) == 0 {
		lines = append(lines, meta.Render("(empty)"))
	}
	for _, t := range col.Tasks {
		lines = append(lines,
			cardTitleStyle(t, color).Render(truncate(t.Title, inner)),
			meta.Render(truncate(fmt.Sprintf("%s v%d %.0f%% %s", t.ID, t.Version, t.ProgressPercent, formatAge(now.Sub(t.UpdatedAt))), inner)),
		)
	}
	return box.Render(strings.Join(lines, "\n"))
}
