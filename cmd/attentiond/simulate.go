package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/inspect"
	"github.com/GriffinCanCode/AgentOS/attention/internal/scenario"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// simulate runs every scenario matched by patterns and writes a report to w.
// It returns the number of scenarios whose expectations failed.
func simulate(w io.Writer, patterns []string, logger *zap.Logger) (int, error) {
	paths, err := scenario.Expand(patterns)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, path := range paths {
		f, err := scenario.Load(path)
		if err != nil {
			return failed, err
		}

		snap := scenario.Run(f, logger)
		mismatches := scenario.Verify(f, snap)

		fmt.Fprintln(w, titleStyle.Render(f.Name)+" "+dimStyle.Render(path))
		fmt.Fprintln(w, renderTable(snap))
		fmt.Fprintln(w, renderUsage(snap.Context.Attention))

		switch {
		case f.Expect == nil:
			fmt.Fprintln(w, dimStyle.Render("  no expectations"))
		case len(mismatches) == 0:
			fmt.Fprintln(w, successStyle.Render("  ✓ expectations hold"))
		default:
			failed++
			for _, m := range mismatches {
				fmt.Fprintln(w, errorStyle.Render("  ✗ "+m.String()))
			}
		}
		fmt.Fprintln(w)
	}

	return failed, nil
}

func renderTable(snap inspect.Snapshot) string {
	rows := make([][]string, 0, len(snap.Elements))
	for _, v := range snap.Elements {
		rows = append(rows, []string{
			strconv.Itoa(v.Rank),
			v.ID,
			strconv.Itoa(v.Score),
			formatNeeds(v.Needs),
			string(v.Outcome),
			v.Error,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 && row >= 0 && row < len(snap.Elements) {
				switch snap.Elements[row].Outcome {
				case attention.OutcomeAllocated:
					return cellStyle.Foreground(lipgloss.Color("#10B981"))
				case attention.OutcomeDeferred:
					return cellStyle.Foreground(lipgloss.Color("#6B7280"))
				}
			}
			return cellStyle
		}).
		Headers("#", "ID", "SCORE", "NEEDS", "OUTCOME", "ERROR").
		Rows(rows...).
		String()
}

func renderUsage(b attention.Budget) string {
	return dimStyle.Render(fmt.Sprintf("  used %s of %s",
		formatNeeds(b.Used()), formatNeeds(b.Capacity())))
}

func formatNeeds(n attention.Needs) string {
	return fmt.Sprintf("%g/%g/%g", n.Screen, n.Audio, n.Cognitive)
}
