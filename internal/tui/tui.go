// Package tui implements the interactive tree inspector launched by
// `check --interactive`: a bubbletea program listing a prefix's top
// children and top descendants, letting an operator walk the tree and
// issue trim commands without dropping back to the shell each time.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/domino14/anagramist/internal/admin"
	"github.com/domino14/anagramist/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true).Padding(1, 1)
)

type model struct {
	ctx    context.Context
	api    *admin.API
	prefix string

	table  table.Model
	status string
	err    error
}

// Run launches the interactive inspector rooted at prefix, blocking until
// the operator quits.
func Run(ctx context.Context, api *admin.API, prefix string) error {
	m, err := newModel(ctx, api, prefix)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func newModel(ctx context.Context, api *admin.API, prefix string) (model, error) {
	m := model{ctx: ctx, api: api, prefix: prefix}
	report, err := api.Inspect(ctx, prefix, 25)
	if err != nil {
		return model{}, err
	}
	m.table = buildTable(report)
	m.status = fmt.Sprintf("%d children (%d open, %d invalid, %d excluded)",
		report.Demographics.Total, report.Demographics.Open,
		report.Demographics.Invalid, report.Demographics.Excluded)
	return m, nil
}

func buildTable(report admin.CandidateReport) table.Model {
	columns := []table.Column{
		{Title: "sentence", Width: 40},
		{Title: "score", Width: 10},
		{Title: "kind", Width: 10},
	}
	var rows []table.Row
	for _, rec := range report.TopChildren {
		rows = append(rows, table.Row{rec.Sentence, fmt.Sprintf("%.3f", rec.Score), "child"})
	}
	for _, rec := range report.TopDescend {
		rows = append(rows, table.Row{rec.Sentence, fmt.Sprintf("%.3f", rec.MeanDescendant), "descendant"})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	return t
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "t":
			return m.trimSelected()
		case "enter":
			return m.descendInto()
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) trimSelected() (tea.Model, tea.Cmd) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return m, nil
	}
	_, _, err := m.api.Trim(m.ctx, row[0], store.StatusExcluded)
	if err != nil {
		m.err = err
		return m, nil
	}
	next, err := newModel(m.ctx, m.api, m.prefix)
	if err != nil {
		m.err = err
		return m, nil
	}
	return next, nil
}

func (m model) descendInto() (tea.Model, tea.Cmd) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return m, nil
	}
	next, err := newModel(m.ctx, m.api, row[0])
	if err != nil {
		m.err = err
		return m, nil
	}
	return next, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("anagramist: %s", displayPrefix(m.prefix))))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(footerStyle.Render(fmt.Sprintf("error: %v", m.err)))
	} else {
		b.WriteString(footerStyle.Render(m.status + "  (enter: descend, t: trim, q: quit)"))
	}
	return b.String()
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "<root>"
	}
	return prefix
}
