package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fuzzycoder/coder"
)

// SessionPort is the TUI-facing subset of the coding session.
type SessionPort interface {
	HasProject() bool
	Mode() coder.Mode
	Match(query string) error
	MatchResults(threshold int) []coder.AggregatedMatch
	Categorize(values []coder.Value, categories []string) error
	Recategorize(values []coder.Value, categories []string) error
	CreateCategory(name string) error
	RenameCategory(old, new string) error
	DeleteCategories(names []string) error
	Categories() []string
	DisplayedCategory() string
	SetDisplayedCategory(name string) error
	CategoryMetrics() []coder.CategoryMetric
	ResponsesAndCounts(category string) ([]coder.ResponseCount, error)
	SaveProjectFile(path string) error
}

type inputMode int

const (
	inputQuery inputMode = iota
	inputNewCategory
	inputRenameCategory
)

// Model is the Bubble Tea model for the interactive coding workflow.
type Model struct {
	session     SessionPort
	projectPath string

	input     textinput.Model
	inputMode inputMode
	renameOld string

	results   []coder.AggregatedMatch
	selected  map[coder.Value]bool
	cursor    int
	catCursor int
	threshold int

	status string
	width  int
	ready  bool
}

// New creates the TUI model. projectPath is where ctrl+s saves the
// project.
func New(session SessionPort, projectPath string, threshold int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a match query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		session:     session,
		projectPath: projectPath,
		input:       ti,
		selected:    make(map[coder.Value]bool),
		threshold:   threshold,
		status:      fmt.Sprintf("%s mode. Enter=match  tab=select  ctrl+a=categorize  ctrl+n=new category  ctrl+s=save", session.Mode()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.handleEnter()
	case "esc":
		m.inputMode = inputQuery
		m.input.Reset()
		m.input.Placeholder = "Type a match query and press Enter"
		m.status = "Cancelled"
		return m, nil
	case "up":
		if len(m.results) > 0 {
			m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
		}
		return m, nil
	case "down":
		if len(m.results) > 0 {
			m.cursor = (m.cursor + 1) % len(m.results)
		}
		return m, nil
	case "left":
		if cats := m.session.Categories(); len(cats) > 0 {
			m.catCursor = (m.catCursor - 1 + len(cats)) % len(cats)
		}
		return m, nil
	case "right":
		if cats := m.session.Categories(); len(cats) > 0 {
			m.catCursor = (m.catCursor + 1) % len(cats)
		}
		return m, nil
	case "tab":
		if len(m.results) > 0 {
			v := m.results[m.cursor].Value
			m.selected[v] = !m.selected[v]
		}
		return m, nil
	case "pgup":
		m.setThreshold(m.threshold + 5)
		return m, nil
	case "pgdown":
		m.setThreshold(m.threshold - 5)
		return m, nil
	case "ctrl+a":
		return m.applyAssignment(false)
	case "ctrl+r":
		return m.applyAssignment(true)
	case "ctrl+n":
		m.inputMode = inputNewCategory
		m.input.Reset()
		m.input.Placeholder = "New category name, Enter to create"
		m.status = "Creating category (esc to cancel)"
		return m, nil
	case "ctrl+e":
		if name, ok := m.highlightedCategory(); ok {
			m.inputMode = inputRenameCategory
			m.renameOld = name
			m.input.Reset()
			m.input.SetValue(name)
			m.input.Placeholder = "New name, Enter to rename"
			m.status = fmt.Sprintf("Renaming %q (esc to cancel)", name)
		}
		return m, nil
	case "ctrl+x":
		if name, ok := m.highlightedCategory(); ok {
			if err := m.session.DeleteCategories([]string{name}); err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = fmt.Sprintf("Deleted %q", name)
				m.catCursor = 0
				m.refreshResults()
			}
		}
		return m, nil
	case "ctrl+o":
		if name, ok := m.highlightedCategory(); ok {
			if err := m.session.SetDisplayedCategory(name); err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = fmt.Sprintf("Displaying %q", name)
			}
		}
		return m, nil
	case "ctrl+s":
		if err := m.session.SaveProjectFile(m.projectPath); err != nil {
			m.status = "Error: " + err.Error()
		} else {
			m.status = "Saved " + m.projectPath
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	switch m.inputMode {
	case inputNewCategory:
		if err := m.session.CreateCategory(text); err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Created %q", text)
	case inputRenameCategory:
		if err := m.session.RenameCategory(m.renameOld, text); err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Renamed %q to %q", m.renameOld, text)
	default:
		if text == "" {
			return m, nil
		}
		if err := m.session.Match(text); err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.selected = make(map[coder.Value]bool)
		m.refreshResults()
		m.status = fmt.Sprintf("%d results for %q at threshold %d", len(m.results), text, m.threshold)
		return m, nil
	}
	m.inputMode = inputQuery
	m.input.Reset()
	m.input.Placeholder = "Type a match query and press Enter"
	return m, nil
}

// applyAssignment categorizes (or recategorizes) the selection into the
// highlighted category.
func (m Model) applyAssignment(recategorize bool) (tea.Model, tea.Cmd) {
	target, ok := m.highlightedCategory()
	if !ok {
		m.status = "No category highlighted"
		return m, nil
	}
	values := m.selectedValues()
	if len(values) == 0 {
		m.status = "Nothing selected (tab to select results)"
		return m, nil
	}
	var err error
	if recategorize {
		err = m.session.Recategorize(values, []string{target})
	} else {
		err = m.session.Categorize(values, []string{target})
	}
	if err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	verb := "Categorized"
	if recategorize {
		verb = "Recategorized"
	}
	m.status = fmt.Sprintf("%s %d values into %q", verb, len(values), target)
	m.selected = make(map[coder.Value]bool)
	m.refreshResults()
	return m, nil
}

func (m *Model) refreshResults() {
	m.results = m.session.MatchResults(m.threshold)
	if m.cursor >= len(m.results) {
		m.cursor = 0
	}
}

func (m *Model) setThreshold(t int) {
	if t < 0 {
		t = 0
	}
	if t > 100 {
		t = 100
	}
	m.threshold = t
	m.refreshResults()
	m.status = fmt.Sprintf("Threshold %d, %d results", m.threshold, len(m.results))
}

func (m Model) selectedValues() []coder.Value {
	var out []coder.Value
	for v, on := range m.selected {
		if on {
			out = append(out, v)
		}
	}
	if len(out) == 0 && len(m.results) > 0 {
		out = append(out, m.results[m.cursor].Value)
	}
	return out
}

func (m Model) highlightedCategory() (string, bool) {
	cats := m.session.Categories()
	if len(cats) == 0 {
		return "", false
	}
	if m.catCursor >= len(cats) {
		return cats[0], true
	}
	return cats[m.catCursor], true
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("fuzzycoder") + dimStyle.Render(fmt.Sprintf("  %s mode  threshold %d  displaying %q", m.session.Mode(), m.threshold, m.session.DisplayedCategory()))
	results := boxStyle.Render(m.renderResults())
	categories := boxStyle.Render(m.renderCategories())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, results, categories)
	input := boxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + panes + "\n" + input + "\n" + status
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No match results.\nEnter a query above."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Matches (%d)\n", len(m.results)))
	limit := len(m.results)
	if limit > 15 {
		limit = 15
	}
	for i := 0; i < limit; i++ {
		r := m.results[i]
		marker := "  "
		if m.selected[r.Value] {
			marker = "* "
		}
		line := fmt.Sprintf("%s%-40.40s score=%-3d n=%d", marker, r.Value.String(), r.Score, r.Count)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(m.results) > limit {
		b.WriteString(dimStyle.Render(fmt.Sprintf("… %d more", len(m.results)-limit)))
	}
	return b.String()
}

func (m Model) renderCategories() string {
	metrics := m.session.CategoryMetrics()
	if len(metrics) == 0 {
		return "No categories."
	}
	var b strings.Builder
	b.WriteString("Categories\n")
	for i, metric := range metrics {
		line := fmt.Sprintf("%-24.24s %5d %8s", metric.Name, metric.Count, metric.Percentage)
		if i == m.catCursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(dimStyle.Render("←/→ highlight  ctrl+a assign  ctrl+r reassign\nctrl+n new  ctrl+e rename  ctrl+x delete  ctrl+o display"))
	return b.String()
}
