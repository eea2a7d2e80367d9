// Package tui is an interactive terminal front end for manual search.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/fennec/internal/retrieval"
)

// Searcher is the TUI-facing subset of retrieval.Searcher.
type Searcher interface {
	Search(ctx context.Context, query string, k int, jurisdiction string) ([]retrieval.Result, error)
}

// resultsMsg carries the outcome of a search started by Update.
type resultsMsg struct {
	query   string
	results []retrieval.Result
	err     error
}

// Model is the Bubble Tea model for manual search.
type Model struct {
	ctx          context.Context
	searcher     Searcher
	k            int
	jurisdiction string

	input     textinput.Model
	viewport  viewport.Model
	results   []retrieval.Result
	summary   string
	status    string
	cursor    int
	ready     bool
	searching bool
	lastQuery string
}

// New creates a model that runs queries against s.
func New(ctx context.Context, s Searcher, k int, jurisdiction, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the drafting of wills and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:          ctx,
		searcher:     s,
		k:            k,
		jurisdiction: jurisdiction,
		input:        ti,
		viewport:     viewport.New(0, 0),
		summary:      summary,
		status:       "Type a question to search the manual.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) search(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.searcher.Search(m.ctx, q, m.k, m.jurisdiction)
		return resultsMsg{query: q, results: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case resultsMsg:
		m.searching = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.results = nil
		} else {
			m.status = fmt.Sprintf("%d results for %q", len(msg.results), msg.query)
			m.results = msg.results
			m.cursor = 0
			m.lastQuery = msg.query
		}
		m.viewport.SetContent(m.renderCurrentResult())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.searching {
				return m, nil
			}
			m.searching = true
			m.status = "Searching..."
			return m, m.search(q)
		case "down", "ctrl+n":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up", "ctrl+p":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Fennec manual search")
	summary := dimStyle.Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Result %d/%d  similarity=%.3f\n", m.cursor+1, len(m.results), r.Similarity)
	b.WriteString(sectionStyle.Render(fmt.Sprintf("%s %s", r.SectionNumber, r.SectionTitle)))
	b.WriteString("\n")
	if r.PageStart != nil {
		if r.PageEnd != nil && *r.PageEnd != *r.PageStart {
			fmt.Fprintf(&b, "pp. %d-%d\n", *r.PageStart, *r.PageEnd)
		} else {
			fmt.Fprintf(&b, "p. %d\n", *r.PageStart)
		}
	}
	b.WriteString(dimStyle.Render(r.ID))
	b.WriteString("\n\n")
	b.WriteString(highlightTerms(r.Text, m.lastQuery))
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// highlightTerms emphasises words of text that also appear in query.
// Words shorter than four letters are ignored.
func highlightTerms(text, query string) string {
	terms := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len([]rune(w)) >= 4 {
			terms[w] = true
		}
	}
	if len(terms) == 0 {
		return text
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		key := strings.Trim(strings.ToLower(w), ".,;:!?\"'()")
		if terms[key] {
			words[i] = highlightStyle.Render(w)
		}
	}
	return strings.Join(words, " ")
}
