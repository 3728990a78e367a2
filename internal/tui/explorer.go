// Package tui provides an interactive terminal explorer for attention
// traces: arrow keys move through layers and heads, the grid redraws in
// place.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prism-ml/prism/internal/encoder"
	"github.com/prism-ml/prism/internal/viz"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
)

// Model is the bubbletea model for the attention explorer.
type Model struct {
	trace  *encoder.Trace
	tokens []string

	layer int
	head  int
	norm  viz.Normalize

	width  int
	height int
}

// New builds an explorer over a recorded forward pass. tokens may be nil;
// rows then show position indices.
func New(trace *encoder.Trace, tokens []string) Model {
	return Model{trace: trace, tokens: tokens}
}

// Run starts the explorer in the alternate screen and blocks until the
// user quits.
func Run(trace *encoder.Trace, tokens []string) error {
	if trace == nil || trace.NumLayers() == 0 {
		return fmt.Errorf("tui: trace has no layers")
	}
	p := tea.NewProgram(New(trace, tokens), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			m.head = wrap(m.head-1, m.trace.NumHeads)
		case "right", "l":
			m.head = wrap(m.head+1, m.trace.NumHeads)
		case "up", "k":
			m.layer = wrap(m.layer-1, m.trace.NumLayers())
		case "down", "j":
			m.layer = wrap(m.layer+1, m.trace.NumLayers())
		case "n":
			m.norm = viz.Normalize((int(m.norm) + 1) % 3)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("prism attention explorer"))
	sb.WriteString("\n\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n\n")

	sb.WriteString(viz.ASCII(m.trace.Weights(m.layer, m.head), viz.ASCIIOptions{
		Labels:    m.tokens,
		Normalize: m.norm,
	}))

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("up/down layer   left/right head   n scale   q quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) statusLine() string {
	ent := m.trace.Entropy(m.layer, m.head)
	parts := []string{
		"layer " + valueStyle.Render(fmt.Sprintf("%d/%d", m.layer, m.trace.NumLayers()-1)),
		"head " + valueStyle.Render(fmt.Sprintf("%d/%d", m.head, m.trace.NumHeads-1)),
		"scale " + valueStyle.Render(m.norm.String()),
		fmt.Sprintf("entropy %.3f nats", ent),
	}
	return statusStyle.Render(strings.Join(parts, "   "))
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
