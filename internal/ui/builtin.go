package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	docStyle   = lipgloss.NewStyle().Margin(1, 2)
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
)

// Builtin is a terminal picker with fuzzy filtering, used when no external
// picker program is available.
type Builtin struct {
	Input  io.Reader // Defaults to os.Stdin
	Output io.Writer // Defaults to os.Stderr so stdout stays clean
}

type item string

func (i item) Title() string       { return string(i) }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return string(i) }

type pickModel struct {
	list   list.Model
	choice string
}

func newPickModel(prompt string, items []string) pickModel {
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = item(it)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(listItems, delegate, 0, 0)
	l.Title = prompt
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	return pickModel{list: l}
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.choice = ""
			return m, tea.Quit
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(item); ok {
				m.choice = string(it)
			}
			return m, tea.Quit
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			m.choice = ""
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickModel) View() string {
	return docStyle.Render(m.list.View())
}

// Pick runs the picker full screen until the user chooses or cancels.
func (b *Builtin) Pick(ctx context.Context, prompt string, items []string) (string, error) {
	if len(items) == 0 {
		return "", ErrNoItems
	}

	in, out := b.Input, b.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	p := tea.NewProgram(newPickModel(prompt, items),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("run picker: %w", err)
	}

	m, ok := final.(pickModel)
	if !ok || m.choice == "" {
		return "", ErrCancelled
	}
	return m.choice, nil
}
