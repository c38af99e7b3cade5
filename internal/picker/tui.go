package picker

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	hiddenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	noneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Cancel key.Binding
}

var defaultKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c", "q"), key.WithHelp("esc", "cancel")),
}

// selectModel is the bubbletea model for one pick. The cursor starts on
// the None sentinel regardless of candidate counts.
type selectModel struct {
	prompt    string
	list      List
	keys      keyMap
	cursor    int
	chosen    int
	cancelled bool
}

func newSelectModel(prompt string, list List) selectModel {
	return selectModel{
		prompt: prompt,
		list:   list,
		keys:   defaultKeys,
		cursor: list.NoneIndex,
		chosen: -1,
	}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.list.Items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Choose):
		m.chosen = m.cursor
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Cancel):
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	s := promptStyle.Render(m.prompt) + "\n\n"
	for i, item := range m.list.Items {
		if i == 0 && m.list.OlderHidden > 0 {
			s += hiddenStyle.Render(fmt.Sprintf("  (%d more older flats not shown)", m.list.OlderHidden)) + "\n"
		}
		cursor := "  "
		line := item.Label
		if item.Date == "" {
			line = noneStyle.Render(line)
		}
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
			line = cursorStyle.Render(item.Label)
		}
		s += cursor + line + "\n"
	}
	if m.list.NewerHidden > 0 {
		s += hiddenStyle.Render(fmt.Sprintf("  (%d more newer flats not shown)", m.list.NewerHidden)) + "\n"
	}
	s += "\n" + hiddenStyle.Render("↑/↓ move, enter choose, esc skip") + "\n"
	return s
}

// TUISelector presents picks with an interactive terminal prompt.
type TUISelector struct{}

// Select runs the prompt and returns the chosen item index.
func (TUISelector) Select(prompt string, list List) (int, error) {
	final, err := tea.NewProgram(newSelectModel(prompt, list)).Run()
	if err != nil {
		return 0, fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(selectModel)
	if !ok || m.cancelled || m.chosen < 0 {
		return 0, ErrCancelled
	}
	return m.chosen, nil
}
