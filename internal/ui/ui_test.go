package ui

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"sani/internal/config"
)

func shellPicker(script string) *External {
	return &External{
		Command: "sh",
		Args:    func(string) []string { return []string{"-c", script} },
		Stderr:  io.Discard,
	}
}

func TestExternalPick(t *testing.T) {
	items := []string{"Current Episode:", "S01 E02", "Next Episode:", "S01 E03"}

	got, err := shellPicker("sed -n 2p").Pick(context.Background(), "Episode", items)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got != "S01 E02" {
		t.Errorf("Pick = %q, want %q", got, "S01 E02")
	}
}

func TestExternalPick_PromptArgs(t *testing.T) {
	p := &External{
		Command: "sh",
		Args: func(prompt string) []string {
			return []string{"-c", `cat >/dev/null; printf '  %s  \n' "$1"`, "sh", prompt}
		},
	}
	got, err := p.Pick(context.Background(), "Series", []string{"a"})
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got != "Series" {
		t.Errorf("Pick = %q, want trimmed prompt", got)
	}
}

func TestExternalPick_Cancelled(t *testing.T) {
	tests := map[string]string{
		"empty output":    "cat >/dev/null",
		"escape in fzf":   "cat >/dev/null; exit 130",
		"escape in dmenu": "cat >/dev/null; exit 1",
		"blank line":      "cat >/dev/null; echo '   '",
	}
	for name, script := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := shellPicker(script).Pick(context.Background(), "", []string{"a", "b"})
			if !errors.Is(err, ErrCancelled) {
				t.Errorf("Pick error = %v, want ErrCancelled", err)
			}
		})
	}
}

func TestExternalPick_NoItems(t *testing.T) {
	_, err := shellPicker("sed -n 1p").Pick(context.Background(), "", nil)
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("Pick error = %v, want ErrNoItems", err)
	}
}

func TestExternalPick_MissingProgram(t *testing.T) {
	p := &External{Command: filepath.Join(t.TempDir(), "no-such-picker")}
	_, err := p.Pick(context.Background(), "", []string{"a"})
	if err == nil || errors.Is(err, ErrCancelled) {
		t.Errorf("Pick error = %v, want a launch failure", err)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(config.Picker{Command: config.BuiltinPicker}).(*Builtin); !ok {
		t.Error("builtin command should select the built-in picker")
	}

	p, ok := New(config.Picker{Command: "sh"}).(*External)
	if !ok {
		t.Fatal("available program should select an external picker")
	}
	if p.Command != "sh" {
		t.Errorf("Command = %q, want sh", p.Command)
	}
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func update(m pickModel, msgs ...tea.Msg) pickModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(pickModel)
	}
	return m
}

func TestPickModel(t *testing.T) {
	items := []string{"Frieren", "Severance", "Pluribus"}
	size := tea.WindowSizeMsg{Width: 80, Height: 24}

	m := update(newPickModel("Series", items), size, key(tea.KeyEnter))
	if m.choice != "Frieren" {
		t.Errorf("enter on first row chose %q", m.choice)
	}

	m = update(newPickModel("Series", items), size, key(tea.KeyDown), key(tea.KeyEnter))
	if m.choice != "Severance" {
		t.Errorf("down+enter chose %q, want Severance", m.choice)
	}

	m = update(newPickModel("Series", items), size, key(tea.KeyEsc))
	if m.choice != "" {
		t.Errorf("esc chose %q, want nothing", m.choice)
	}

	m = update(newPickModel("Series", items), size, key(tea.KeyDown), key(tea.KeyCtrlC))
	if m.choice != "" {
		t.Errorf("ctrl+c chose %q, want nothing", m.choice)
	}

	if view := newPickModel("Series", items).View(); view == "" {
		t.Error("View rendered nothing")
	}
}

func TestBuiltinPick_NoItems(t *testing.T) {
	_, err := (&Builtin{}).Pick(context.Background(), "", nil)
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("Pick error = %v, want ErrNoItems", err)
	}
}
