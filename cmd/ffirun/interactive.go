package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ffi-runtime/bind"
	"github.com/wippyai/ffi-runtime/manifest"
	"github.com/wippyai/ffi-runtime/native"
	"github.com/wippyai/ffi-runtime/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err          error
	manifestFile string
	libOverride  string
	libPath      string
	lib          *native.Library
	bindings     []*bind.Binding
	result       string
	inputs       []textinput.Model
	selected     int
	focusIdx     int
	state        modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(manifestFile, libOverride string) *interactiveModel {
	return &interactiveModel{
		manifestFile: manifestFile,
		libOverride:  libOverride,
		state:        stateSelectFunc,
	}
}

type loadedMsg struct {
	err      error
	lib      *native.Library
	libPath  string
	bindings []*bind.Binding
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadLibrary
}

func (m *interactiveModel) loadLibrary() tea.Msg {
	mf, err := manifest.Load(m.manifestFile)
	if err != nil {
		return loadedMsg{err: err}
	}
	libPath := mf.Library
	if m.libOverride != "" {
		libPath = m.libOverride
	}

	lib, err := native.Open(libPath)
	if err != nil {
		return loadedMsg{err: err}
	}

	reg := types.NewRegistry(types.HostPlatform())
	binder := bind.NewBinder(lib, reg, native.Memory{}, native.Allocator{})
	bound, err := mf.Bind(binder)
	if err != nil {
		lib.Close()
		return loadedMsg{err: err}
	}

	bindings := make([]*bind.Binding, 0, len(bound))
	for _, b := range bound {
		bindings = append(bindings, b)
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Signature().Symbol < bindings[j].Signature().Symbol
	})

	return loadedMsg{lib: lib, libPath: libPath, bindings: bindings}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.lib != nil {
				m.lib.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.bindings)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.lib = msg.lib
		m.libPath = msg.libPath
		m.bindings = msg.bindings

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	sig := m.bindings[m.selected].Signature()
	m.inputs = nil
	for _, p := range sig.Params {
		if p.IsLit {
			continue
		}
		ti := textinput.New()
		ti.Placeholder = p.Type.Name
		ti.Prompt = p.Name + ": "
		ti.Width = 40
		if len(m.inputs) == 0 {
			ti.Focus()
		}
		m.inputs = append(m.inputs, ti)
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	b := m.bindings[m.selected]
	sig := b.Signature()

	args := make([]any, 0, len(m.inputs))
	i := 0
	for _, p := range sig.Params {
		if p.IsLit {
			continue
		}
		v, err := convertArg(m.inputs[i].Value(), p.Type)
		if err != nil {
			return callResultMsg{err: fmt.Errorf("parameter %q: %w", p.Name, err)}
		}
		args = append(args, v)
		i++
	}

	result, err := b.Invoke(context.Background(), args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: formatResult(result)}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.bindings) == 0 {
		return "Loading library..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("FFI Runner"))
	b.WriteString(" ")
	b.WriteString(m.libPath)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, bd := range m.bindings {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + formatBinding(bd)))
			} else {
				b.WriteString(cursor + formatBinding(bd))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		sig := m.bindings[m.selected].Signature()
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(sig.Symbol)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		sig := m.bindings[m.selected].Signature()
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(sig.Symbol)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatBinding(b *bind.Binding) string {
	sig := b.Signature()
	var params []string
	for _, p := range sig.Params {
		if p.IsLit {
			continue
		}
		params = append(params, p.Name+": "+typeStyle.Render(p.Type.Name))
	}
	result := ""
	if sig.Return.Kind != types.KindVoid {
		result = " -> " + typeStyle.Render(sig.Return.Name)
	}
	return funcStyle.Render(sig.Symbol) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(manifestFile, libOverride string) error {
	p := tea.NewProgram(newInteractiveModel(manifestFile, libOverride), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
