package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

var presetInfo = map[string]string{
	"tunneling":    "energy below the barrier",
	"reflection":   "tall thick wall",
	"transmission": "energy over the barrier",
	"free":         "no barrier",
	"rough":        "noisy barrier top",
	"resonance":    "over-barrier resonance",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	idleDimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// field nudges applied with h/l in the config screen
var fieldSteps = map[string]float64{
	"barrier_height": 1,
	"barrier_width":  0.1,
	"barrier_pos":    0.5,
	"k0":             0.25,
	"sigma":          0.1,
	"x0":             0.5,
	"roughness":      0.05,
}

// PresetPicker lists presets, lets the user tweak packet and barrier
// fields, then hands off to the live Model. Esc in the live view returns
// to the menu.
type PresetPicker struct {
	state, cursor int
	names         []string
	presets       map[string]quantum.Params
	selected      string
	params        quantum.Params
	fields        []string
	fieldCursor   int
	editing       bool
	editBuf       string
	speed         int
	err           string
	width, height int
	live          Model
}

func NewPresetPicker(presets map[string]quantum.Params, speed int) *PresetPicker {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return &PresetPicker{
		state:   stateMenu,
		names:   names,
		presets: presets,
		fields:  sim.SweepFields(),
		speed:   speed,
		width:   80,
		height:  24,
	}
}

func (m PresetPicker) Init() tea.Cmd { return nil }

func (m PresetPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			return m.forward(msg)
		}
		return m, nil
	default:
		if m.state == stateSim {
			return m.forward(msg)
		}
	}
	return m, nil
}

func (m PresetPicker) forward(msg tea.Msg) (PresetPicker, tea.Cmd) {
	next, cmd := m.live.Update(msg)
	m.live = next.(Model)
	return m, cmd
}

func (m PresetPicker) handleKey(msg tea.KeyMsg) (PresetPicker, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		if msg.String() == "esc" {
			if m.live.recording {
				m.live.saveGIF()
			}
			m.state = stateMenu
			return m, nil
		}
		return m.forward(msg)
	}
	return m, nil
}

func (m PresetPicker) menuKey(msg tea.KeyMsg) (PresetPicker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.names) == 0 {
			return m, nil
		}
		m.selected = m.names[m.cursor]
		m.params = m.presets[m.selected]
		m.state, m.fieldCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m PresetPicker) configKey(msg tea.KeyMsg) (PresetPicker, tea.Cmd) {
	field := m.fields[m.fieldCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				_ = sim.SetField(&m.params, field, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(m.fields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		v, _ := sim.Field(m.params, field)
		m.editing, m.editBuf = true, strconv.FormatFloat(v, 'f', -1, 64)
	case "left", "h":
		m.nudge(field, -1)
	case "right", "l":
		m.nudge(field, 1)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m *PresetPicker) nudge(field string, dir float64) {
	v, err := sim.Field(m.params, field)
	if err != nil {
		return
	}
	_ = sim.SetField(&m.params, field, v+dir*fieldSteps[field])
}

func (m PresetPicker) start() (PresetPicker, tea.Cmd) {
	live, err := NewModel(m.params, m.selected, m.speed)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	live.resize(m.width, m.height)
	m.live, m.state, m.err = live, stateSim, ""
	return m, m.live.Init()
}

func (m PresetPicker) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func header(title, sub string) string {
	return "\n\n    " + titleStyle.Render(title) + "\n    " + subStyle.Render(sub) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n"
}

func keyHints(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

func (m PresetPicker) viewMenu() string {
	var b strings.Builder
	b.WriteString(header("QTUNNEL", "split-step tunneling simulator"))
	for i, name := range m.names {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), currentStyle.Render(fmt.Sprintf("%-14s", name)), accentStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-14s", name)), idleDimStyle.Render(desc)))
		}
	}
	b.WriteString(keyHints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m PresetPicker) viewConfig() string {
	var b strings.Builder
	b.WriteString(header(strings.ToUpper(m.selected), presetInfo[m.selected]))
	for i, name := range m.fields {
		v, _ := sim.Field(m.params, name)
		valStr := fmt.Sprintf("%8.3f", v)
		if m.editing && i == m.fieldCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), currentStyle.Render(fmt.Sprintf("%-16s", name)), accentStyle.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-16s", name)), idleDimStyle.Render(valStr)))
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Render(m.err) + "\n")
	}
	b.WriteString(keyHints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back"))
	return b.String()
}

// RunPresetPicker runs the picker full screen.
func RunPresetPicker(presets map[string]quantum.Params, speed int) error {
	_, err := tea.NewProgram(NewPresetPicker(presets, speed), tea.WithAltScreen()).Run()
	return err
}
