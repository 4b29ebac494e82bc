package viz

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/qtunnel/internal/quantum"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	if c.PixelWidth() != 8 || c.PixelHeight() != 8 {
		t.Fatalf("pixel size = %dx%d", c.PixelWidth(), c.PixelHeight())
	}

	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Error("expected (3,5) set")
	}
	if c.IsSet(2, 5) {
		t.Error("neighbour should be clear")
	}

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(100, 100)

	c.Clear()
	if c.IsSet(3, 5) {
		t.Error("Clear left a pixel set")
	}
}

func TestCanvasFillColumn(t *testing.T) {
	c := NewCanvas(2, 2)
	c.FillColumn(1, 3)
	for y := 0; y < c.PixelHeight(); y++ {
		want := y >= c.PixelHeight()-3
		if c.IsSet(1, y) != want {
			t.Errorf("y=%d set=%v want %v", y, c.IsSet(1, y), want)
		}
	}

	// taller than the canvas saturates
	c.FillColumn(0, 100)
	for y := 0; y < c.PixelHeight(); y++ {
		if !c.IsSet(0, y) {
			t.Errorf("y=%d not set", y)
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	for _, l := range lines {
		if len([]rune(l)) != 3 {
			t.Errorf("line width = %d", len([]rune(l)))
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)

	start := CurrentTheme.Name
	seen := map[string]bool{}
	for range Themes {
		NextTheme()
		seen[CurrentTheme.Name] = true
	}
	if CurrentTheme.Name != start {
		t.Errorf("after a full cycle theme = %s, want %s", CurrentTheme.Name, start)
	}
	if len(seen) != len(Themes) {
		t.Errorf("visited %d themes, want %d", len(seen), len(Themes))
	}
}

func TestGetThemeFallback(t *testing.T) {
	if got := GetTheme("nope"); got.Name != ThemeCyberpunk.Name {
		t.Errorf("fallback = %s", got.Name)
	}
}

func TestSparklineWidth(t *testing.T) {
	values := []float64{0, 0.5, 1, 0.2, 0.9}
	if got := []rune(Sparkline(values, 3)); len(got) != 3 {
		t.Errorf("width = %d", len(got))
	}
	if got := []rune(Sparkline(nil, 4)); len(got) != 4 {
		t.Errorf("empty width = %d", len(got))
	}
}

func testParams() quantum.Params {
	p := quantum.DefaultParams()
	p.NX = 256
	p.DX = 50.0 / 256
	p.XStart = -25
	p.AbsorbWidth = 16
	return p
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.NX = 100
	if _, err := NewModel(p, "bad", 1); err == nil {
		t.Fatal("expected error for non power of two grid")
	}
}

func TestModelMoveBarrierKeepsWavefunction(t *testing.T) {
	m, err := NewModel(testParams(), "test", 4)
	if err != nil {
		t.Fatal(err)
	}
	before := append([]float64(nil), m.State().Real...)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.Params().BarrierPos; math.Abs(got-0.25) > 1e-12 {
		t.Errorf("barrier pos = %v, want 0.25", got)
	}
	for i, v := range m.State().Real {
		if v != before[i] {
			t.Fatalf("real[%d] changed on barrier move", i)
		}
	}

	m = press(t, m, runes("h"))
	if got := m.Params().BarrierPos; math.Abs(got) > 1e-12 {
		t.Errorf("barrier pos = %v, want 0", got)
	}
}

func TestModelBarrierHeightFloorsAtZero(t *testing.T) {
	p := testParams()
	p.BarrierHeight = 0.5
	m, err := NewModel(p, "test", 1)
	if err != nil {
		t.Fatal(err)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Params().BarrierHeight != 0 {
		t.Errorf("height = %v", m.Params().BarrierHeight)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Params().BarrierHeight != 1 {
		t.Errorf("height = %v", m.Params().BarrierHeight)
	}
}

func TestModelSpeedBounds(t *testing.T) {
	m, err := NewModel(testParams(), "test", 1)
	if err != nil {
		t.Fatal(err)
	}
	m = press(t, m, runes("-"))
	if m.speed != 1 {
		t.Errorf("speed = %d, want 1", m.speed)
	}
	for range 20 {
		m = press(t, m, runes("+"))
	}
	if m.speed != maxSpeed {
		t.Errorf("speed = %d, want %d", m.speed, maxSpeed)
	}
}

func TestModelTickAdvancesOnlyWhenRunning(t *testing.T) {
	p := testParams()
	m, err := NewModel(p, "test", 3)
	if err != nil {
		t.Fatal(err)
	}

	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if want := 3 * p.DT; math.Abs(m.State().Time-want) > 1e-12 {
		t.Errorf("time = %v, want %v", m.State().Time, want)
	}

	m = press(t, m, runes(" "))
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if want := 3 * p.DT; math.Abs(m.State().Time-want) > 1e-12 {
		t.Errorf("paused time = %v, want %v", m.State().Time, want)
	}
}

func TestModelResetRestoresPacket(t *testing.T) {
	m, err := NewModel(testParams(), "test", 8)
	if err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(TickMsg{})
	m = next.(Model)
	m = press(t, m, runes("r"))
	if m.State().Time != 0 {
		t.Errorf("time after reset = %v", m.State().Time)
	}
	if n := quantum.TotalProbability(m.State(), m.Params().DX); math.Abs(n-1) > 1e-9 {
		t.Errorf("norm after reset = %v", n)
	}
}

func TestModelViewMentionsLabel(t *testing.T) {
	m, err := NewModel(testParams(), "tunneling", 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := m.View(); !strings.Contains(v, "TUNNELING") {
		t.Error("view is missing the label")
	}
}

func TestPresetPickerFlow(t *testing.T) {
	presets := map[string]quantum.Params{"a": testParams(), "b": testParams()}
	var m tea.Model = NewPresetPicker(presets, 2)

	step := func(msg tea.Msg) {
		m, _ = m.Update(msg)
	}

	step(tea.KeyMsg{Type: tea.KeyDown})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	pp := m.(PresetPicker)
	if pp.state != stateConfig || pp.selected != "b" {
		t.Fatalf("state=%d selected=%q", pp.state, pp.selected)
	}

	step(runes("s"))
	pp = m.(PresetPicker)
	if pp.state != stateSim {
		t.Fatalf("state = %d, want sim", pp.state)
	}
	if pp.live.speed != 2 {
		t.Errorf("live speed = %d", pp.live.speed)
	}

	step(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(PresetPicker).state != stateMenu {
		t.Error("esc should return to the menu")
	}
}

func TestPresetPickerNudge(t *testing.T) {
	p := testParams()
	var m tea.Model = NewPresetPicker(map[string]quantum.Params{"a": p}, 1)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// fields are sorted; barrier_height comes first
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.(PresetPicker).params.BarrierHeight; got != p.BarrierHeight+1 {
		t.Errorf("height = %v, want %v", got, p.BarrierHeight+1)
	}
}
