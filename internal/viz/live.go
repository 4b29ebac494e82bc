package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/qtunnel/internal/analysis"
	"github.com/san-kum/qtunnel/internal/quantum"
)

const (
	width           = 80
	height          = 20
	statsWidth      = 44
	historyCapacity = 600
	fps             = 60

	barrierNudge = 0.25 // position change per arrow key
	heightNudge  = 1.0
	maxSpeed     = 256

	gifPath = "qtunnel.gif"
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a wave packet `speed` times per frame and renders it.
type Model struct {
	label         string
	params        quantum.Params
	initial       quantum.Params
	state         *quantum.State
	evo           *quantum.Evolver
	width, height int
	canvas        *Canvas
	smooth        springField
	densityScale  float64
	running       bool
	speed         int
	normHistory   []float64
	transHistory  []float64
	recording     bool
	frames        []*image.Paletted
	showHelp      bool
	status        string
}

// NewModel initializes the packet for p. label is shown in the header.
func NewModel(p quantum.Params, label string, speed int) (Model, error) {
	state, err := quantum.Initialize(p)
	if err != nil {
		return Model{}, err
	}
	evo, err := quantum.NewEvolver(p)
	if err != nil {
		return Model{}, err
	}
	if speed < 1 {
		speed = 1
	}

	m := Model{
		label:        label,
		params:       p,
		initial:      p,
		state:        state,
		evo:          evo,
		width:        width,
		height:       height,
		canvas:       NewCanvas(width, height),
		smooth:       newSpringField(fps, 6.0, 1.0),
		running:      true,
		speed:        speed,
		normHistory:  make([]float64, 0, historyCapacity),
		transHistory: make([]float64, 0, historyCapacity),
	}
	m.rescale()
	m.draw(true)
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Params returns the parameters currently in effect, barrier edits included.
func (m Model) Params() quantum.Params { return m.params }

// State returns the live wavefunction.
func (m Model) State() *quantum.State { return m.state }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.saveGIF()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "left", "h":
			m.moveBarrier(-barrierNudge)
		case "right", "l":
			m.moveBarrier(barrierNudge)
		case "up", "k":
			m.setBarrierHeight(m.params.BarrierHeight + heightNudge)
		case "down", "j":
			m.setBarrierHeight(math.Max(0, m.params.BarrierHeight-heightNudge))
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
				m.status = "recording"
			}
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			NextTheme()
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw(false)
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the solver by speed steps and records the observables.
func (m *Model) step() {
	if err := m.evo.StepN(m.state, m.speed); err != nil {
		m.status = err.Error()
		m.running = false
		return
	}
	if !m.state.IsValid() {
		m.status = "state diverged; press r"
		m.running = false
		return
	}

	m.normHistory = appendCapped(m.normHistory, quantum.TotalProbability(m.state, m.params.DX))
	m.transHistory = appendCapped(m.transHistory, quantum.Transmitted(m.state, m.params))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// moveBarrier shifts the barrier without touching the wavefunction.
func (m *Model) moveBarrier(dx float64) {
	p := m.params
	p.BarrierPos += dx
	lo, hi := p.Position(0), p.Position(p.NX-1)
	if p.BarrierPos < lo || p.BarrierPos > hi {
		return
	}
	m.applyBarrier(p)
}

func (m *Model) setBarrierHeight(h float64) {
	p := m.params
	p.BarrierHeight = h
	m.applyBarrier(p)
	m.rescale()
}

func (m *Model) applyBarrier(p quantum.Params) {
	v, err := quantum.BuildPotential(p)
	if err != nil {
		m.status = err.Error()
		return
	}
	if err := m.state.SetPotential(v); err != nil {
		m.status = err.Error()
		return
	}
	m.params = p
}

// reset re-initializes the packet with the current barrier settings.
func (m *Model) reset() {
	state, err := quantum.Initialize(m.params)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.state = state
	m.normHistory = m.normHistory[:0]
	m.transHistory = m.transHistory[:0]
	m.running = true
	m.status = ""
	m.rescale()
	m.draw(true)
}

// rescale fixes the density axis to the fresh packet's peak so absorption
// shows up as shrinking columns.
func (m *Model) rescale() {
	fresh, err := quantum.Initialize(m.params)
	if err != nil {
		return
	}
	m.densityScale = quantum.PeakDensity(fresh) * 1.1
}

func (m *Model) resize(w, h int) {
	cw := max(w-statsWidth-8, 20)
	ch := max(h-4, 8)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
	m.draw(true)
}

// potentialScale maps energies onto the canvas height: the larger of the
// barrier and the packet energy sits at 80%.
func (m *Model) potentialScale() float64 {
	top := math.Max(m.params.BarrierHeight, analysis.PacketEnergy(m.params))
	if top <= 0 {
		return 1
	}
	return top / 0.8
}

// draw renders density columns, the potential outline and the packet
// energy line. snap skips the spring easing.
func (m *Model) draw(snap bool) {
	c := m.canvas
	c.Clear()

	cw, ch := c.PixelWidth(), c.PixelHeight()
	n := m.state.Len()
	prob := quantum.ProbabilityDensity(m.state)

	targets := make([]float64, cw)
	potential := make([]int, cw)
	vScale := m.potentialScale()

	for x := 0; x < cw; x++ {
		i0 := x * n / cw
		i1 := max((x+1)*n/cw, i0+1)

		d, v := 0.0, 0.0
		for i := i0; i < i1 && i < n; i++ {
			d = math.Max(d, prob[i])
			v = math.Max(v, m.state.Potential[i])
		}
		if m.densityScale > 0 {
			targets[x] = math.Min(d/m.densityScale, 1) * float64(ch-1)
		}
		potential[x] = ch - 1 - int(math.Min(v/vScale, 1)*float64(ch-1))
	}

	if snap {
		m.smooth.snap(targets)
	} else {
		m.smooth.resize(cw)
	}
	for x := 0; x < cw; x++ {
		h := targets[x]
		if !snap {
			h = m.smooth.step(x, targets[x])
		}
		c.FillColumn(x, int(math.Round(h)))
	}

	for x := 1; x < cw; x++ {
		c.DrawLine(x-1, potential[x-1], x, potential[x])
	}

	e := analysis.PacketEnergy(m.params)
	c.DottedHLine(ch - 1 - int(math.Min(e/vScale, 1)*float64(ch-1)))
}

// View renders the TUI interface.
func (m Model) View() string {
	st := themeStyles(CurrentTheme)
	p := m.params

	var s strings.Builder
	title := "QTUNNEL"
	if m.label != "" {
		title += " · " + strings.ToUpper(m.label)
	}
	s.WriteString(st.header.Render(title) + "\n")

	switch {
	case m.status != "" && !m.running:
		s.WriteString(st.errorMsg.Render(m.status))
	case m.recording:
		s.WriteString(st.paused.Render("● REC"))
	case m.running:
		s.WriteString(st.running.Render("RUNNING"))
	default:
		s.WriteString(st.paused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	norm := quantum.TotalProbability(m.state, p.DX)
	trans := quantum.Transmitted(m.state, p)
	refl := quantum.Reflected(m.state, p)

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f", m.state.Time))
	s.WriteString(st.label.Render("Norm") + ProgressBar(norm, 16, CurrentTheme) + st.value.Render(fmt.Sprintf(" %.4f", norm)) + "\n")
	row("Transmitted", fmt.Sprintf("%.4f", trans))
	row("Reflected", fmt.Sprintf("%.4f", refl))
	row("Absorbed", fmt.Sprintf("%.4f", 1-norm))
	row("<x>", fmt.Sprintf("%+.3f", quantum.MeanPosition(m.state, p)))
	row("Energy", fmt.Sprintf("%.3f", analysis.PacketEnergy(p)))
	row("Speed", fmt.Sprintf("%d steps/frame", m.speed))

	s.WriteString("\n" + st.barrier.Render("BARRIER") + "\n")
	row("Position", fmt.Sprintf("%+.2f", p.BarrierPos))
	row("Height", fmt.Sprintf("%.2f", p.BarrierHeight))
	row("Width", fmt.Sprintf("%.2f", p.BarrierWidth))

	if len(m.normHistory) > 1 {
		chart := asciigraph.Plot(m.normHistory,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Norm"))
		s.WriteString(st.graph.Render(chart) + "\n")
		s.WriteString(st.label.Render("T history") + st.value.Render(Sparkline(m.transHistory, 24)) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\n←→:Move ↑↓:Height +-:Speed\nT:Theme G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		st.canvas.Render(m.canvas.String()),
		st.stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Re-initialize packet     ║
║  Q        - Quit                     ║
║  ←/→      - Move barrier             ║
║  ↑/↓      - Barrier height           ║
║  +/-      - Steps per frame          ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.canvas.Width*charW, m.canvas.Height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})

	dotW, dotH := charW/2, charH/4
	for y := 0; y < m.canvas.PixelHeight(); y++ {
		for x := 0; x < m.canvas.PixelWidth(); x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(gifPath)
	if err != nil {
		m.status = err.Error()
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), gifPath)
}

// Run starts the live view full screen and blocks until it quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
