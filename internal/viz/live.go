package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailCapacity   = 400
	frameRate       = time.Second / 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

type point struct{ x, y float64 }

// Model animates one simulator, advancing a fixed number of steps per
// frame with the selected scheme.
type Model struct {
	sim           *sim.Simulator
	schemes       []integrators.Scheme
	selected      int
	snap          sim.Snapshot
	stepsPerFrame int
	view          Viewport
	canvas        *Canvas
	trails        [][]point
	energyHistory []float64
	drift         *metrics.EnergyDrift
	running       bool
	err           error
}

// NewModel starts running from the simulator's initial state. The viewport
// fits the farthest body with some margin.
func NewModel(s *sim.Simulator, stepsPerFrame int) Model {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	m := Model{
		sim:           s,
		schemes:       integrators.AllSchemes(),
		stepsPerFrame: stepsPerFrame,
		canvas:        NewCanvas(width, height),
		drift:         metrics.NewEnergyDrift(),
		running:       true,
	}
	m.view = Viewport{Radius: 1.2 * maxRadius(s.Initial())}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "s":
			m.selected = (m.selected + 1) % len(m.schemes)
			m.reset()
		case "+", "=":
			m.view.Radius /= 1.25
		case "-", "_":
			m.view.Radius *= 1.25
		case "]":
			m.stepsPerFrame *= 2
		case "[":
			m.stepsPerFrame = max(1, m.stepsPerFrame/2)
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// WithScheme selects the starting scheme and resets the animation.
func (m Model) WithScheme(s integrators.Scheme) Model {
	for i, sc := range m.schemes {
		if sc == s {
			m.selected = i
		}
	}
	m.reset()
	return m
}

// Scheme is the integrator currently driving the animation.
func (m Model) Scheme() integrators.Scheme { return m.schemes[m.selected] }

// Time is the simulated time of the displayed state in days.
func (m Model) Time() float64 { return m.snap.Time }

func (m Model) Err() error { return m.err }

func (m *Model) step() {
	span := float64(m.stepsPerFrame) * m.sim.Config().Dt
	res, next, err := m.sim.Advance(context.Background(), m.Scheme(), m.snap, span)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	for k := 1; k < res.Len(); k++ {
		m.record(res.Q[k], res.Energy[k])
	}
	m.snap = next
}

func (m *Model) record(q []float64, energy float64) {
	for i := range m.trails {
		m.trails[i] = append(m.trails[i], point{q[3*i], q[3*i+1]})
		if len(m.trails[i]) > trailCapacity {
			m.trails[i] = m.trails[i][1:]
		}
	}
	m.drift.Observe(energy)
	m.energyHistory = append(m.energyHistory, energy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

// reset restores the initial state and clears the trails.
func (m *Model) reset() {
	m.snap = m.sim.Initial()
	m.err = nil
	m.drift.Reset()
	m.energyHistory = m.energyHistory[:0]
	m.trails = make([][]point, m.snap.Q.Bodies())
	if h, err := metrics.Hamiltonian(m.sim.Field(), m.snap.Q, m.snap.P); err == nil {
		m.record(m.snap.Q, h)
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, trail := range m.trails {
		if len(trail) == 0 {
			continue
		}
		px, py := m.view.Project(m.canvas, trail[0].x, trail[0].y)
		for _, pt := range trail[1:] {
			x, y := m.view.Project(m.canvas, pt.x, pt.y)
			m.canvas.DrawLine(px, py, x, y)
			px, py = x, y
		}
		m.canvas.Dot(px, py, 1)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("STOPPED")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}

	var s strings.Builder
	s.WriteString(TitleStyle.Render(strings.ToUpper(strings.Join(m.sim.Bodies().Names(), " · "))) + "\n")
	s.WriteString(status + "\n\n")
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(RelativeSeries(m.energyHistory), asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("ΔE/E₀"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	s.WriteString(MetricLabel.Render("Scheme") + MetricValue.Render(m.Scheme().Label()) + "\n")
	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(fmt.Sprintf("%.1f d", m.snap.Time)) + "\n")
	s.WriteString(MetricLabel.Render("Steps/frame") + MetricValue.Render(fmt.Sprintf("%d", m.stepsPerFrame)) + "\n")
	s.WriteString(MetricLabel.Render("ΔE final") + MetricValue.Render(fmt.Sprintf("%.3e", m.drift.Final())) + "\n")
	s.WriteString(MetricLabel.Render("ΔE max") + MetricValue.Render(fmt.Sprintf("%.3e", m.drift.Value())) + "\n")
	s.WriteString(MetricLabel.Render("View") + MetricValue.Render(fmt.Sprintf("±%.2f AU", m.view.Radius)) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + KeyHint.Render("SP:Pause R:Reset S:Scheme Q:Quit\n+/-:Zoom [ ]:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

func maxRadius(s sim.Snapshot) float64 {
	r := 0.0
	for i := 0; i < s.Q.Bodies(); i++ {
		x, y, _ := s.Q.Triplet(i)
		r = max(r, x*x+y*y)
	}
	if r == 0 {
		return 1
	}
	return math.Sqrt(r)
}
