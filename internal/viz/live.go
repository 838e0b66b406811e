package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dynbridge/internal/experiment"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/san-kum/dynbridge/internal/metrics"
	"github.com/san-kum/dynbridge/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	frameRate       = 25
	viewSpan        = 4.0
)

type TickMsg time.Time

// PrepareFunc builds a fresh initialized world for the live view.
type PrepareFunc func() (*sim.World, *experiment.Setup, error)

// Model steps a world in real time and draws it.
type Model struct {
	name    string
	prepare PrepareFunc
	world   *sim.World
	setup   *experiment.Setup
	bodies  []*kin.Body

	canvas  *Canvas
	running bool
	follow  bool
	speed   float64
	err     error

	energyHistory []float64
}

// NewModel prepares the first world. The caller must Close the model
// after the program exits.
func NewModel(name string, prepare PrepareFunc) (*Model, error) {
	m := &Model{
		name:          name,
		prepare:       prepare,
		canvas:        NewCanvas(width, height),
		running:       true,
		speed:         1,
		energyHistory: make([]float64, 0, historyCapacity),
	}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		case "+", "=":
			m.speed = math.Min(m.speed*2, 16)
		case "-", "_":
			m.speed = math.Max(m.speed/2, 1.0/16)
		case "f":
			m.follow = !m.follow
		case "t":
			nextTheme()
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerFrame())
		}
		return m, tick()
	}
	return m, nil
}

// Err is the error that ended the program, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) Close() {
	if m.world != nil {
		m.world.Clear()
		m.world = nil
	}
}

func (m *Model) reset() error {
	m.Close()
	w, setup, err := m.prepare()
	if err != nil {
		return err
	}
	m.world, m.setup = w, setup
	m.bodies = m.bodies[:0]
	for _, ba := range w.Bodies() {
		m.bodies = append(m.bodies, ba.Body())
	}
	m.energyHistory = m.energyHistory[:0]
	return nil
}

func (m *Model) stepsPerFrame() int {
	n := int(math.Round(m.speed / frameRate / m.world.TimeStep()))
	return max(n, 1)
}

// advance runs n steps of the controllers and the world.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		t := m.world.Time()
		for _, b := range m.setup.Bindings {
			b.Controller.Compute(b.Body, t)
		}
		m.world.StepAll()
	}
	m.energyHistory = append(m.energyHistory, metrics.MechanicalEnergy(m.bodies, m.world.Config().Gravity))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

// center is the mean root position of the moving bodies.
func (m *Model) center() (float64, float64) {
	var x, z float64
	n := 0
	for _, b := range m.bodies {
		if b.IsStaticModel() {
			continue
		}
		p := b.RootLink().P
		x += p[0]
		z += p[2]
		n++
	}
	if !m.follow || n == 0 {
		return 0, viewSpan / 2 * 0.6
	}
	return x / float64(n), z / float64(n)
}

// draw projects every link side on: ground at z=0, a segment from each
// parent joint origin to the child's and a cross at each center of mass.
func (m *Model) draw() {
	c := m.canvas
	c.Clear()
	cx, cz := m.center()
	p := Fit(c, cx, cz, viewSpan)

	x0, gz := p.Point(c, cx-viewSpan, 0)
	x1, _ := p.Point(c, cx+viewSpan, 0)
	c.DrawLine(x0, gz, x1, gz)

	for _, b := range m.bodies {
		if b.IsStaticModel() {
			continue
		}
		for _, l := range b.Links() {
			px, pz := p.Point(c, l.P[0], l.P[2])
			if parent := l.Parent(); parent != nil {
				qx, qz := p.Point(c, parent.P[0], parent.P[2])
				c.DrawLine(qx, qz, px, pz)
			}
			com := l.P.Add(l.R.Mul3x1(l.C))
			mx, mz := p.Point(c, com[0], com[2])
			c.DrawCross(mx, mz)
		}
	}
}

func (m *Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.name)) + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(statusStyle(m.running).Render(status) + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle().Render(chart) + "\n\n")
	}
	energy := 0.0
	if n := len(m.energyHistory); n > 0 {
		energy = m.energyHistory[n-1]
	}
	physics, detection := m.world.Timing()
	rows := [][2]string{
		{"Time", fmt.Sprintf("%.2fs", m.world.Time())},
		{"Steps", fmt.Sprintf("%d", m.world.Steps())},
		{"Speed", fmt.Sprintf("x%g", m.speed)},
		{"Energy", fmt.Sprintf("%.3f J", energy)},
		{"Contacts", fmt.Sprintf("%d", m.world.Contacts().Group().Len())},
		{"Step mode", m.world.Config().StepMode},
		{"Physics", physics.Round(time.Millisecond).String()},
		{"Collision", detection.Round(time.Millisecond).String()},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\n+/-:Speed F:Follow T:Theme"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
