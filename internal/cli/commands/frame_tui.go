package commands

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/boardkit/pkg/framing"
)

const (
	panStep     = 10.0
	finePanStep = 1.0
	sliderWidth = 30
)

var (
	frameTitleStyle = lipgloss.NewStyle().Bold(true)
	frameMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	frameErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// frameModel drives a framing session from the keyboard and mouse wheel.
// It never commits itself; the caller commits when committed is set.
type frameModel struct {
	session   *framing.Session
	source    string
	committed bool
	quitting  bool
	lastErr   error
}

func newFrameModel(s *framing.Session, source string) *frameModel {
	return &frameModel{session: s, source: source}
}

func (m *frameModel) Init() tea.Cmd {
	return nil
}

func (m *frameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.lastErr = m.session.ZoomBy(framing.WheelStep)
		case tea.MouseButtonWheelDown:
			m.lastErr = m.session.ZoomBy(1 / framing.WheelStep)
		}
	}
	return m, nil
}

func (m *frameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	var err error
	switch msg.String() {
	case "left":
		err = s.Pan(-panStep, 0)
	case "right":
		err = s.Pan(panStep, 0)
	case "up":
		err = s.Pan(0, -panStep)
	case "down":
		err = s.Pan(0, panStep)
	case "shift+left":
		err = s.Pan(-finePanStep, 0)
	case "shift+right":
		err = s.Pan(finePanStep, 0)
	case "shift+up":
		err = s.Pan(0, -finePanStep)
	case "shift+down":
		err = s.Pan(0, finePanStep)
	case "+", "=":
		err = s.ZoomBy(framing.ButtonStep)
	case "-", "_":
		err = s.ZoomBy(1 / framing.ButtonStep)
	case "[":
		err = s.Rotate(-math.Pi / 2)
	case "]":
		err = s.Rotate(math.Pi / 2)
	case "r":
		err = s.Reset()
	case "enter":
		m.committed = true
		m.quitting = true
		return m, tea.Quit
	case "esc", "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	}
	m.lastErr = err
	return m, nil
}

func (m *frameModel) View() string {
	if m.quitting {
		return ""
	}
	st := m.session.State()
	w, h := m.session.Size()

	var b strings.Builder
	b.WriteString(frameTitleStyle.Render(fmt.Sprintf("Framing %s into %dx%d", m.source, w, h)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  Zoom      %s %5.0f%%\n", slider(m.session.SliderPosition()), st.ZoomPercent())
	fmt.Fprintf(&b, "  Rotation  %.0f°\n", st.Rotation*180/math.Pi)
	fmt.Fprintf(&b, "  Pan       %.1f, %.1f\n", st.PanX, st.PanY)
	if m.lastErr != nil {
		b.WriteString("\n" + frameErrStyle.Render(m.lastErr.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(frameMutedStyle.Render("arrows pan · shift fine · +/- zoom · [ ] rotate · r reset · enter save · esc cancel"))
	b.WriteString("\n")
	return b.String()
}

// slider draws pos in [0,1] as a fixed-width bar.
func slider(pos float64) string {
	filled := int(math.Round(framing.Clamp(pos, 0, 1) * sliderWidth))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", sliderWidth-filled) + "]"
}
