package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/schollz/tapecore/internal/mixer"
)

var monitorBlockSize int

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Play a session while showing a live transport/meter dashboard",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().IntVar(&monitorBlockSize, "block-size", 1024, "audio callback block size in frames")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if projectPath == "" {
		return fmt.Errorf("--project is required")
	}
	m, err := loadSession(projectPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		_ = runTransportLoop(ctx, m, monitorBlockSize, true)
	}()

	p := tea.NewProgram(newMonitorModel(m), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// monitorTickMsg redraws the dashboard on a fixed schedule, independent of
// the transport loop's own block rate — the redraw cadence and the
// playback advance are two separate clocks so a slow terminal repaint
// never throttles audio timing.
type monitorTickMsg struct{}

func tickMonitor() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return monitorTickMsg{}
	})
}

var (
	monitorLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	monitorValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	monitorTrackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	monitorContainer  = lipgloss.NewStyle().Padding(1, 2)
)

type monitorModel struct {
	mixer    *mixer.Mixer
	progress progress.Model
	width    int
	height   int
}

func newMonitorModel(m *mixer.Mixer) monitorModel {
	p := progress.New(progress.WithDefaultGradient())
	p.Width = 50
	return monitorModel{mixer: m, progress: p}
}

func (m monitorModel) Init() tea.Cmd { return tickMonitor() }

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = msg.Width - 10
		return m, nil
	case monitorTickMsg:
		var cmd tea.Cmd
		if total := m.mixer.Timeline.SessionLengthFrames(); total > 0 {
			frac := float64(m.mixer.Timeline.TransportFrame()) / float64(total)
			cmd = m.progress.SetPercent(frac)
		}
		return m, tea.Batch(cmd, tickMonitor())
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	default:
		// Route progress-bar animation frames (progress.FrameMsg) to the
		// embedded progress.Model, the same delegation bubbles' own
		// examples use for a nested Bubble.
		updated, cmd := m.progress.Update(msg)
		m.progress = updated.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder
	tl := m.mixer.Timeline
	fmt.Fprintf(&b, "%s %s / %s\n%s\n",
		monitorLabelStyle.Render("transport"),
		monitorValueStyle.Render(fmt.Sprintf("%d", tl.TransportFrame())),
		monitorValueStyle.Render(fmt.Sprintf("%d", tl.SessionLengthFrames())),
		m.progress.View())

	status := "stopped"
	if tl.Playing() {
		status = "playing"
	}
	if tl.Looping() {
		status += fmt.Sprintf(", looping [%d,%d)", tl.LoopStart(), tl.LoopEnd())
	}
	fmt.Fprintf(&b, "%s %s\n\n", monitorLabelStyle.Render("status"), monitorValueStyle.Render(status))

	for i, t := range m.mixer.Tracks() {
		_, peakL := t.MeterL.Read()
		_, peakR := t.MeterR.Read()
		peak := peakL
		if peakR > peak {
			peak = peakR
		}
		fmt.Fprintf(&b, "%s %s\n", monitorTrackStyle.Render(fmt.Sprintf("%2d %-12s", i, t.Name)), meterBar(peak, 32))
	}

	b.WriteString("\n")
	b.WriteString(termenv.String("press q to quit").Foreground(termenv.ANSIBrightBlack).String())
	return monitorContainer.Render(b.String())
}

// meterBar renders a width-wide bar whose filled portion is colored along
// a green-to-red gradient by peak (0..1+), using go-colorful to interpolate
// in a perceptual color space rather than raw RGB.
func meterBar(peak float32, width int) string {
	if peak < 0 {
		peak = 0
	}
	if peak > 1 {
		peak = 1
	}
	filled := int(peak * float32(width))
	green, _ := colorful.Hex("#2ecc71")
	red, _ := colorful.Hex("#e74c3c")
	color := green.BlendLab(red, float64(peak))
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color.Hex()))
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	return style.Render(bar)
}
