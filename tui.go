package main

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type ProcessingMsg struct{ Stage string }
type ResultMsg struct {
	Text     string
	Fallback bool // rewrite failed, raw transcript delivered
	Copied   bool
}
type SessionErrorMsg struct{ Text string }
type NoVoiceWarningMsg struct{}
type VoiceClearedMsg struct{}
type ModeLineMsg struct{ Text string }   // active style + rewrite model
type DeviceLineMsg struct{ Text string } // microphone device name
type UpdateAvailableMsg struct{ Version string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateProcessing
)

const (
	waveCols = 44
	waveRows = 7
)

type tuiModel struct {
	state             tuiState
	frame             int
	recordingDuration float64
	audioLevel        float64
	levels            [waveCols]float64 // rolling level history, newest last
	noVoice           bool
	stage             string // "transcribing" or "rewriting"
	msgCount          int
	width, height     int
	modeLine          string
	deviceLine        string
	chordLine         string
	updateVersion     string
	lastText          string
	lastFallback      bool
	lastCopied        bool
	lastError         string
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

// Pre-computed bar styles to avoid allocations in the render loop. Index is
// the amplitude band of the column.
var (
	waveColorsRec  = []string{"236", "52", "88", "124", "160", "196", "208"}
	waveColorsIdle = []string{"236", "238", "240", "242", "245", "248", "250"}
	waveStylesRec  [7]lipgloss.Style
	waveStylesIdle [7]lipgloss.Style
)

func init() {
	for i, c := range waveColorsRec {
		waveStylesRec[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	for i, c := range waveColorsIdle {
		waveStylesIdle[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
}

func NewTUIProgram(chord string) *tea.Program {
	m := tuiModel{chordLine: chord}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards controller events into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) RecordingStart()          { tuiSend(RecordingStartMsg{}) }
func (tuiSink) RecordingStop()           { tuiSend(RecordingStopMsg{}) }
func (tuiSink) RecordingTick(d float64)  { tuiSend(RecordingTickMsg{Duration: d}) }
func (tuiSink) AudioLevel(l float64)     { tuiSend(AudioLevelMsg{Level: l}) }
func (tuiSink) NoVoiceWarning()          { tuiSend(NoVoiceWarningMsg{}) }
func (tuiSink) VoiceCleared()            { tuiSend(VoiceClearedMsg{}) }
func (tuiSink) Processing(stage string)  { tuiSend(ProcessingMsg{Stage: stage}) }
func (tuiSink) SessionError(msg string)  { tuiSend(SessionErrorMsg{Text: msg}) }
func (tuiSink) ModeLine(text string)     { tuiSend(ModeLineMsg{Text: text}) }
func (tuiSink) DeviceLine(text string)   { tuiSend(DeviceLineMsg{Text: text}) }
func (tuiSink) Result(text string, fallback, copied bool) {
	tuiSend(ResultMsg{Text: text, Fallback: fallback, Copied: copied})
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		tuiReadyOnce.Do(func() { close(tuiReady) })

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		if m.state == tuiStateRecording {
			copy(m.levels[:], m.levels[1:])
			m.levels[waveCols-1] = m.audioLevel
		}
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.recordingDuration = 0
		m.audioLevel = 0
		m.noVoice = false
		m.lastError = ""
		m.levels = [waveCols]float64{}

	case RecordingStopMsg:
		if m.state == tuiStateRecording {
			m.state = tuiStateProcessing
			m.stage = ""
		}
		m.audioLevel = 0
		m.noVoice = false

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case ProcessingMsg:
		m.state = tuiStateProcessing
		m.stage = msg.Stage

	case ResultMsg:
		m.state = tuiStateIdle
		m.msgCount++
		m.lastText = msg.Text
		m.lastFallback = msg.Fallback
		m.lastCopied = msg.Copied
		m.lastError = ""

	case SessionErrorMsg:
		m.state = tuiStateIdle
		m.lastError = msg.Text

	case NoVoiceWarningMsg:
		m.noVoice = true

	case VoiceClearedMsg:
		m.noVoice = false

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case UpdateAvailableMsg:
		m.updateVersion = msg.Version
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const leftWidth = waveCols + 1
	recording := m.state == tuiStateRecording

	var left strings.Builder
	left.WriteString(renderWaveform(m.levels, m.frame, recording))
	left.WriteString("\n")

	// Status line
	switch m.state {
	case tuiStateRecording:
		status := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration))
		left.WriteString(status + "\n")
		if m.noVoice {
			warn := lipgloss.NewStyle().
				Foreground(lipgloss.Color("208")).
				Render("  ⚠ no voice detected")
			left.WriteString(warn + "\n")
		}
	case tuiStateProcessing:
		stage := m.stage
		if stage == "" {
			stage = "processing"
		}
		dots := strings.Repeat(".", (m.frame/5)%4)
		status := lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Render("◌ " + stage + dots)
		left.WriteString(status + "\n")
	default:
		status := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("○ STANDBY")
		left.WriteString(status + "\n")
	}

	grayStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.modeLine != "" {
		left.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		left.WriteString(grayStyle.Render(m.deviceLine) + "\n")
	}
	if m.updateVersion != "" {
		left.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Render("⚠ update available: "+m.updateVersion) + "\n")
	}

	left.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	left.WriteString(boldStyle.Render(m.chordLine) + helpStyle.Render(" to dictate") + "\n")
	left.WriteString(helpStyle.Render("murmur "+version) + "\n")

	leftLines := strings.Split(left.String(), "\n")

	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	wrapWidth := rightWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var right strings.Builder
	switch {
	case m.lastError != "":
		title := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Render("Session failed")
		right.WriteString(title + "\n\n")
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
		for _, line := range wrapText(m.lastError, wrapWidth) {
			right.WriteString(errStyle.Render(line) + "\n")
		}
	case m.lastText != "":
		title := fmt.Sprintf("Last dictation (#%d)", m.msgCount)
		if m.lastFallback {
			title += " — raw transcript (rewrite failed)"
		}
		right.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Render(title) + "\n\n")
		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		if m.lastFallback {
			textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
		}
		lines := wrapText(m.lastText, wrapWidth)
		for i, line := range lines {
			right.WriteString(textStyle.Render(line))
			if i == len(lines)-1 && m.lastCopied {
				clipboardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
				right.WriteString(" " + clipboardStyle.Render("[✓ copied]"))
			}
			right.WriteString("\n")
		}
	default:
		right.WriteString(grayStyle.Render("No dictations yet"))
	}

	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	// Pad left panel to full height
	leftPadded := make([]string, m.height)
	for i := range leftPadded {
		if i < len(leftLines) {
			leftPadded[i] = leftLines[i]
		} else {
			leftPadded[i] = strings.Repeat(" ", leftWidth-1)
		}
	}

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth - 1).
		Height(m.height).
		Render(strings.Join(leftPadded, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// renderWaveform draws the level history as a column chart, newest on the
// right. Idle shows a breathing baseline so the pane never looks dead.
func renderWaveform(levels [waveCols]float64, frame int, recording bool) string {
	styles := &waveStylesIdle
	if recording {
		styles = &waveStylesRec
	}

	// Column heights in half-cells, 0..waveRows*2
	heights := [waveCols]int{}
	for i, l := range levels {
		// RMS of speech rarely exceeds ~0.3; scale so speech fills the pane
		h := int(math.Min(l*4.0, 1.0) * float64(waveRows*2))
		if !recording {
			h = 0
		}
		if h == 0 {
			// Breathing baseline
			phase := math.Sin(float64(frame)*0.08 + float64(i)*0.35)
			if phase > 0.6 {
				h = 1
			}
		}
		heights[i] = h
	}

	var b strings.Builder
	for row := waveRows - 1; row >= 0; row-- {
		for col := 0; col < waveCols; col++ {
			h := heights[col]
			band := h * len(styles) / (waveRows*2 + 1)
			cell := " "
			switch {
			case h >= (row+1)*2:
				cell = "█"
			case h == row*2+1:
				cell = "▄"
			}
			if cell == " " {
				b.WriteString(" ")
			} else {
				b.WriteString(styles[band].Render(cell))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
