// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI showing live mount position",
	Long: `Poll the mount and display its position, slew status and tracking mode.

Keys:
  g      enter a goto target (RA DEC in degrees)
  c      cancel the goto in progress
  p      toggle standard/precise coordinates
  q      quit

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", time.Second, "Poll interval")
}

// mount is the part of the codec the monitor drives
type mount interface {
	EqCoords(p nexstar.Precision) (float64, float64, error)
	AzCoords(p nexstar.Precision) (float64, float64, error)
	IsSlewing() (bool, error)
	TrackingMode() (nexstar.TrackingMode, error)
	GotoEqCoords(ra, dec float64, p nexstar.Precision) error
	CancelGoto() error
}

// lockedMount serializes access from concurrent tea.Cmds.
// The link is half-duplex, so only one exchange may be in flight.
type lockedMount struct {
	mu sync.Mutex
	m  mount
}

func (l *lockedMount) do(fn func(m mount) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.m)
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Mount status snapshot
type mountStatus struct {
	timestamp time.Time
	ra, dec   float64
	az, alt   float64
	slewing   bool
	tracking  nexstar.TrackingMode
}

// Messages
type monitorTickMsg time.Time
type statusMsg struct {
	status mountStatus
	rtt    time.Duration
	err    error
}
type actionMsg struct {
	description string
	err         error
}

type monitorKeyMap struct {
	Goto    key.Binding
	Cancel  key.Binding
	Precise key.Binding
	Quit    key.Binding
}

func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Goto, k.Cancel, k.Precise, k.Quit}
}

func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var monitorKeys = monitorKeyMap{
	Goto:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goto")),
	Cancel:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel goto")),
	Precise: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "precision")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// TUI model
type monitorModel struct {
	mount         *lockedMount
	connInfo      string
	interval      time.Duration
	precision     nexstar.Precision
	status        *mountStatus
	stats         *nexstar.Statistics
	eventLog      []eventLogEntry
	maxLogEntries int
	gotoInput     textinput.Model
	editing       bool
	help          help.Model
	width         int
	height        int
	quitting      bool
}

func initialMonitorModel(m mount, connInfo string, interval time.Duration, p nexstar.Precision) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "RA DEC (degrees)"
	ti.CharLimit = 32
	ti.Width = 24

	return monitorModel{
		mount:         &lockedMount{m: m},
		connInfo:      connInfo,
		interval:      interval,
		precision:     p,
		stats:         nexstar.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 50,
		gotoInput:     ti,
		help:          help.New(),
		width:         80,
		height:        24,
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	m, err := OpenMount()
	if err != nil {
		return err
	}
	defer m.Close()

	model := initialMonitorModel(m.Codec, m.info, monitorInterval, precision())
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func monitorTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

// pollCmd reads one status snapshot
func (m monitorModel) pollCmd() tea.Cmd {
	lm, p := m.mount, m.precision
	return func() tea.Msg {
		var st mountStatus
		start := time.Now()
		err := lm.do(func(mt mount) error {
			var err error
			if st.ra, st.dec, err = mt.EqCoords(p); err != nil {
				return fmt.Errorf("eq coords: %w", err)
			}
			if st.az, st.alt, err = mt.AzCoords(p); err != nil {
				return fmt.Errorf("az coords: %w", err)
			}
			if st.slewing, err = mt.IsSlewing(); err != nil {
				return fmt.Errorf("slew status: %w", err)
			}
			if st.tracking, err = mt.TrackingMode(); err != nil {
				return fmt.Errorf("tracking mode: %w", err)
			}
			return nil
		})
		st.timestamp = time.Now()
		return statusMsg{status: st, rtt: time.Since(start), err: err}
	}
}

func (m monitorModel) gotoCmd(ra, dec float64) tea.Cmd {
	lm, p := m.mount, m.precision
	return func() tea.Msg {
		err := lm.do(func(mt mount) error { return mt.GotoEqCoords(ra, dec, p) })
		return actionMsg{description: fmt.Sprintf("Goto %s", formatEq(ra, dec)), err: err}
	}
}

func (m monitorModel) cancelCmd() tea.Cmd {
	lm := m.mount
	return func() tea.Msg {
		err := lm.do(func(mt mount) error { return mt.CancelGoto() })
		return actionMsg{description: "Cancel goto", err: err}
	}
}

// parseGotoTarget parses "RA DEC" or "RA,DEC" in degrees
func parseGotoTarget(s string) (float64, float64, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected RA and DEC, got %q", s)
	}
	return parseDegreePair(fields)
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return m.pollCmd()
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		return m, m.pollCmd()

	case statusMsg:
		m.stats.Update(msg.rtt, msg.err)
		if msg.err != nil {
			m.addLogEntry(msg.err.Error(), true)
		} else {
			if m.status != nil && m.status.slewing && !msg.status.slewing {
				m.addLogEntry("Goto complete", false)
			}
			st := msg.status
			m.status = &st
		}
		// Chain the next poll only after this one finished
		return m, monitorTickCmd(m.interval)

	case actionMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s failed: %v", msg.description, msg.err), true)
		} else {
			m.addLogEntry(msg.description, false)
		}
	}

	return m, nil
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.Type {
		case tea.KeyEsc:
			m.editing = false
			m.gotoInput.Blur()
			m.gotoInput.SetValue("")
			return m, nil
		case tea.KeyEnter:
			ra, dec, err := parseGotoTarget(m.gotoInput.Value())
			if err != nil {
				m.addLogEntry(err.Error(), true)
				return m, nil
			}
			m.editing = false
			m.gotoInput.Blur()
			m.gotoInput.SetValue("")
			return m, m.gotoCmd(ra, dec)
		}

		var cmd tea.Cmd
		m.gotoInput, cmd = m.gotoInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, monitorKeys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, monitorKeys.Goto):
		m.editing = true
		cmd := m.gotoInput.Focus()
		return m, cmd
	case key.Matches(msg, monitorKeys.Cancel):
		return m, m.cancelCmd()
	case key.Matches(msg, monitorKeys.Precise):
		if m.precision == nexstar.Precise {
			m.precision = nexstar.Standard
		} else {
			m.precision = nexstar.Precise
		}
		m.addLogEntry(fmt.Sprintf("Switched to %s coordinates", m.precision), false)
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	s.WriteString(titleStyle.Render("NEXSTAR MONITOR"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s", m.connInfo, m.precision)))
	s.WriteString("\n\n")

	// Position
	var pos strings.Builder
	if m.status == nil {
		pos.WriteString(warningStyle.Render("Waiting for mount..."))
	} else {
		st := m.status
		row := func(label, value string) {
			pos.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label)), valueStyle.Render(value)))
		}
		row("RA:", fmt.Sprintf("%9.4f°  %s", st.ra, formatHours(st.ra)))
		row("Dec:", fmt.Sprintf("%+9.4f°", nexstar.SignedDegrees(st.dec)))
		row("Az:", fmt.Sprintf("%9.4f°", st.az))
		row("Alt:", fmt.Sprintf("%+9.4f°", nexstar.SignedDegrees(st.alt)))
		row("Tracking:", st.tracking.String())
		if st.slewing {
			pos.WriteString(warningStyle.Render("SLEWING"))
		} else {
			pos.WriteString(valueStyle.Render("IDLE"))
		}
		pos.WriteString(headerStyle.Render(fmt.Sprintf("  updated %s", st.timestamp.Format("15:04:05"))))
	}
	s.WriteString(boxStyle.Render(pos.String()))
	s.WriteString("\n")

	// Link statistics
	s.WriteString(fmt.Sprintf(" %s %s  %s %s  %s %s\n",
		labelStyle.Render("Polls:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalExchanges)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.Errors())),
		labelStyle.Render("Avg RTT:"), valueStyle.Render(m.stats.AvgRTT().Round(time.Millisecond).String())))

	if m.editing {
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Goto: "))
		s.WriteString(m.gotoInput.View())
		s.WriteString(headerStyle.Render("  (enter to slew, esc to abort)"))
		s.WriteString("\n")
	}

	// Event log, newest last, fitted to the terminal
	s.WriteString("\n")
	maxLines := m.height - 16
	if maxLines < 3 {
		maxLines = 3
	}
	start := 0
	if len(m.eventLog) > maxLines {
		start = len(m.eventLog) - maxLines
	}
	var logText strings.Builder
	for i, e := range m.eventLog[start:] {
		if i > 0 {
			logText.WriteString("\n")
		}
		line := fmt.Sprintf("[%s] %s", e.timestamp.Format("15:04:05"), e.message)
		if e.isError {
			line = errorStyle.Render(line)
		}
		logText.WriteString(line)
	}
	if len(m.eventLog) == 0 {
		logText.WriteString(headerStyle.Render("No events"))
	}
	s.WriteString(boxStyle.Render(logText.String()))
	s.WriteString("\n")

	s.WriteString(m.help.View(monitorKeys))
	s.WriteString("\n")

	return s.String()
}
