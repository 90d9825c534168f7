package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/critfumble/internal/handlers"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/storage"
	"github.com/muesli/reflow/wordwrap"
)

const PlaceHolderText = "crit slashing, fumble weapon, bonus, help..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *APIClient
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	session       Session
	sources       []handlers.SourceSummary
	lines         []string
	lastNarrative string

	showQuitModal bool
	progressTick  int
}

type rollResultMsg struct {
	result *roll.Result
	err    error
}

type historyMsg struct {
	items []storage.HistoryItem
	err   error
}

type tablesLoadedMsg struct {
	sources []handlers.SourceSummary
	err     error
}

type shareMsg struct{ err error }

type progressTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	critStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	fumbleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")). // orange
			Bold(true)

	bonusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

func NewConsoleUI(api *APIClient, source string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		api:          api,
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: viewport.New(20, 20),
		session:      Session{Source: source},
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadTables())
}

func (m *ConsoleUI) resize() {
	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(logWidth - 4)
}

func (m *ConsoleUI) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.writeLogContent()
}

// writeLogContent rebuilds the log panel for the current viewport width.
func (m *ConsoleUI) writeLogContent() {
	width := m.logViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CRIT & FUMBLE") + "\n\n")
	content.WriteString("Type help for commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for _, line := range m.lines {
		content.WriteString(wordwrap.String(line, width) + "\n\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	source := m.session.Source
	if source == "" {
		source = string(roll.SourceSmackDown)
	}
	content.WriteString("Source:\n" + source + "\n\n")

	if p := m.session.Pending; p != nil && p.PendingSecondary() {
		content.WriteString("Bonus roll:\n" + bonusStyle.Render(p.SecondaryPromptText) + "\n\n")
	}

	for _, src := range m.sources {
		if string(src.ID) != source {
			continue
		}
		content.WriteString(fmt.Sprintf("Crit die: %s\nFumble die: %s\n\n", src.CritDie, src.FumbleDie))
		content.WriteString("Damage types:\n")
		for _, c := range src.CritCategories {
			content.WriteString("• " + c + "\n")
		}
		content.WriteString("\nFumble buckets:\n")
		for _, b := range src.FumbleBuckets {
			content.WriteString("• " + b + "\n")
		}
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Roll\n")
	content.WriteString("• help: Help\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeLogContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			return m.handleCommand(input)
		}

	case tablesLoadedMsg:
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Failed to load tables: " + msg.err.Error()))
		} else {
			m.sources = msg.sources
			m.writeMetadata()
		}

	case rollResultMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
			return m, nil
		}
		m.session.Pending = msg.result
		m.lastNarrative = msg.result.Narrative
		m.appendLine(formatResult(msg.result))
		m.writeMetadata()

	case historyMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
			return m, nil
		}
		m.appendLine(formatHistory(msg.items))

	case shareMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Share failed: " + msg.err.Error()))
		} else {
			m.appendLine(promptStyle.Render("Shared."))
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeLogContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.appendLine(userStyle.Render(":: " + input))

	cmd, err := ParseCommand(input)
	if err != nil {
		m.appendLine(errorStyle.Render(err.Error()))
		return m, nil
	}

	switch cmd.Name {
	case "quit":
		m.showQuitModal = true
		return m, nil

	case "help":
		m.appendLine(helpText)
		return m, nil

	case "tables":
		m.appendLine(formatSources(m.sources))
		return m, nil

	case "source":
		if len(cmd.Args) == 0 {
			m.appendLine(errorStyle.Render("usage: source <smackdown|arcana|grim>"))
			return m, nil
		}
		id, err := roll.ParseSourceID(strings.Join(cmd.Args, " "))
		if err != nil {
			m.appendLine(errorStyle.Render(strings.TrimPrefix(err.Error(), roll.ErrInvalidInput.Error()+": ")))
			return m, nil
		}
		m.session.Source = string(id)
		m.appendLine(promptStyle.Render("Source set to " + string(id) + "."))
		m.writeMetadata()
		return m, nil

	case "copy":
		if m.lastNarrative == "" {
			m.appendLine(errorStyle.Render("Nothing to copy yet."))
			return m, nil
		}
		if err := clipboard.WriteAll(m.lastNarrative); err != nil {
			m.appendLine(errorStyle.Render("Copy failed: " + err.Error()))
		} else {
			m.appendLine(promptStyle.Render("Copied to clipboard."))
		}
		return m, nil

	case "share":
		if m.lastNarrative == "" {
			m.appendLine(errorStyle.Render("Nothing to share yet."))
			return m, nil
		}
		return m.startLoading(m.share(m.lastNarrative))

	case "history":
		limit := 10
		if len(cmd.Args) > 0 {
			n, err := strconv.Atoi(cmd.Args[0])
			if err != nil || n < 1 {
				m.appendLine(errorStyle.Render("usage: history [n]"))
				return m, nil
			}
			limit = n
		}
		return m.startLoading(m.fetchHistory(limit))

	case "bonus":
		req, err := m.session.BonusRequest()
		if err != nil {
			m.appendLine(errorStyle.Render(err.Error()))
			return m, nil
		}
		return m.startLoading(m.sendRoll(req))
	}

	req, err := m.session.PrimaryRequest(cmd)
	if err != nil {
		m.appendLine(errorStyle.Render(err.Error()))
		return m, nil
	}
	return m.startLoading(m.sendRoll(req))
}

func (m ConsoleUI) startLoading(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.loading = true
	m.progressTick = 0
	m.writeLogContent()
	return m, tea.Batch(cmd, progressTick())
}

func formatResult(res *roll.Result) string {
	style := critStyle
	switch {
	case res.SecondaryResultText != "":
		style = bonusStyle
	case res.Kind == string(roll.KindFumble):
		style = fumbleStyle
	}

	var b strings.Builder
	b.WriteString(style.Render(fmt.Sprintf("%s rolled %d (%s)", res.TableName, res.RollValue, res.DieSpec)))
	b.WriteString("\n")
	switch {
	case res.SecondaryResultText != "":
		b.WriteString(res.SecondaryResultText)
	case res.Description != "":
		b.WriteString(res.Description + "\nEffect: " + res.Effect)
	default:
		b.WriteString(res.ResultText)
	}
	if res.PendingSecondary() {
		b.WriteString("\n" + bonusStyle.Render(res.SecondaryPromptText+" Type bonus to roll it."))
	}
	return b.String()
}

func formatHistory(items []storage.HistoryItem) string {
	if len(items) == 0 {
		return promptStyle.Render("No rolls yet.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent rolls:"))
	for _, item := range items {
		b.WriteString("\n" + promptStyle.Render(item.Timestamp.Local().Format("Jan 2 15:04")) + " " + item.Narrative)
	}
	return b.String()
}

func formatSources(sources []handlers.SourceSummary) string {
	if len(sources) == 0 {
		return promptStyle.Render("No tables loaded.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sources:"))
	for _, src := range sources {
		b.WriteString(fmt.Sprintf("\n• %s (%s, crit %s): %s", src.Name, src.ID, src.CritDie, strings.Join(src.CritCategories, ", ")))
	}
	return b.String()
}

func (m ConsoleUI) sendRoll(req roll.Request) tea.Cmd {
	return func() tea.Msg {
		res, err := m.api.Roll(req)
		return rollResultMsg{res, err}
	}
}

func (m ConsoleUI) fetchHistory(limit int) tea.Cmd {
	return func() tea.Msg {
		items, err := m.api.History(limit)
		return historyMsg{items, err}
	}
}

func (m ConsoleUI) loadTables() tea.Cmd {
	return func() tea.Msg {
		sources, err := m.api.Tables()
		return tablesLoadedMsg{sources, err}
	}
}

func (m ConsoleUI) share(message string) tea.Cmd {
	return func() tea.Msg {
		return shareMsg{m.api.Share(message)}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Put the dice away?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", logWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.logViewport.Width - 6
	if usable > 60 {
		usable = 60
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 20
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return loadingStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
