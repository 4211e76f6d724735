package main

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/faith-chronicle/internal/handlers"
	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
	"github.com/jwebster45206/faith-chronicle/pkg/engine"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	streamClient *http.Client

	result  *engine.StepResult
	board   *handlers.BoardResponse
	entries []string

	logViewport  viewport.Model
	metaViewport viewport.Model
	spinner      spinner.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	status       string

	// Character selection state
	showCharacterModal bool
	characters         []handlers.CharacterSummary
	selectedCharacter  int
	loadingCharacters  bool

	// Quit confirmation state
	showQuitModal bool

	// Event stream state
	events       chan SSEEvent
	streamClosed chan error
	cancelStream context.CancelFunc
	lastEvent    string
}

type charactersLoadedMsg struct {
	characters []handlers.CharacterSummary
	err        error
}

type gameCreatedMsg struct {
	result *engine.StepResult
	board  *handlers.BoardResponse
	err    error
}

type stepMsg struct {
	action string
	result *engine.StepResult
	err    error
}

type sseEventMsg SSEEvent

type sseClosedMsg struct {
	err error
}

type gameDeletedMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // gold
			Bold(true)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	moveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("214")).
				Bold(true)
)

func NewConsoleUI(cfg *ConsoleConfig, client, streamClient *http.Client) ConsoleUI {
	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("214"))),
	)

	return ConsoleUI{
		config:             cfg,
		client:             client,
		streamClient:       streamClient,
		logViewport:        logVp,
		metaViewport:       metaVp,
		spinner:            sp,
		showCharacterModal: true,
		loadingCharacters:  cfg.CharacterID == "",
		loading:            cfg.CharacterID != "",
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.config.CharacterID != "" {
		return tea.Batch(m.startGame(m.config.CharacterID), m.spinner.Tick)
	}
	return tea.Batch(m.loadCharacters(), m.spinner.Tick)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showCharacterModal {
		return m.updateCharacterModal(msg)
	}

	var (
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
		m.layout()
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		}
		if m.loading {
			return m, nil
		}
		switch key := msg.String(); key {
		case "q":
			m.showQuitModal = true
			return m, nil
		case "r", " ":
			m.loading = true
			m.status = ""
			return m, m.sendRoll()
		case "n":
			m.loading = true
			m.status = ""
			return m, m.sendReset()
		case "c":
			if m.result != nil && m.result.State != nil {
				if err := clipboard.WriteAll(m.result.State.ID.String()); err != nil {
					m.status = "Clipboard unavailable: " + err.Error()
				} else {
					m.status = "Game ID copied to clipboard"
				}
				m.refresh()
			}
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			card := m.activeCard()
			if card == nil {
				return m, nil
			}
			option := ""
			if idx := int(key[0] - '1'); idx < len(card.Options) {
				option = card.Options[idx]
			} else if len(card.Options) > 0 || key != "1" {
				return m, nil
			}
			m.loading = true
			m.status = ""
			return m, m.sendAnswer(option)
		}

	case stepMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry(errorStyle.Render("Error: " + msg.err.Error()))
		} else {
			m.applyStep(msg.action, msg.result)
		}
		m.refresh()
		m.logViewport.GotoBottom()
		return m, nil

	case sseEventMsg:
		m.lastEvent = msg.Type
		m.applyEvent(SSEEvent(msg))
		m.refresh()
		return m, m.waitForEvent()

	case sseClosedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.status = "Event stream closed: " + msg.err.Error()
			m.refresh()
		}
		return m, nil
	}

	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) layout() {
	logWidth := int(float64(m.width)*0.68) - 4
	metaWidth := m.width - logWidth - 6
	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 4
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 3
}

func (m *ConsoleUI) activeCard() *deck.Card {
	if m.result == nil || m.result.State == nil || m.result.State.ActiveCard == nil {
		return nil
	}
	return m.result.State.ActiveCard
}

func (m *ConsoleUI) addEntry(s string) {
	m.entries = append(m.entries, s)
}

func (m *ConsoleUI) applyStep(action string, res *engine.StepResult) {
	if res.Rejected() {
		m.addEntry(errorStyle.Render("Refused: " + res.ErrorMessage))
		if res.State != nil {
			m.result = res
		}
		return
	}

	prev := m.result
	m.result = res
	gs := res.State
	width := max(m.logViewport.Width-6, 20)

	switch action {
	case "roll":
		line := fmt.Sprintf("Turn %d: rolled %d and moved to square %d", gs.Turn, gs.LastRoll, gs.Position)
		if res.Square != nil && res.Square.Label != "" {
			line += " (" + res.Square.Label + ")"
		}
		m.addEntry(moveStyle.Render(line))
	case "answer":
		if res.Card != nil && res.Card.IsTrivia() {
			verdict := "Wrong answer."
			if res.Correct {
				verdict = "Correct!"
			}
			m.addEntry(cardTitleStyle.Render(verdict))
		}
		if prev != nil && prev.State != nil && prev.State.Position != gs.Position {
			m.addEntry(moveStyle.Render(fmt.Sprintf("Moved from square %d to square %d", prev.State.Position, gs.Position)))
		}
	case "reset":
		m.entries = nil
		m.addEntry(titleStyle.Render("The journey begins anew."))
	}

	if gs.Message != "" {
		m.addEntry(messageStyle.Render(wordwrap.String(gs.Message, width)))
	}
	if gs.ActiveCard != nil && gs.Phase == state.PhaseAwaitingCardAnswer {
		m.addEntry(renderCard(gs.ActiveCard, width))
	}
	if gs.GameOver {
		m.addEntry(titleStyle.Render("GAME OVER. Press n to play again."))
	}
}

// applyEvent picks up turns played from another client on the same game.
func (m *ConsoleUI) applyEvent(ev SSEEvent) {
	if m.result == nil || m.result.State == nil || len(ev.Data) == 0 {
		return
	}
	var res engine.StepResult
	if err := json.Unmarshal(ev.Data, &res); err != nil || res.State == nil {
		return
	}
	if res.State.UpdatedAt.After(m.result.State.UpdatedAt) {
		m.result = &res
	}
}

func renderCard(card *deck.Card, width int) string {
	var b strings.Builder
	b.WriteString(cardTitleStyle.Render(fmt.Sprintf("%s: %s", card.Type, card.Title)) + "\n")
	if card.Description != "" {
		b.WriteString(wordwrap.String(card.Description, width-4) + "\n")
	}
	if card.Question != "" {
		b.WriteString("\n" + wordwrap.String(card.Question, width-4) + "\n")
	}
	for i, opt := range card.Options {
		b.WriteString(fmt.Sprintf("  %d) %s\n", i+1, opt))
	}
	if len(card.Options) == 0 {
		b.WriteString(promptStyle.Render("Press 1 to accept.") + "\n")
	}
	return cardStyle.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render("FAITH CHRONICLE") + "\n\n")
	if len(m.entries) == 0 {
		content.WriteString("Press r to roll the die.\n")
	}
	for _, e := range m.entries {
		content.WriteString(e + "\n\n")
	}
	m.logViewport.SetContent(content.String())
	if m.result != nil && m.result.State != nil {
		m.metaViewport.SetContent(m.writeMetadata())
	}
}

func (m ConsoleUI) writeMetadata() string {
	gs := m.result.State
	var content strings.Builder
	content.WriteString(titleStyle.Render("JOURNEY") + "\n\n")

	content.WriteString("Character:\n" + gs.CharacterID + "\n\n")
	if m.board != nil {
		content.WriteString("Story:\n" + m.board.StoryName + "\n\n")
	}
	content.WriteString("Epoch:\n" + gs.EpochTitle + "\n\n")

	content.WriteString(fmt.Sprintf("Square: %d / %d\n", gs.Position, board.Size))
	if m.board != nil && gs.Position >= 1 && gs.Position <= len(m.board.Squares) {
		sq := m.board.Squares[gs.Position-1]
		content.WriteString(promptStyle.Render(string(sq.Type)+" "+sq.Label) + "\n")
	}
	content.WriteString(fmt.Sprintf("Turn: %d\n", gs.Turn))
	content.WriteString(fmt.Sprintf("Phase: %s\n\n", gs.Phase))

	content.WriteString("Stats:\n")
	names := make([]string, 0, len(gs.Stats))
	for k := range gs.Stats {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		content.WriteString(fmt.Sprintf("• %s: %d\n", k, gs.Stats[k]))
	}

	content.WriteString("\nGame ID:\n" + gs.ID.String()[:8] + "...\n")
	if m.lastEvent != "" {
		content.WriteString(promptStyle.Render("Last event: "+m.lastEvent) + "\n")
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• r: Roll\n")
	content.WriteString("• 1-4: Answer\n")
	content.WriteString("• n: New journey\n")
	content.WriteString("• c: Copy game ID\n")
	content.WriteString("• q: Quit\n")
	return content.String()
}

func (m ConsoleUI) loadCharacters() tea.Cmd {
	return func() tea.Msg {
		chars, err := listCharacters(m.client, m.config.APIBaseURL)
		return charactersLoadedMsg{chars, err}
	}
}

func (m ConsoleUI) startGame(characterID string) tea.Cmd {
	return func() tea.Msg {
		res, err := createGame(m.client, m.config.APIBaseURL, characterID)
		if err != nil {
			return gameCreatedMsg{err: err}
		}
		b, err := getBoard(m.client, m.config.APIBaseURL, res.State.CharacterID)
		return gameCreatedMsg{result: res, board: b, err: err}
	}
}

func (m ConsoleUI) sendRoll() tea.Cmd {
	id := m.result.State.ID
	return func() tea.Msg {
		res, err := rollDie(m.client, m.config.APIBaseURL, id)
		return stepMsg{"roll", res, err}
	}
}

func (m ConsoleUI) sendAnswer(option string) tea.Cmd {
	id := m.result.State.ID
	return func() tea.Msg {
		res, err := answerCard(m.client, m.config.APIBaseURL, id, option)
		return stepMsg{"answer", res, err}
	}
}

func (m ConsoleUI) sendReset() tea.Cmd {
	id := m.result.State.ID
	return func() tea.Msg {
		res, err := resetGame(m.client, m.config.APIBaseURL, id)
		return stepMsg{"reset", res, err}
	}
}

func (m ConsoleUI) endGame() tea.Cmd {
	id := m.result.State.ID
	return func() tea.Msg {
		_ = deleteGame(m.client, m.config.APIBaseURL, id)
		return gameDeletedMsg{}
	}
}

// subscribe starts the event stream for a game and returns the command
// that delivers its first event.
func (m *ConsoleUI) subscribe(gameID uuid.UUID) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	m.events = make(chan SSEEvent, 16)
	events := m.events
	client, baseURL := m.streamClient, m.config.APIBaseURL

	closed := make(chan error, 1)
	go func() {
		closed <- listenToSSE(ctx, client, baseURL, gameID, events)
		close(events)
	}()

	m.streamClosed = closed
	return m.waitForEvent()
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	events, closed := m.events, m.streamClosed
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sseClosedMsg{err: <-closed}
		}
		return sseEventMsg(ev)
	}
}

func (m ConsoleUI) stopStream() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
}

func (m ConsoleUI) updateCharacterModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case charactersLoadedMsg:
		m.loadingCharacters = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.characters = msg.characters
		}

	case gameCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.result = msg.result
		m.board = msg.board
		m.showCharacterModal = false
		if m.width > 0 && m.height > 0 {
			m.layout()
			m.ready = true
		}
		m.addEntry(titleStyle.Render(fmt.Sprintf("%s sets out on %s.", m.result.State.CharacterID, m.board.StoryName)))
		m.refresh()
		cmd := m.subscribe(m.result.State.ID)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if m.loadingCharacters || m.loading || m.err != nil {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyUp:
			if m.selectedCharacter > 0 {
				m.selectedCharacter--
			}
		case tea.KeyDown:
			if m.selectedCharacter < len(m.characters)-1 {
				m.selectedCharacter++
			}
		case tea.KeyEnter:
			if len(m.characters) > 0 {
				m.loading = true
				return m, m.startGame(m.characters[m.selectedCharacter].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case gameDeletedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			m.stopStream()
			return m, tea.Quit
		}
		switch msg.String() {
		case "y", "Y":
			m.stopStream()
			return m, tea.Quit
		case "d", "D":
			m.stopStream()
			if m.result == nil || m.result.State == nil {
				return m, tea.Quit
			}
			return m, m.endGame()
		case "n", "N":
			m.showQuitModal = false
			return m, nil
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave your journey?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Y to quit, D to quit and end the game, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCharacterModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingCharacters:
		content.WriteString(modalTitleStyle.Render("Loading Characters..."))
		content.WriteString("\n\n")
		content.WriteString(m.spinner.View() + " Please wait...")
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Preparing the Journey..."))
		content.WriteString("\n\n")
		content.WriteString(m.spinner.View() + " Setting up the board...")
	default:
		content.WriteString(modalTitleStyle.Render("Choose a Character"))
		content.WriteString("\n\n")

		for i, c := range m.characters {
			line := c.Name
			if c.AbilityName != "" {
				line += " (" + c.AbilityName + ")"
			}
			if i == m.selectedCharacter {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
			} else {
				content.WriteString(modalItemStyle.Render("  " + line))
			}
			content.WriteString("\n")
		}

		if len(m.characters) > 0 {
			sel := m.characters[m.selectedCharacter]
			if sel.AbilityDescription != "" {
				content.WriteString("\n" + promptStyle.Render(wordwrap.String(sel.AbilityDescription, 54)) + "\n")
			}
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showCharacterModal {
		return m.renderCharacterModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.68) - 4
	metaWidth := m.width - logWidth - 6

	footer := promptStyle.Render("r roll • 1-4 answer • n new journey • c copy id • q quit")
	if m.loading {
		footer = m.spinner.View() + " Waiting for providence..."
	} else if m.status != "" {
		footer = promptStyle.Render(m.status)
	}

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			footer,
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 1).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}
