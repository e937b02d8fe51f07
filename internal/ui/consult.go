package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Messages pushed into the consultation view from the session goroutines
// via Program.Send.
type (
	// StatusMsg updates the headline session state.
	StatusMsg string

	// ParticipantJoinedMsg announces a connected remote participant.
	ParticipantJoinedMsg struct {
		UserID string
		Role   string
	}

	// ParticipantLeftMsg announces a departed participant.
	ParticipantLeftMsg struct {
		UserID string
	}

	// ChatMsg is a received (or locally echoed) chat line.
	ChatMsg struct {
		Sender string
		Role   string
		Text   string
		SentAt time.Time
	}

	// SessionEndedMsg terminates the view; Err is nil on a clean leave.
	SessionEndedMsg struct {
		Err error
	}
)

const maxChatLines = 12

// ConsultModel is the live consultation view: session status,
// participant roster, and the chat pane with an input line.
type ConsultModel struct {
	roomID string
	self   string

	spinner spinner.Model
	input   textinput.Model

	status       string
	participants []ParticipantJoinedMsg
	chat         []ChatMsg
	sent         int

	// SendChat delivers a composed message to every open data channel.
	sendChat func(text string) error

	// leave is invoked once when the user quits the view.
	leave func()

	started time.Time
	err     error
	done    bool
}

// NewConsultModel builds the consultation view. sendChat and leave hook
// the view into the live session.
func NewConsultModel(roomID, self string, sendChat func(string) error, leave func()) ConsultModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	in := textinput.New()
	in.Placeholder = "Type a message and press enter"
	in.CharLimit = 500
	in.Focus()

	return ConsultModel{
		roomID:   roomID,
		self:     self,
		spinner:  sp,
		input:    in,
		status:   "joining",
		sendChat: sendChat,
		leave:    leave,
		started:  time.Now(),
	}
}

func (m ConsultModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

func (m ConsultModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.leave != nil {
				m.leave()
			}
			return m, nil

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			if m.sendChat != nil {
				if err := m.sendChat(text); err != nil {
					m.appendChat(ChatMsg{Sender: "system", Text: "send failed: " + err.Error(), SentAt: time.Now()})
					return m, nil
				}
			}
			m.sent++
			m.appendChat(ChatMsg{Sender: m.self, Text: text, SentAt: time.Now()})
			return m, nil
		}

	case StatusMsg:
		m.status = string(msg)
		return m, nil

	case ParticipantJoinedMsg:
		for _, p := range m.participants {
			if p.UserID == msg.UserID {
				return m, nil
			}
		}
		m.participants = append(m.participants, msg)
		return m, nil

	case ParticipantLeftMsg:
		kept := m.participants[:0]
		for _, p := range m.participants {
			if p.UserID != msg.UserID {
				kept = append(kept, p)
			}
		}
		m.participants = kept
		return m, nil

	case ChatMsg:
		m.appendChat(msg)
		return m, nil

	case SessionEndedMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ConsultModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s Consultation %s", IconVideo, m.roomID)))
	b.WriteString("\n")

	switch m.status {
	case "active":
		b.WriteString(fmt.Sprintf("%s %s\n", SuccessStyle.Render(IconLive), SuccessStyle.Render("connected")))
	default:
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), MutedStyle.Render(m.status+"...")))
	}

	b.WriteString("\n" + BoldStyle.Render("Participants") + "\n")
	if len(m.participants) == 0 {
		b.WriteString(MutedStyle.Render("  waiting for others to join") + "\n")
	}
	for _, p := range m.participants {
		icon := IconPatient
		if p.Role == "doctor" {
			icon = IconDoctor
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", icon, p.UserID))
	}

	b.WriteString("\n" + BoldStyle.Render("Chat") + "\n")
	for _, line := range m.chat {
		sender := line.Sender
		if sender == m.self {
			sender = SubtitleStyle.Render("you")
		} else {
			sender = BoldStyle.Render(sender)
		}
		b.WriteString(fmt.Sprintf("  %s %s: %s\n",
			MutedStyle.Render(line.SentAt.Format("15:04")), sender, line.Text))
	}

	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(FooterStyle.Render("enter to send, esc to leave"))
	return ContainerStyle.Render(b.String())
}

// Err returns the terminal error after the program has quit, nil on a
// clean leave.
func (m ConsultModel) Err() error {
	return m.err
}

// Stats summarizes the session for the post-call recap.
func (m ConsultModel) Stats() (duration time.Duration, messages int) {
	return time.Since(m.started), m.sent + len(m.chat)
}

func (m *ConsultModel) appendChat(line ChatMsg) {
	m.chat = append(m.chat, line)
	if len(m.chat) > maxChatLines {
		m.chat = m.chat[len(m.chat)-maxChatLines:]
	}
}
