package cmd

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/chat"
	"github.com/mehari-dev/cliniccall/internal/config"
	"github.com/mehari-dev/cliniccall/internal/presence"
	"github.com/mehari-dev/cliniccall/internal/room"
	"github.com/mehari-dev/cliniccall/internal/rtc"
	"github.com/mehari-dev/cliniccall/internal/session"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var consultCmd = &cobra.Command{
	Use:     "consult <room-id>",
	Aliases: []string{"call"},
	Short:   "Join a consultation room",
	Long: `Join a consultation room for a live video call.

The room id is normally an appointment id from "cliniccall appointments".
Camera and microphone access is requested before anything is announced
to the relay; if media is unavailable, nothing joins.

Examples:
  cliniccall consult 66b2f1a9
  cliniccall consult 66b2f1a9 --force-relay --turn turn.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := requireSession()
		if err != nil {
			return err
		}
		return runConsultation(cfg, sess, args[0])
	},
}

func init() {
	registerConnectionFlags(consultCmd)
	rootCmd.AddCommand(consultCmd)
}

// runConsultation drives one full consultation session: relay connect,
// media acquisition, room join, the live terminal view, and teardown.
func runConsultation(cfg *config.Config, sess *session.Session, roomID string) error {
	stop := ui.RunConnectionSpinner("Connecting to relay...")
	client, router, err := connectRelay(cfg)
	stop()
	if err != nil {
		return err
	}
	defer client.Close()

	self := sess.ParticipantID()

	// The view is created after the join succeeds; events raised before
	// that are dropped.
	var program atomic.Pointer[tea.Program]
	send := func(msg tea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	}

	var chatMu sync.Mutex
	channels := make(map[string]*chat.Channel)

	onChat := func(m chat.Message) {
		send(ui.ChatMsg{Sender: m.Sender, Role: m.Role, Text: m.Text, SentAt: m.SentAt})
	}

	factory := func(media rtc.LocalMedia) (room.PeerSession, error) {
		mgr, err := rtc.NewManager(self, media, cfg.RTCConfiguration(), client)
		if err != nil {
			return nil, err
		}

		mgr.SetConnectionHandler(func(participant string, pc *webrtc.PeerConnection) {
			// The offering side opens the chat channel so it rides the
			// initial SDP; the answering side waits for it. Same
			// tie-break as the offer itself.
			if self < participant {
				ch, err := chat.Open(pc, self, sess.Role, onChat)
				if err == nil {
					chatMu.Lock()
					channels[participant] = ch
					chatMu.Unlock()
				}
			} else {
				chat.Attach(pc, self, sess.Role, onChat, func(ch *chat.Channel) {
					chatMu.Lock()
					channels[participant] = ch
					chatMu.Unlock()
				})
			}

			pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
				switch state {
				case webrtc.PeerConnectionStateConnected:
					send(ui.ParticipantJoinedMsg{UserID: participant})
				case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
					chatMu.Lock()
					delete(channels, participant)
					chatMu.Unlock()
					send(ui.ParticipantLeftMsg{UserID: participant})
				}
			})
		})

		return mgr, nil
	}

	ctrl := room.NewController(
		room.Identity{UserID: self, Role: sess.Role},
		client, rtc.Capture, factory,
	)

	stop = ui.RunSpinner("Requesting camera and microphone...")
	err = ctrl.Join(roomID)
	stop()
	if err != nil {
		return err
	}
	go ctrl.Run(router)

	if sess.IsDoctor() {
		if err := presence.Announce(client, roomID); err != nil {
			ui.PrintWarningf("could not announce availability: %v", err)
		}
	}

	sendChat := func(text string) error {
		chatMu.Lock()
		defer chatMu.Unlock()
		if len(channels) == 0 {
			return fmt.Errorf("no one else is in the room yet")
		}
		for _, ch := range channels {
			if err := ch.Send(text); err != nil {
				return err
			}
		}
		return nil
	}

	leave := func() {
		ctrl.Leave()
		send(ui.SessionEndedMsg{})
	}

	model := ui.NewConsultModel(roomID, self, sendChat, leave)
	p := tea.NewProgram(model)
	program.Store(p)

	// Surface session state changes and abnormal endings to the view.
	go func() {
		for {
			select {
			case err := <-ctrl.Done():
				p.Send(ui.SessionEndedMsg{Err: err})
				return
			case <-time.After(500 * time.Millisecond):
				p.Send(ui.StatusMsg(ctrl.State().String()))
			}
		}
	}()

	final, err := p.Run()
	ctrl.Leave()
	if err != nil {
		return err
	}

	view, ok := final.(ui.ConsultModel)
	if !ok {
		return nil
	}
	if cause := view.Err(); cause != nil {
		return fmt.Errorf("consultation ended: %w", cause)
	}

	duration, messages := view.Stats()
	chatMu.Lock()
	participants := len(channels)
	chatMu.Unlock()
	fmt.Println()
	ui.RenderConsultSummary(ui.ConsultSummary{
		RoomID:       roomID,
		Duration:     duration,
		Participants: participants,
		Messages:     messages,
		Reason:       "left by user",
	})
	return nil
}
