package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/presence"
	"github.com/mehari-dev/cliniccall/internal/signaling"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var flagRequestTimeout time.Duration

var requestCmd = &cobra.Command{
	Use:   "request <doctor-id>",
	Short: "Ask a doctor for an ad-hoc consultation",
	Long: `Send a consultation request to a doctor outside any appointment.

The command waits for the doctor to accept; when they do, it joins the
room the doctor opened.

Example:
  cliniccall request 64fa11c2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(args[0])
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Wait for consultation requests (doctors)",
	Long: `Stay connected and print incoming consultation requests from
patients. Accepting a request opens a fresh room and joins it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListen()
	},
}

func init() {
	requestCmd.Flags().DurationVar(&flagRequestTimeout, "timeout", 5*time.Minute, "How long to wait for the doctor to accept")
	registerConnectionFlags(requestCmd)
	registerConnectionFlags(listenCmd)
	rootCmd.AddCommand(requestCmd, listenCmd)
}

func runRequest(doctorID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := requireSession()
	if err != nil {
		return err
	}
	if sess.IsDoctor() {
		return fmt.Errorf("requests are sent by patients; doctors use: cliniccall listen")
	}

	stop := ui.RunConnectionSpinner("Connecting to relay...")
	client, router, err := connectRelay(cfg)
	stop()
	if err != nil {
		return err
	}

	// Announce our presence so the accept can be routed back. A throwaway
	// room keyed by our own id keeps this out of any real consultation.
	self := sess.ParticipantID()
	err = client.Emit(signaling.EventJoinRoom, signaling.JoinRoomPayload{
		RoomID: "inbox:" + self,
		UserID: self,
		Role:   sess.Role,
	})
	if err != nil {
		client.Close()
		return err
	}

	notifier := presence.NewNotifier(client)
	if err := notifier.Request(doctorID, self); err != nil {
		client.Close()
		return err
	}

	waiting := ui.NewWaitingSpinner("Waiting for the doctor to accept...")
	waiting.Start()

	select {
	case p := <-router.Accepted:
		waiting.Success("Request accepted.")
		client.Close()
		return runConsultation(cfg, sess, p.RoomID)

	case <-router.Disconnected:
		waiting.Stop()
		client.Close()
		return fmt.Errorf("relay connection lost")

	case <-time.After(flagRequestTimeout):
		waiting.Error("No answer from the doctor.")
		client.Close()
		return fmt.Errorf("request timed out after %s", flagRequestTimeout)
	}
}

func runListen() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := requireSession()
	if err != nil {
		return err
	}
	if !sess.IsDoctor() {
		return fmt.Errorf("only doctors can listen for requests")
	}

	stop := ui.RunConnectionSpinner("Connecting to relay...")
	client, router, err := connectRelay(cfg)
	stop()
	if err != nil {
		return err
	}

	self := sess.ParticipantID()
	err = client.Emit(signaling.EventJoinRoom, signaling.JoinRoomPayload{
		RoomID: "inbox:" + self,
		UserID: self,
		Role:   sess.Role,
	})
	if err != nil {
		client.Close()
		return err
	}

	ui.PrintInfof("%s Listening for consultation requests. Ctrl+C to stop.", ui.IconBell)

	notifier := presence.NewNotifier(client)
	reader := bufio.NewReader(os.Stdin)

	for {
		select {
		case p := <-router.Notification:
			fmt.Printf("\n%s %s Patient %s requests a consultation.\n",
				ui.IconBell, time.Now().Format("15:04"), ui.BoldStyle.Render(p.PatientID))
			if !promptYesNo(reader, "Accept? [y/N] ") {
				ui.PrintInfo("Request ignored.")
				continue
			}

			roomID, err := notifier.Accept(self, p.PatientID)
			if err != nil {
				ui.PrintErrorf("accept request: %v", err)
				continue
			}
			ui.PrintSuccessf("Opened room %s, joining...", roomID)
			client.Close()
			return runConsultation(cfg, sess, roomID)

		case <-router.Disconnected:
			client.Close()
			return fmt.Errorf("relay connection lost")
		}
	}
}

func promptYesNo(reader *bufio.Reader, prompt string) bool {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
