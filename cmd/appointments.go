package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/api"
	"github.com/mehari-dev/cliniccall/internal/config"
	"github.com/mehari-dev/cliniccall/internal/presence"
	"github.com/mehari-dev/cliniccall/internal/session"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var flagWatch bool

var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"appts"},
	Short:   "List your appointments",
	Long: `List the appointments scheduled for the logged-in account.

With --watch, patients stay subscribed to their appointment rooms and
get told the moment a doctor goes live in one of them.

Examples:
  cliniccall appointments
  cliniccall appointments --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAppointments()
	},
}

func init() {
	appointmentsCmd.Flags().BoolVar(&flagWatch, "watch", false, "Stay connected and report doctors going live")
	registerConnectionFlags(appointmentsCmd)
	rootCmd.AddCommand(appointmentsCmd)
}

func runAppointments() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := requireSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop := ui.RunSpinner("Fetching appointments...")
	appointments, err := fetchAppointments(ctx, cfg, sess)
	stop()
	if err != nil {
		return err
	}

	ui.RenderAppointments(appointments, sess.IsDoctor())

	if !flagWatch {
		return nil
	}
	return watchAppointments(cfg, sess, appointments)
}

func fetchAppointments(ctx context.Context, cfg *config.Config, sess *session.Session) ([]api.Appointment, error) {
	client := newAPIClient(cfg, sess)
	if sess.IsDoctor() {
		return client.DoctorAppointments(ctx)
	}
	return client.PatientAppointments(ctx)
}

// watchAppointments subscribes to every appointment room and prints
// doctor-is-live announcements as they arrive.
func watchAppointments(cfg *config.Config, sess *session.Session, appointments []api.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	stop := ui.RunConnectionSpinner("Connecting to relay...")
	client, router, err := connectRelay(cfg)
	stop()
	if err != nil {
		return err
	}
	defer client.Close()

	roomIDs := make([]string, 0, len(appointments))
	byRoom := make(map[string]api.Appointment, len(appointments))
	for _, a := range appointments {
		roomIDs = append(roomIDs, a.ID)
		byRoom[a.ID] = a
	}

	watcher := presence.NewWatcher()
	if err := watcher.Subscribe(client, sess.ParticipantID(), sess.Role, roomIDs); err != nil {
		return fmt.Errorf("subscribe to appointment rooms: %w", err)
	}

	ui.PrintInfof("Watching %d appointment(s) for a live doctor. Ctrl+C to stop.", len(roomIDs))

	for {
		select {
		case p := <-router.DoctorLive:
			if watcher.IsLive(p.RoomID) {
				continue // repeat announcement
			}
			watcher.HandleLive(p)
			name := ""
			if a, ok := byRoom[p.RoomID]; ok && a.Doctor != nil {
				name = " (" + a.Doctor.Name + ")"
			}
			fmt.Printf("%s %s Doctor is live%s. Join with: cliniccall consult %s\n",
				ui.LiveStyle.Render(ui.IconLive), time.Now().Format("15:04"), name, p.RoomID)

		case <-router.Disconnected:
			return fmt.Errorf("relay connection lost")
		}
	}
}
