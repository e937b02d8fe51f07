package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/api"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var availabilityCmd = &cobra.Command{
	Use:   "availability <patient-id> <window>",
	Short: "Publish an availability window for a patient (doctors)",
	Long: `Offer a patient a time window for booking an appointment.

Example:
  cliniccall availability 66b2f1a9 "2026-09-02 14:00-16:00"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAvailability(args[0], args[1])
	},
}

func init() {
	registerConnectionFlags(availabilityCmd)
	rootCmd.AddCommand(availabilityCmd)
}

func runAvailability(patientID, window string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := requireSession()
	if err != nil {
		return err
	}
	if !sess.IsDoctor() {
		return fmt.Errorf("only doctors can publish availability")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = newAPIClient(cfg, sess).SetDoctorAvailability(ctx, api.Availability{
		DoctorID:         sess.ParticipantID(),
		PatientID:        patientID,
		AvailabilityData: window,
	})
	if err != nil {
		return err
	}

	ui.PrintSuccessf("Availability shared with patient %s.", patientID)
	return nil
}
