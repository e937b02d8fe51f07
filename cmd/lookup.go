package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/ui"
)

var flagByQR bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <code>",
	Short: "Look up a doctor by secret code, or a patient by QR code",
	Long: `Resolve a code to a profile.

By default the code is treated as a doctor's secret code, as shared for
ad-hoc consultation requests. With --qr it is treated as a patient QR
code, as scanned at the clinic desk.

Examples:
  cliniccall lookup A7F3-22
  cliniccall lookup --qr 9c41e0b7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(args[0])
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&flagByQR, "qr", false, "Treat the code as a patient QR code")
	registerConnectionFlags(lookupCmd)
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(code string) error {
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

	client := newAPIClient(cfg, sess)

	if flagByQR {
		patient, err := client.PatientByQR(ctx, code)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", ui.IconPatient, ui.BoldStyle.Render(patient.Name))
		fmt.Printf("   id: %s  email: %s\n", patient.ID, patient.Email)
		ui.PrintInfof("Record: cliniccall record %s", patient.ID)
		return nil
	}

	doctor, err := client.DoctorBySecretCode(ctx, code)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", ui.IconDoctor, ui.BoldStyle.Render(doctor.Name))
	if doctor.Specialization != "" {
		fmt.Printf("   %s\n", ui.SubtitleStyle.Render(doctor.Specialization))
	}
	ui.PrintInfof("Request a consultation: cliniccall request %s", doctor.ID)
	return nil
}
