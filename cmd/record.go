package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/api"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var (
	flagDiagnosis  string
	flagTreatment  string
	flagMedication string
	flagNotes      string
)

var recordCmd = &cobra.Command{
	Use:   "record <patient-id>",
	Short: "Show or update a patient's medical record",
	Long: `Show a patient's medical record. Doctors can update fields with
the --diagnosis, --treatment, --medication and --notes flags; passing
any of them switches the command into update mode.

Examples:
  cliniccall record 66b2f1a9
  cliniccall record 66b2f1a9 --diagnosis "Seasonal allergy" --medication "Cetirizine 10mg"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecord(args[0])
	},
}

func init() {
	recordCmd.Flags().StringVar(&flagDiagnosis, "diagnosis", "", "New diagnosis")
	recordCmd.Flags().StringVar(&flagTreatment, "treatment", "", "New treatment plan")
	recordCmd.Flags().StringVar(&flagMedication, "medication", "", "New medication")
	recordCmd.Flags().StringVar(&flagNotes, "notes", "", "New notes")
	registerConnectionFlags(recordCmd)
	rootCmd.AddCommand(recordCmd)
}

func runRecord(patientID string) error {
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

	updating := flagDiagnosis != "" || flagTreatment != "" || flagMedication != "" || flagNotes != ""
	if updating {
		if !sess.IsDoctor() {
			return fmt.Errorf("only doctors can update medical records")
		}
		if err := updateRecord(ctx, client, patientID); err != nil {
			return err
		}
		ui.PrintSuccess("Record updated.")
	}

	stop := ui.RunSpinner("Fetching record...")
	patient, err := client.PatientByID(ctx, patientID)
	if err != nil {
		stop()
		return err
	}
	rec, err := client.MedicalRecord(ctx, patientID)
	stop()
	if err != nil {
		return err
	}

	fmt.Println()
	ui.RenderMedicalRecord(patient, rec)
	return nil
}

// updateRecord merges the flag overrides into the stored record so a
// partial update does not blank the remaining fields.
func updateRecord(ctx context.Context, client *api.Client, patientID string) error {
	current, err := client.MedicalRecord(ctx, patientID)
	if err != nil {
		return err
	}

	rec := *current
	rec.PatientID = patientID
	if flagDiagnosis != "" {
		rec.Diagnosis = flagDiagnosis
	}
	if flagTreatment != "" {
		rec.Treatment = flagTreatment
	}
	if flagMedication != "" {
		rec.Medication = flagMedication
	}
	if flagNotes != "" {
		rec.Notes = flagNotes
	}

	return client.UpdateMedicalRecord(ctx, rec)
}
