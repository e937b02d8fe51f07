package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mehari-dev/cliniccall/internal/api"
)

// RenderAppointments prints the appointment list as a table. The
// counterpart column shows the other party: patients for doctors,
// doctors for patients.
func RenderAppointments(appointments []api.Appointment, isDoctor bool) {
	if len(appointments) == 0 {
		PrintInfo("No appointments scheduled.")
		return
	}

	counterpart := "Doctor"
	if isDoctor {
		counterpart = "Patient"
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatTitle
	t.AppendHeader(table.Row{"Room ID", "Date", counterpart, "Status"})

	for _, a := range appointments {
		name := "-"
		if isDoctor && a.Patient != nil {
			name = a.Patient.Name
		} else if !isDoctor && a.Doctor != nil {
			name = a.Doctor.Name
		}
		t.AppendRow(table.Row{
			a.ID,
			a.Date.Local().Format("Mon 02 Jan 15:04"),
			name,
			formatStatus(a.Status),
		})
	}
	t.Render()
}

// ConsultSummary captures what happened during a consultation for the
// post-call recap.
type ConsultSummary struct {
	RoomID       string
	Duration     time.Duration
	Participants int
	Messages     int
	Reason       string
}

// RenderConsultSummary prints the post-consultation recap table.
func RenderConsultSummary(s ConsultSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Room", s.RoomID},
		{"Duration", s.Duration.Round(time.Second).String()},
		{"Participants", s.Participants},
		{"Chat messages", s.Messages},
	})
	if s.Reason != "" {
		t.AppendRow(table.Row{"Ended", s.Reason})
	}
	t.Render()
}

// RenderMedicalRecord prints one patient's record as labelled rows.
func RenderMedicalRecord(p *api.Patient, rec *api.MedicalRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Patient", p.Name},
		{"Diagnosis", orDash(rec.Diagnosis)},
		{"Treatment", orDash(rec.Treatment)},
		{"Medication", orDash(rec.Medication)},
		{"Notes", orDash(rec.Notes)},
	})
	if !rec.UpdatedAt.IsZero() {
		t.AppendRow(table.Row{"Updated", rec.UpdatedAt.Local().Format("02 Jan 2006 15:04")})
	}
	t.Render()
}

func formatStatus(status string) string {
	switch status {
	case "confirmed", "accepted":
		return SuccessStyle.Render(status)
	case "pending":
		return WarningStyle.Render(status)
	case "cancelled":
		return MutedStyle.Render(status)
	default:
		return status
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// TruncateString shortens a string to max runes with an ellipsis.
func TruncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return fmt.Sprintf("%s...", string(runes[:max-3]))
}
