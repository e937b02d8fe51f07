package api

import "time"

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput creates a new account; Role is "doctor" or "patient".
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// User is the account embedded in the login response.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// LoginResult is the backend's login response. DoctorID/SecretCode are
// set for doctors, PatientID for patients.
type LoginResult struct {
	Token      string `json:"token"`
	User       User   `json:"user"`
	DoctorID   string `json:"doctorId,omitempty"`
	PatientID  string `json:"patientId,omitempty"`
	SecretCode string `json:"secretCode,omitempty"`
}

// Doctor profile.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	SecretCode     string `json:"secretCode,omitempty"`
}

// Patient profile.
type Patient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender,omitempty"`
	Age    int    `json:"age,omitempty"`
}

// Appointment as listed for either party. The appointment id doubles as
// the consultation room id.
type Appointment struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
	MedicalHistory string    `json:"medicalHistory,omitempty"`
	Doctor         *Doctor   `json:"doctor,omitempty"`
	Patient        *Patient  `json:"patient,omitempty"`
}

// MedicalRecord of one patient.
type MedicalRecord struct {
	PatientID  string    `json:"patientId"`
	Diagnosis  string    `json:"diagnosis"`
	Treatment  string    `json:"treatment"`
	Notes      string    `json:"notes"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Medication string    `json:"medication,omitempty"`
}

// Availability window a doctor offers a patient.
type Availability struct {
	DoctorID         string `json:"doctorId"`
	PatientID        string `json:"patientId"`
	AvailabilityData string `json:"availabilityData"`
}

type appointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
}

type errorResponse struct {
	Message string `json:"message"`
}
