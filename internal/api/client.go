// Package api is the typed client for the clinical REST backend. The
// backend itself is an external collaborator; this package only consumes
// its endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (HTTP %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d", e.Status)
}

// Client talks to the clinical backend. A zero token means
// unauthenticated; login and register work without one.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the given base URL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	return c.do(ctx, http.MethodPost, "/api/user/register", in, nil)
}

// Login authenticates and returns the token and identity fields the
// consultation core needs for join payloads.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/user/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DoctorBySecretCode fetches a doctor profile by their secret code.
func (c *Client) DoctorBySecretCode(ctx context.Context, secretCode string) (*Doctor, error) {
	var out Doctor
	if err := c.do(ctx, http.MethodGet, "/api/doctor/secret/"+secretCode, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DoctorAppointments lists the logged-in doctor's appointments.
func (c *Client) DoctorAppointments(ctx context.Context) ([]Appointment, error) {
	var out appointmentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/appointments/doctor", nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

// PatientAppointments lists the logged-in patient's appointments.
func (c *Client) PatientAppointments(ctx context.Context) ([]Appointment, error) {
	var out appointmentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/appointments/patient", nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

// SetDoctorAvailability publishes an availability window for a patient.
func (c *Client) SetDoctorAvailability(ctx context.Context, in Availability) error {
	return c.do(ctx, http.MethodPost, "/api/appointments/setDoctorAvailability", in, nil)
}

// PatientByID fetches one patient profile.
func (c *Client) PatientByID(ctx context.Context, id string) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodGet, "/api/patient/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatientByQR resolves a scanned QR code to a patient profile.
func (c *Client) PatientByQR(ctx context.Context, code string) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodGet, "/api/patient/qr/"+code, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MedicalRecord fetches a patient's medical record.
func (c *Client) MedicalRecord(ctx context.Context, patientID string) (*MedicalRecord, error) {
	var out MedicalRecord
	if err := c.do(ctx, http.MethodGet, "/api/patient/"+patientID+"/record", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMedicalRecord replaces a patient's medical record.
func (c *Client) UpdateMedicalRecord(ctx context.Context, rec MedicalRecord) error {
	return c.do(ctx, http.MethodPut, "/api/patient/"+rec.PatientID+"/record", rec, nil)
}

// UploadProfilePhoto uploads a validated profile image as multipart form
// data under the "image" field.
func (c *Client) UploadProfilePhoto(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/user/profile-image", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &Error{Status: resp.StatusCode}
	var msg errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil {
		apiErr.Message = msg.Message
	}
	return apiErr
}
