package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "doc@clinic.example", creds.Email)

		json.NewEncoder(w).Encode(LoginResult{
			Token:      "tok-1",
			User:       User{ID: "user-1", Name: "Dr. Abebe", Role: "doctor"},
			DoctorID:   "doc-1",
			SecretCode: "A7F3",
		})
	}))
	defer server.Close()

	client := New(server.URL, "")
	result, err := client.Login(context.Background(), Credentials{
		Email:    "doc@clinic.example",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, "doc-1", result.DoctorID)
	assert.Equal(t, "doctor", result.User.Role)
}

func TestBearerTokenSent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(appointmentsResponse{})
	}))
	defer server.Close()

	client := New(server.URL, "tok-1")
	_, err := client.DoctorAppointments(context.Background())
	require.NoError(t, err)
}

func TestAppointmentsDecoded(t *testing.T) {
	date := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments/patient", r.URL.Path)
		json.NewEncoder(w).Encode(appointmentsResponse{Appointments: []Appointment{{
			ID:     "appt-1",
			Date:   date,
			Status: "confirmed",
			Doctor: &Doctor{ID: "doc-1", Name: "Dr. Abebe"},
		}}})
	}))
	defer server.Close()

	client := New(server.URL, "tok-1")
	appointments, err := client.PatientAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "appt-1", appointments[0].ID)
	assert.True(t, date.Equal(appointments[0].Date))
	require.NotNil(t, appointments[0].Doctor)
	assert.Equal(t, "Dr. Abebe", appointments[0].Doctor.Name)
}

func TestBackendErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(errorResponse{Message: "invalid credentials"})
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.Login(context.Background(), Credentials{Email: "x", Password: "y"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "invalid credentials")
}

func TestUploadProfilePhotoMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/profile-image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "me.png", header.Filename)
	}))
	defer server.Close()

	client := New(server.URL, "tok-1")
	require.NoError(t, client.UploadProfilePhoto(context.Background(), path))
}
