// Package session persists the authenticated login between command
// invocations. It is written at login, removed at logout, and read-only
// input everywhere else; the consultation core only consumes the
// identity fields to build join payloads.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotLoggedIn means no stored session exists.
var ErrNotLoggedIn = errors.New("not logged in")

// Session mirrors what the backend hands out at login.
type Session struct {
	Token      string `json:"token"`
	Role       string `json:"role"`
	UserID     string `json:"userId"`
	DoctorID   string `json:"doctorId,omitempty"`
	PatientID  string `json:"patientId,omitempty"`
	SecretCode string `json:"secretCode,omitempty"`
}

// IsDoctor reports whether the logged-in user is a doctor.
func (s *Session) IsDoctor() bool {
	return s.Role == "doctor"
}

// ParticipantID is the identifier used in room and notification
// payloads: the role-specific id when present, the account id otherwise.
func (s *Session) ParticipantID() string {
	if s.IsDoctor() && s.DoctorID != "" {
		return s.DoctorID
	}
	if !s.IsDoctor() && s.PatientID != "" {
		return s.PatientID
	}
	return s.UserID
}

// Save writes the session to the user config dir.
func Save(s *Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load reads the stored session, or ErrNotLoggedIn when absent.
func Load() (*Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Token == "" {
		return nil, ErrNotLoggedIn
	}
	return &s, nil
}

// Clear removes the stored session. Clearing an absent session is fine.
func Clear() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func sessionPath() (string, error) {
	if override := os.Getenv("CLINICCALL_CONFIG_DIR"); override != "" {
		return filepath.Join(override, "session.json"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "cliniccall", "session.json"), nil
}
