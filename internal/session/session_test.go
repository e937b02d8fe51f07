package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempConfigDir(t *testing.T) {
	t.Helper()
	t.Setenv("CLINICCALL_CONFIG_DIR", t.TempDir())
}

func TestSaveLoadClear(t *testing.T) {
	useTempConfigDir(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	saved := &Session{
		Token:      "tok-123",
		Role:       "doctor",
		UserID:     "user-1",
		DoctorID:   "doc-1",
		SecretCode: "A7F3",
	}
	require.NoError(t, Save(saved))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	require.NoError(t, Clear())
	_, err = Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	// Clearing again is fine.
	assert.NoError(t, Clear())
}

func TestLoadRejectsEmptyToken(t *testing.T) {
	useTempConfigDir(t)

	require.NoError(t, Save(&Session{Role: "patient", UserID: "user-2"}))
	_, err := Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestParticipantID(t *testing.T) {
	doctor := &Session{Role: "doctor", UserID: "user-1", DoctorID: "doc-1"}
	assert.True(t, doctor.IsDoctor())
	assert.Equal(t, "doc-1", doctor.ParticipantID())

	patient := &Session{Role: "patient", UserID: "user-2", PatientID: "pat-2"}
	assert.False(t, patient.IsDoctor())
	assert.Equal(t, "pat-2", patient.ParticipantID())

	bare := &Session{Role: "patient", UserID: "user-3"}
	assert.Equal(t, "user-3", bare.ParticipantID())
}
