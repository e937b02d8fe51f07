package config

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CLINICCALL_API", "CLINICCALL_RELAY", "STUN_SERVER", "TURN_SERVER", "TURN_USERNAME", "TURN_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, DefaultRelay, cfg.RelayURL)
	assert.Equal(t, DefaultSTUN, cfg.STUNServer)
	assert.Nil(t, cfg.GetTURNServers())
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLINICCALL_RELAY", "ws://env.example/ws")

	cfg, err := Load(Options{RelayURL: "ws://flag.example/ws"})
	require.NoError(t, err)
	assert.Equal(t, "ws://flag.example/ws", cfg.RelayURL)

	cfg, err = Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "ws://env.example/ws", cfg.RelayURL)
}

func TestForceRelayRequiresTURN(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{ForceRelay: true})
	assert.Error(t, err)

	cfg, err := Load(Options{ForceRelay: true, TURNServer: "turn:relay.example", TURNUser: "u", TURNPass: "p"})
	require.NoError(t, err)

	rtcCfg := cfg.RTCConfiguration()
	assert.Equal(t, webrtc.ICETransportPolicyRelay, rtcCfg.ICETransportPolicy)
	require.Len(t, rtcCfg.ICEServers, 2)
	assert.Equal(t, "u", rtcCfg.ICEServers[1].Username)
}

func TestRTCConfigurationDefaultPolicy(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	rtcCfg := cfg.RTCConfiguration()
	assert.Equal(t, webrtc.ICETransportPolicyAll, rtcCfg.ICETransportPolicy)
	require.Len(t, rtcCfg.ICEServers, 1)
	assert.Equal(t, []string{DefaultSTUN}, rtcCfg.ICEServers[0].URLs)
}
