package config

import (
	"fmt"
	"os"

	"github.com/pion/webrtc/v4"
)

// Default configuration values (production)
const (
	DefaultAPIBase  = "https://api.cliniccall.et"
	DefaultRelay    = "wss://rtc.cliniccall.et/ws"
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultTURN     = "" // Optional, empty by default
	DefaultTURNUser = ""
	DefaultTURNPass = ""
)

// Config holds application configuration
type Config struct {
	// APIBase is the base URL of the clinical REST backend
	APIBase string

	// RelayURL is the websocket endpoint of the signaling relay
	RelayURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to relayed candidates
	ForceRelay bool
}

// Options for loading config with CLI flag overrides
type Options struct {
	APIBase    string
	RelayURL   string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		APIBase:    firstOf(opts.APIBase, os.Getenv("CLINICCALL_API"), DefaultAPIBase),
		RelayURL:   firstOf(opts.RelayURL, os.Getenv("CLINICCALL_RELAY"), DefaultRelay),
		STUNServer: firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstOf(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN),
		TURNUser:   firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME"), DefaultTURNUser),
		TURNPass:   firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD"), DefaultTURNPass),
		ForceRelay: opts.ForceRelay,
	}

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, fmt.Errorf("cannot force relay mode without TURN server configured")
	}

	return cfg, nil
}

// firstOf returns the first non-empty value
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

// RTCConfiguration assembles the pion configuration from the ICE settings.
func (c *Config) RTCConfiguration() webrtc.Configuration {
	iceServers := []webrtc.ICEServer{{URLs: c.GetSTUNServers()}}

	if turn := c.GetTURNServers(); turn != nil {
		username, password := c.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if c.ForceRelay {
		policy = webrtc.ICETransportPolicyRelay
	}

	return webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	}
}
