package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/api"
	"github.com/mehari-dev/cliniccall/internal/config"
	"github.com/mehari-dev/cliniccall/internal/session"
	"github.com/mehari-dev/cliniccall/internal/signaling"
)

var (
	flagAPI      string
	flagRelay    string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagForce    bool
)

// registerConnectionFlags adds the backend/relay override flags shared by
// every command that talks to the network.
func registerConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagAPI, "api", "", "Base URL of the clinical REST backend")
	cmd.Flags().StringVar(&flagRelay, "relay", "", "WebSocket URL of the signaling relay")
	cmd.Flags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	cmd.Flags().StringVar(&flagTURN, "turn", "", "TURN server hostname")
	cmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	cmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	cmd.Flags().BoolVar(&flagForce, "force-relay", false, "Restrict ICE to relayed candidates")
}

// loadConfig resolves config from flags, environment, and defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		APIBase:    flagAPI,
		RelayURL:   flagRelay,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagForce,
	})
}

// requireSession loads the stored login or fails with ErrNotLoggedIn.
func requireSession() (*session.Session, error) {
	return session.Load()
}

// newAPIClient builds the backend client for the stored session.
func newAPIClient(cfg *config.Config, sess *session.Session) *api.Client {
	token := ""
	if sess != nil {
		token = sess.Token
	}
	return api.New(cfg.APIBase, token)
}

// connectRelay dials the signaling relay and starts the event router.
// The caller owns both and must Close the client when done.
func connectRelay(cfg *config.Config) (*signaling.Client, *signaling.Router, error) {
	client := signaling.NewClient(cfg.RelayURL)
	if err := client.Connect(); err != nil {
		return nil, nil, err
	}

	router := signaling.NewRouter(client)
	go router.Run()

	return client, router, nil
}
