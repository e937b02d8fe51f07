package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/relay"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var flagListenAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a local signaling relay",
	Long: `Run the development signaling relay on this machine. Point
clients at it with --relay ws://localhost:8090/ws or CLINICCALL_RELAY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.PrintInfof("%s Relay listening on %s (websocket at /ws)", ui.IconConnect, flagListenAddr)
		return relay.NewServer().ListenAndServe(flagListenAddr)
	},
}

func init() {
	relayCmd.Flags().StringVar(&flagListenAddr, "addr", ":8090", "Listen address")
	rootCmd.AddCommand(relayCmd)
}
