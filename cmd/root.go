package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/ui"
	"github.com/mehari-dev/cliniccall/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "cliniccall",
	Short:   "Terminal client for clinic video consultations over WebRTC",
	Long: `CliniCall is a command-line client for a clinical management system.
It connects doctors and patients in live video consultations directly
over WebRTC, lists appointments, watches doctor availability, and works
with patient records through the clinic's REST backend.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
