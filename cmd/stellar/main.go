package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stellar-server/internal/logging"
)

var envDir string

var rootCmd = &cobra.Command{
	Use:   "stellar",
	Short: "Multiplayer space game server",
	Long: `Stellar runs a shared 2D universe: ships fly, fight, orbit planets
and buy upgrades over a websocket connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "directory holding the optional .env file")
	rootCmd.AddCommand(serveCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log, closeLog := logging.New(logging.Options{Level: "debug", Format: "console"})
		log.Error("command failed", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}
