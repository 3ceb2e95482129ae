package cmd

import (
	"github.com/FALLENEZER/Spotik-sub003/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Spotik HTTP server",
	Long:  `Run the HTTP server that serves the room, queue and playback APIs plus the WebSocket event stream.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
