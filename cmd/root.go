package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/FALLENEZER/Spotik-sub003/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spotik",
	Short: "Spotik is a shared listening room service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting Spotik server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
