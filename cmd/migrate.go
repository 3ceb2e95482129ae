package cmd

import (
	"fmt"
	"log"

	"github.com/FALLENEZER/Spotik-sub003/config"
	"github.com/FALLENEZER/Spotik-sub003/db"
	"github.com/FALLENEZER/Spotik-sub003/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the MySQL tables for users, rooms, participants, tracks and votes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Connecting to MySQL at %s:%s/%s\n", cfg.DBHost, cfg.DBPort, cfg.DBName)

		if err := db.Connect(cfg); err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.AutoMigrate(
			&model.User{},
			&model.Room{},
			&model.Participant{},
			&model.Track{},
			&model.Vote{},
		); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		fmt.Println("Migration complete.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
