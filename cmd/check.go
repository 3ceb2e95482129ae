package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/cache"
	"github.com/FALLENEZER/Spotik-sub003/config"
	"github.com/FALLENEZER/Spotik-sub003/storage"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check Redis and MinIO connectivity",
	Long:  `Connect to Redis and MinIO with the current configuration and report whether both respond.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		fmt.Printf("Redis: %s:%s db=%d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		if err := cache.PingRedis(ctx); err != nil {
			log.Fatalf("Redis ping failed: %v", err)
		}
		fmt.Println("Redis OK")
		if err := cache.CloseRedis(); err != nil {
			log.Printf("error closing Redis connection: %v", err)
		}

		fmt.Printf("MinIO: %s bucket=%s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		store, err := storage.NewAudioStore(cfg)
		if err != nil {
			log.Fatalf("MinIO initialization failed: %v", err)
		}
		if err := store.Ping(ctx); err != nil {
			log.Fatalf("MinIO ping failed: %v", err)
		}
		fmt.Println("MinIO OK")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
