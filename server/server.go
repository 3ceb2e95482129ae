package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/cache"
	"github.com/FALLENEZER/Spotik-sub003/config"
	"github.com/FALLENEZER/Spotik-sub003/core/auth"
	"github.com/FALLENEZER/Spotik-sub003/core/playback"
	"github.com/FALLENEZER/Spotik-sub003/core/room"
	"github.com/FALLENEZER/Spotik-sub003/db"
	"github.com/FALLENEZER/Spotik-sub003/logger"
	"github.com/FALLENEZER/Spotik-sub003/model"
	"github.com/FALLENEZER/Spotik-sub003/repository"
	"github.com/FALLENEZER/Spotik-sub003/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies, wires the routes and runs the HTTP
// server until interrupted.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutputPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.Connect(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.Participant{},
		&model.Track{},
		&model.Vote{},
	); err != nil {
		logger.Fatal("failed to migrate models", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	audioStore, err := storage.NewAudioStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	roomCache := cache.NewRoomCache()
	hub := room.NewHub(roomCache)
	go hub.Run()
	defer hub.Stop()

	roomRepo := repository.NewGormRoomRepository(db.GormDB)
	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	userRepo := repository.NewGormUserRepository(db.GormDB)

	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	manager := room.NewManager(
		roomRepo,
		trackRepo,
		userRepo,
		playback.NewClock(),
		roomCache,
		audioStore,
		room.NewHubBroadcaster(hub),
		cfg.MaxRoomNameLen,
	)

	authHandler := NewAuthHandler(userRepo, tokens)
	roomHandler := NewRoomHandler(manager)
	trackHandler := NewTrackHandler(manager, audioStore)
	playbackHandler := NewPlaybackHandler(manager)
	wsHandler := NewWSHandler(manager, hub, tokens)

	router := mux.NewRouter()
	router.Use(CORSMiddleware)
	authed := AuthMiddleware(tokens)

	// auth
	router.HandleFunc("/api/auth/register", authHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", authHandler.LoginHandler).Methods(http.MethodPost)

	// rooms and membership
	router.HandleFunc("/api/rooms", authed(roomHandler.CreateRoomHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/join", authed(roomHandler.JoinRoomHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/leave", authed(roomHandler.LeaveRoomHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{room_id}", authed(roomHandler.GetRoomHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/rooms/{room_id}", authed(roomHandler.DeleteRoomHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/rooms/{room_id}/participants", authed(roomHandler.ListParticipantsHandler)).Methods(http.MethodGet)

	// tracks and queue
	router.HandleFunc("/api/rooms/{room_id}/tracks", authed(trackHandler.UploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{room_id}/tracks/{track_id}", authed(trackHandler.RemoveTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/rooms/{room_id}/queue", authed(trackHandler.GetQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{track_id}/vote", authed(trackHandler.VoteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{track_id}/vote", authed(trackHandler.UnvoteHandler)).Methods(http.MethodDelete)

	// playback
	router.HandleFunc("/api/rooms/{room_id}/playback", authed(playbackHandler.StatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/rooms/{room_id}/playback/start", authed(playbackHandler.StartHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{room_id}/playback/pause", authed(playbackHandler.PauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{room_id}/playback/resume", authed(playbackHandler.ResumeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{room_id}/playback/skip", authed(playbackHandler.SkipHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{room_id}/playback/stop", authed(playbackHandler.StopHandler)).Methods(http.MethodPost)

	// event stream
	router.Handle("/ws/rooms/{room_id}", wsHandler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}
