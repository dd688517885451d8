// Package main is the entry point for the LiveRadio station server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/liveradio/internal/infra/store"
	"github.com/edumarques81/liveradio/internal/station"
	"github.com/edumarques81/liveradio/internal/transport/httpapi"
	"github.com/edumarques81/liveradio/internal/version"
)

// authKeyEnv supplies the admin key when -auth-key is not given.
const authKeyEnv = "LIVERADIO_AUTH_KEY"

func main() {
	// Command line flags
	port := flag.String("port", "5000", "HTTP server port")
	dataDir := flag.String("data", "data", "Data directory")
	songsDir := flag.String("songs", "", "Song library directory (default <data>/audios)")
	bgDir := flag.String("backgrounds", "", "Background image directory (default <data>/background)")
	dbPath := flag.String("db", "", "Station database path (default <data>/station.db)")
	authKey := flag.String("auth-key", "", "Admin key expected in the auth header (env "+authKeyEnv+")")
	artSize := flag.Int("artwork-size", station.DefaultArtworkSize, "Maximum album art side in px")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *songsDir == "" {
		*songsDir = filepath.Join(*dataDir, "audios")
	}
	if *bgDir == "" {
		*bgDir = filepath.Join(*dataDir, "background")
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(*dataDir, "station.db")
	}
	if *authKey == "" {
		*authKey = os.Getenv(authKeyEnv)
	}

	versionInfo := version.For("station")

	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Live Radio Station")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", *port).
		Str("songs", *songsDir).
		Str("backgrounds", *bgDir).
		Str("db", *dbPath).
		Bool("admin", *authKey != "").
		Msg("Configuration")

	if *authKey == "" {
		log.Warn().Msg("No auth key configured, admin routes disabled")
	}

	db := store.NewDB(*dbPath)
	if err := db.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open station database")
	}
	defer db.Close()

	lib, err := station.NewLibrary(*songsDir, station.NewArtwork(*artSize))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open song library")
	}

	backgrounds, err := station.NewBackgrounds(*bgDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare backgrounds")
	}

	st := station.New(lib, backgrounds, db, station.Options{})
	st.Start()
	defer st.Stop()

	router := httpapi.NewRouter(db, lib, st, httpapi.Config{
		AuthKey:       *authKey,
		BackgroundDir: backgrounds.Dir(),
	})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+*port).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Station stopped")
}
