// Package main is the entry point for the LiveRadio player client.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/liveradio/internal/audio"
	"github.com/edumarques81/liveradio/internal/domain/effects"
	"github.com/edumarques81/liveradio/internal/domain/radio"
	"github.com/edumarques81/liveradio/internal/domain/view"
	"github.com/edumarques81/liveradio/internal/infra/mpd"
	"github.com/edumarques81/liveradio/internal/infra/stationapi"
	"github.com/edumarques81/liveradio/internal/transport/socketio"
	"github.com/edumarques81/liveradio/internal/version"
)

func main() {
	// Command line flags
	port := flag.String("port", "3001", "HTTP server port")
	stationURL := flag.String("station", "http://localhost:5000", "Station base URL")
	backend := flag.String("media", audio.BackendSpeaker, "Media backend: speaker, mpd or clock")
	mpdHost := flag.String("mpd-host", "localhost", "MPD host")
	mpdPort := flag.Int("mpd-port", 6600, "MPD port")
	mpdPassword := flag.String("mpd-password", "", "MPD password")
	mediaURL := flag.String("media-url", "", "Base URL MPD uses to fetch audio from this process (default http://localhost:<port>)")
	effect := flag.String("effect", "bars", "Visual effect: bars or glow")
	width := flag.Float64("width", 800, "Initial container width in px")
	maxRemote := flag.Int("max-remote", 0, "Maximum concurrent remote listeners, 0 for unlimited")
	corsOrigin := flag.String("cors-origin", "*", "Allowed CORS origin for the REST endpoints")
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

	sessionID := uuid.New().String()
	versionInfo := version.For("client")

	// Print startup banner
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Synchronized Live Radio Player")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", *port).
		Str("station", *stationURL).
		Str("media", *backend).
		Str("effect", *effect).
		Float64("width", *width).
		Str("session", sessionID).
		Msg("Configuration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()

	// Media backend
	var (
		media     audio.Media
		mpdClient *mpd.Client
	)
	switch *backend {
	case audio.BackendSpeaker:
		media = audio.NewSpeaker()
	case audio.BackendClock:
		media = audio.NewClock()
	case audio.BackendMPD:
		mpdClient = mpd.NewClient(*mpdHost, *mpdPort, *mpdPassword)
		if err := mpdClient.Connect(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MPD")
		}
		defer mpdClient.Close()

		if err := mpdClient.Ping(); err != nil {
			log.Fatal().Err(err).Msg("MPD ping failed")
		}
		log.Info().Msg("MPD connection verified")

		base := *mediaURL
		if base == "" {
			base = "http://localhost:" + *port
		}
		mpdMedia := audio.NewMPD(mpdClient, base)
		mux.Handle(audio.MediaPath, mpdMedia.SourceHandler())
		media = mpdMedia
	default:
		log.Fatal().Str("media", *backend).Msg("Unknown media backend")
	}
	defer media.Close()

	// Surface and visual effect
	surface := view.NewSurface(*width)
	fx, err := effects.New(*effect, surface, effects.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create visual effect")
	}

	// Station client
	station := stationapi.NewClient(*stationURL,
		stationapi.WithClientID(sessionID),
		stationapi.WithUserAgent(fmt.Sprintf("%s/%s", versionInfo.Name, versionInfo.Version)),
	)

	app := radio.New(station, media, fx, surface, radio.Config{})

	// Create Socket.io server
	socketServer, err := socketio.NewServer(app, surface, *maxRemote)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	if mpdClient != nil {
		events, err := mpdClient.Watch("player")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start MPD watcher")
		}
		socketServer.StartMediaWatcher(ctx, events)
	}

	appDone := make(chan struct{})
	go func() {
		defer close(appDone)
		if err := app.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Live radio exited")
		}
	}()

	// Socket.io endpoint
	mux.Handle("/socket.io/", socketServer)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if mpdClient != nil {
			if err := mpdClient.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"error","mpd":"disconnected"}`))
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"media":     *backend,
			"listeners": socketServer.ClientCount(),
		})
	})

	// Version endpoint
	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(versionInfo)
	})

	// View endpoint (REST fallback)
	mux.HandleFunc("/api/v1/view", func(w http.ResponseWriter, r *http.Request) {
		state, err := app.State()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"view":  surface.ToJSON(),
			"state": state.ToJSON(),
		})
	})

	// Start HTTP server
	server := &http.Server{
		Addr:        ":" + *port,
		Handler:     corsMiddleware(*corsOrigin, mux),
		ReadTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()
		<-appDone

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+*port).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Client stopped")
}
