// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/liveradio/internal/domain/player"
	"github.com/edumarques81/liveradio/internal/domain/view"
)

// DebounceWindow is how long surface changes are batched before a broadcast.
const DebounceWindow = 50 * time.Millisecond

// Controller is the player the server drives from client events.
type Controller interface {
	TogglePlayPause()
	Resize(width float64)
	State() (player.State, error)
}

// Server handles Socket.io connections and events.
type Server struct {
	io        *socket.Server
	app       Controller
	surface   *view.Surface
	limiter   *ListenerLimiter
	debouncer *BroadcastDebouncer

	mu       sync.RWMutex
	clients  map[string]*socket.Socket
	lastView []byte
}

// NewServer creates a new Socket.io server. maxRemote caps concurrent
// non-loopback listeners; zero means unlimited.
func NewServer(app Controller, surface *view.Surface, maxRemote int) (*Server, error) {
	// Configure Socket.io server options
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	server := socket.NewServer(nil, opts)

	s := &Server{
		io:      server,
		app:     app,
		surface: surface,
		limiter: NewListenerLimiter(maxRemote),
		clients: make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(DebounceWindow, s.BroadcastView, s.BroadcastEffect, s.BroadcastState)
	surface.OnChange(s.debouncer.Trigger)

	s.setupHandlers()

	return s, nil
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		addr := client.Handshake().Address

		log.Info().Str("id", clientID).Str("addr", addr).Msg("Listener connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		if evicted := s.limiter.Admit(clientID, addr); evicted != "" {
			s.evict(evicted)
		}

		// Send initial view after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushView(client)
			s.pushState(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Listener disconnected")

			s.limiter.Release(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On("getView", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getView")
			s.pushView(client)
		})

		client.On("getState", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			s.pushState(client)
		})

		client.On("toggle", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("toggle")
			s.app.TogglePlayPause()
		})

		client.On("resize", func(args ...any) {
			var m map[string]interface{}
			if len(args) > 0 {
				m, _ = args[0].(map[string]interface{})
			}
			width := getFloatFromMap(m, "width", 0)
			if width <= 0 {
				log.Warn().Str("id", clientID).Interface("data", args).Msg("resize without width")
				return
			}
			log.Debug().Str("id", clientID).Float64("width", width).Msg("resize")
			s.app.Resize(width)
		})
	})
}

// evict disconnects a listener displaced by the limiter.
func (s *Server) evict(clientID string) {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	delete(s.clients, clientID)
	s.mu.Unlock()

	if !ok {
		return
	}
	log.Info().Str("id", clientID).Msg("Listener evicted, remote limit reached")
	client.Emit("pushEvicted", map[string]interface{}{"reason": "listener limit reached"})
	client.Disconnect(true)
}

// viewPayload is the surface snapshot sent with pushView.
func (s *Server) viewPayload() map[string]interface{} {
	return s.surface.ToJSON()
}

// pushView sends the current surface to a client.
func (s *Server) pushView(client *socket.Socket) {
	client.Emit("pushView", s.viewPayload())
}

// pushState sends the current playback state to a client.
func (s *Server) pushState(client *socket.Socket) {
	state, err := s.app.State()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get state")
		return
	}
	client.Emit("pushState", state.ToJSON())
}

// BroadcastView sends the surface to all connected clients. Identical
// consecutive snapshots are not re-sent.
func (s *Server) BroadcastView() {
	payload := s.viewPayload()
	if s.isViewSame(payload) {
		return
	}

	s.io.Emit("pushView", payload)

	if log.Debug().Enabled() {
		s.mu.RLock()
		clientCount := len(s.clients)
		s.mu.RUnlock()
		log.Debug().Int("clients", clientCount).Msg("Broadcast view")
	}
}

// BroadcastEffect sends only the effect elements to all connected clients.
// Effect frames never carry album art.
func (s *Server) BroadcastEffect() {
	s.io.Emit("pushEffect", s.surface.EffectJSON())
}

// BroadcastState sends the playback state to all connected clients.
func (s *Server) BroadcastState() {
	state, err := s.app.State()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get state for broadcast")
		return
	}
	s.io.Emit("pushState", state.ToJSON())
}

// isViewSame reports whether payload matches the last broadcast and records
// it otherwise.
func (s *Server) isViewSame(payload map[string]interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.lastView) {
		return true
	}
	s.lastView = data
	return false
}

// StartMediaWatcher rebroadcasts the playback state whenever the media
// backend reports a change it made on its own (e.g. MPD paused by another
// client). events carries backend subsystem names.
func (s *Server) StartMediaWatcher(ctx context.Context, events <-chan string) {
	go func() {
		log.Info().Msg("Media watcher started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Media watcher stopped")
				return
			case subsystem, ok := <-events:
				if !ok {
					log.Warn().Msg("Media watcher channel closed")
					return
				}
				log.Debug().Str("subsystem", subsystem).Msg("Media subsystem changed")
				s.debouncer.Trigger("media")
			}
		}
	}()
}

// ClientCount returns the number of connected listeners.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.surface.OnChange(nil)
	s.io.Close(nil)
	return nil
}

func getFloatFromMap(m map[string]interface{}, key string, defaultVal float64) float64 {
	if m == nil {
		return defaultVal
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultVal
}
