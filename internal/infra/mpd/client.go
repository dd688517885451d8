// Package mpd provides a wrapper around the gompd MPD client.
package mpd

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// Client wraps the MPD client with reconnection logic.
type Client struct {
	mu       sync.RWMutex
	client   *mpd.Client
	watcher  *mpd.Watcher
	host     string
	port     int
	password string
}

// NewClient creates a new MPD client wrapper.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Connect establishes connection to MPD.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked()
}

// connectLocked establishes connection (must hold lock).
func (c *Client) connectLocked() error {
	addr := c.addr()
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	client, err := mpd.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}

	if c.password != "" {
		if err := client.Command("password %s", c.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication failed: %w", err)
		}
	}

	c.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected checks connection and reconnects if needed.
func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return c.connectLocked()
	}

	if err := c.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
		c.client.Close()
		c.client = nil
		return c.connectLocked()
	}

	return nil
}

// do runs fn against a live connection.
func (c *Client) do(fn func(*mpd.Client) error) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return fn(c.client)
}

// Close closes the MPD connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}

	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// Ping checks if the connection is alive.
func (c *Client) Ping() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	return c.client.Ping()
}

// status returns the current MPD status.
func (c *Client) status() (map[string]string, error) {
	var attrs mpd.Attrs
	err := c.do(func(cl *mpd.Client) error {
		var err error
		attrs, err = cl.Status()
		return err
	})
	return attrs, err
}

// State returns the playback state ("play", "pause", "stop").
func (c *Client) State() (string, error) {
	status, err := c.status()
	if err != nil {
		return "", err
	}
	return status["state"], nil
}

// Elapsed returns the elapsed time of the current song.
func (c *Client) Elapsed() (time.Duration, error) {
	status, err := c.status()
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(status["elapsed"], 64)
	if err != nil {
		return 0, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// AudioFormat returns MPD's "samplerate:bits:channels" string for the current output.
func (c *Client) AudioFormat() (string, error) {
	status, err := c.status()
	if err != nil {
		return "", err
	}
	return status["audio"], nil
}

// Replace clears the queue and enqueues uri.
func (c *Client) Replace(uri string) error {
	return c.do(func(cl *mpd.Client) error {
		if err := cl.Clear(); err != nil {
			return fmt.Errorf("clear queue: %w", err)
		}
		if err := cl.Add(uri); err != nil {
			return fmt.Errorf("add %s: %w", uri, err)
		}
		return nil
	})
}

// Play starts playback. If pos is -1, resumes current track.
func (c *Client) Play(pos int) error {
	return c.do(func(cl *mpd.Client) error {
		if pos < 0 {
			return cl.Play(-1)
		}
		return cl.Play(pos)
	})
}

// Pause sets the pause state.
func (c *Client) Pause(pause bool) error {
	return c.do(func(cl *mpd.Client) error {
		return cl.Pause(pause)
	})
}

// Stop stops playback.
func (c *Client) Stop() error {
	return c.do(func(cl *mpd.Client) error {
		return cl.Stop()
	})
}

// SeekCur seeks to an absolute position in the current song.
func (c *Client) SeekCur(pos time.Duration) error {
	return c.do(func(cl *mpd.Client) error {
		return cl.SeekCur(pos, false)
	})
}

// Watch starts watching for MPD subsystem changes.
// Returns a channel that receives subsystem names when they change.
func (c *Client) Watch(subsystems ...string) (<-chan string, error) {
	watcher, err := mpd.NewWatcher("tcp", c.addr(), c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	ch := make(chan string, 10)

	go func() {
		defer close(ch)
		for {
			select {
			case subsystem, ok := <-watcher.Event:
				if !ok {
					return
				}
				ch <- subsystem
			case err, ok := <-watcher.Error:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("MPD watcher error")
				time.Sleep(time.Second)
			}
		}
	}()

	return ch, nil
}
