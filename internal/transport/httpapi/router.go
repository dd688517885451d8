// Package httpapi serves the station HTTP API: the public endpoints clients
// poll and the admin routes that manage the song library.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/liveradio/internal/infra/store"
	"github.com/edumarques81/liveradio/internal/station"
	"github.com/edumarques81/liveradio/internal/version"
)

// Header names used by the admin routes.
const (
	HeaderAuth     = "auth"
	HeaderFileName = "file-name"
)

// BackgroundPrefix is where background images are served.
const BackgroundPrefix = "/static/images/background"

// Vars reads what the station published.
type Vars interface {
	GetRaw(key string) (json.RawMessage, error)
	RecentPlays(limit int) ([]store.Play, error)
}

// Station is the rotation loop the admin routes control.
type Station interface {
	Restart()
	NowPlaying() station.NowPlaying
}

// Config holds router settings.
type Config struct {
	// AuthKey guards the admin routes. An empty key disables them.
	AuthKey string
	// BackgroundDir is served under BackgroundPrefix when set.
	BackgroundDir string
}

type handler struct {
	vars    Vars
	lib     *station.Library
	station Station
	cfg     Config
}

// NewRouter builds the station router.
func NewRouter(vars Vars, lib *station.Library, st Station, cfg Config) *echo.Echo {
	h := &handler{vars: vars, lib: lib, station: st, cfg: cfg}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, HeaderAuth, HeaderFileName, "X-Client-ID"},
	}))
	e.Use(requestLogger)

	// public routes
	e.GET("/get-bisi", h.getStatus)
	e.GET("/get-song-position", h.getPosition)
	e.GET("/get-song", h.getSong)
	e.GET("/health", h.health)
	e.GET("/api/v1/version", h.version)
	if cfg.BackgroundDir != "" {
		e.Static(BackgroundPrefix, cfg.BackgroundDir)
	}

	// admin routes
	e.POST("/upload-song", h.uploadSong, h.requireAuth)
	e.GET("/update-songs-list", h.updateSongsList, h.requireAuth)
	e.GET("/get-songs-list", h.getSongsList, h.requireAuth)
	e.GET("/delete-song", h.deleteSong, h.requireAuth)
	e.GET("/restart-player", h.restartPlayer, h.requireAuth)
	e.GET("/get-play-history", h.getPlayHistory, h.requireAuth)

	return e
}

// requestLogger logs every request through zerolog.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		log.Debug().
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", c.Response().Status).
			Dur("latency", time.Since(start)).
			Str("client", c.Request().Header.Get("X-Client-ID")).
			Msg("HTTP request")
		return nil
	}
}

func (h *handler) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(HeaderAuth)
		if h.cfg.AuthKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.AuthKey)) != 1 {
			log.Warn().
				Str("path", c.Path()).
				Str("remote", c.RealIP()).
				Msg("Admin request rejected")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": true, "message": "authorization failed"})
		}
		return next(c)
	}
}

// publishedOr writes the stored variable, or fallback when it was never published.
func (h *handler) publishedOr(c echo.Context, key string, fallback interface{}) error {
	raw, err := h.vars.GetRaw(key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Variable read failed")
		return c.JSON(http.StatusOK, echo.Map{"error": true})
	}
	if raw == nil {
		return c.JSON(http.StatusOK, fallback)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *handler) getStatus(c echo.Context) error {
	return h.publishedOr(c, station.KeyStatus, station.Status{})
}

func (h *handler) getPosition(c echo.Context) error {
	return h.publishedOr(c, station.KeyStartData, station.StartData{T: 0, Mod: 1})
}

func (h *handler) getSong(c echo.Context) error {
	path, err := h.currentSongPath()
	if err != nil {
		log.Warn().Err(err).Msg("No current song")
		return c.JSON(http.StatusOK, echo.Map{"error": true})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Current song unreadable")
		return c.JSON(http.StatusOK, echo.Map{"error": true})
	}
	return c.JSONBlob(http.StatusOK, data)
}

// currentSongPath returns the published song path, falling back to the first
// library song before anything was published.
func (h *handler) currentSongPath() (string, error) {
	raw, err := h.vars.GetRaw(station.KeySongPath)
	if err != nil {
		return "", err
	}
	if raw != nil {
		var sp station.SongPath
		if err := json.Unmarshal(raw, &sp); err == nil && sp.Path != "" {
			return sp.Path, nil
		}
	}
	songs := h.lib.Songs()
	if len(songs) == 0 {
		return "", station.ErrSongNotFound
	}
	return h.lib.Path(songs[0])
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":     "ok",
		"nowPlaying": h.station.NowPlaying(),
	})
}

func (h *handler) version(c echo.Context) error {
	return c.JSON(http.StatusOK, version.For("station"))
}

func (h *handler) uploadSong(c echo.Context) error {
	name := c.Request().Header.Get(HeaderFileName)
	var song station.Song
	if err := json.NewDecoder(c.Request().Body).Decode(&song); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": true, "message": "invalid song document"})
	}

	if err := h.lib.Save(name, song); err != nil {
		if errors.Is(err, station.ErrInvalidName) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": true, "message": err.Error()})
		}
		log.Error().Err(err).Str("file", name).Msg("Upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "save failed"})
	}
	return c.String(http.StatusOK, "Success")
}

func (h *handler) updateSongsList(c echo.Context) error {
	if err := h.lib.Refresh(); err != nil {
		log.Error().Err(err).Msg("Library rescan failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "rescan failed"})
	}
	return c.String(http.StatusOK, "Success")
}

func (h *handler) getSongsList(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.Songs())
}

func (h *handler) deleteSong(c echo.Context) error {
	name := c.Request().Header.Get(HeaderFileName)
	err := h.lib.Delete(name)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"deleted": true})
	case errors.Is(err, station.ErrInvalidName):
		return c.JSON(http.StatusBadRequest, echo.Map{"deleted": false, "message": err.Error()})
	case errors.Is(err, station.ErrSongNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"deleted": false})
	default:
		log.Error().Err(err).Str("file", name).Msg("Delete failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"deleted": false})
	}
}

func (h *handler) restartPlayer(c echo.Context) error {
	h.station.Restart()
	return c.String(http.StatusOK, "player restarted")
}

func (h *handler) getPlayHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	plays, err := h.vars.RecentPlays(limit)
	if err != nil {
		log.Error().Err(err).Msg("Play history read failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true})
	}
	return c.JSON(http.StatusOK, plays)
}
