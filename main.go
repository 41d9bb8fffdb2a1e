package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"canvaslink/assets"
	"canvaslink/core"
	"canvaslink/handlers/api/diagnostics"
	"canvaslink/handlers/websocket"
	"canvaslink/liveview"
	"canvaslink/render/memory"
	"canvaslink/session"
	"canvaslink/texture"
	"canvaslink/transport"
)

// logStatusSink publishes assessment outcomes to the host log.
type logStatusSink struct{}

func (logStatusSink) PublishStatus(status core.AssessmentStatus, message string) {
	logrus.WithFields(logrus.Fields{
		"status":  status,
		"message": message,
	}).Info("assessment result")
}

func (logStatusSink) KeepAlive() {
	logrus.Debug("assessment keep-alive")
}

// logSoundPlayer resolves the sound asset and logs the playback request; the
// host has no audio output of its own, spectators play the sound client-side
// from the mirrored envelope.
type logSoundPlayer struct {
	assets core.AssetStore
}

func (p logSoundPlayer) Play(ctx context.Context, name string) error {
	data, err := p.assets.Sound(ctx, name)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"sound": name,
		"bytes": len(data),
	}).Debug("sound playback requested")
	return nil
}

func setupRouter(dispatcher *liveview.Dispatcher, cache *texture.Cache, transcripts core.TranscriptStore) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "[::1]":
					return true
				}
			}

			return false
		},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(cors.Handler(corsOptions))

	r.Get("/bridge", websocket.HandleBridge(dispatcher))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", diagnostics.HandleStatus(dispatcher, websocket.GetActiveSessions))
		r.Get("/cache", diagnostics.HandleCacheStats(cache))
		r.Get("/graphics", diagnostics.HandleGraphics(dispatcher))
		r.Get("/sessions", diagnostics.HandleListSessions(transcripts))
		r.Get("/sessions/{sessionId}/transcript", diagnostics.HandleTranscript(transcripts))
	})

	return r
}

func waitForShutdown(hub *websocket.Hub, announcer interface{ Shutdown() error }) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	if announcer != nil {
		_ = announcer.Shutdown()
	}
	hub.Server().Close(nil)
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3004", "Set the server listen address")
	assetDir := flag.String("assets", "assets-data", "Directory holding image and sound assets")
	cacheMB := flag.Int("cache-mb", 64, "Texture cache size limit in megabytes")
	announce := flag.Bool("announce", true, "Advertise the host over mDNS")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	transcripts := session.GetStore()
	cache := texture.New(texture.Config{SizeLimitMB: *cacheMB})
	hub := websocket.SetupSocketIO()

	assetStore := assets.NewStore(*assetDir)
	dispatcher := liveview.NewDispatcher(liveview.Config{
		Backend:     memory.NewBackend(),
		Textures:    cache,
		Assets:      assetStore,
		Sounds:      logSoundPlayer{assets: assetStore},
		Status:      logStatusSink{},
		Transcripts: transcripts,
		Mirror:      hub,
	})

	r := setupRouter(dispatcher, cache, transcripts)
	r.Handle("/socket.io/", hub.Server().ServeHandler(nil))

	var announcer interface{ Shutdown() error }
	if *announce {
		if port := listenPort(*listenAddr); port > 0 {
			server, err := transport.Announce(port)
			if err != nil {
				logrus.WithError(err).Warn("mDNS announcement failed")
			} else {
				announcer = server
			}
		}
	}

	logrus.WithField("addr", *listenAddr).Info("starting live view host")
	go func() {
		if err := http.ListenAndServe(*listenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(hub, announcer)
}

func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
