// Package diagnostics serves the read-only inspection API: live session
// status, texture cache statistics, the current scene graph, and recorded
// session transcripts.
package diagnostics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"canvaslink/core"
	"canvaslink/liveview"
	"canvaslink/texture"
)

type (
	StatusResponse struct {
		SessionID      string         `json:"session_id"`
		GraphicCount   int            `json:"graphic_count"`
		PendingTouches int            `json:"pending_touches"`
		Spectators     map[string]int `json:"spectators,omitempty"`
	}

	GraphicsResponse struct {
		Graphics []core.GraphicState `json:"graphics"`
	}

	TranscriptResponse struct {
		SessionID string                  `json:"session_id"`
		Records   []core.TranscriptRecord `json:"records"`
	}
)

// SpectatorCounter reports how many observers watch each session.
type SpectatorCounter func() map[string]int

// HandleStatus reports the live session at a glance.
func HandleStatus(dispatcher *liveview.Dispatcher, spectators SpectatorCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			SessionID:      dispatcher.SessionID(),
			GraphicCount:   len(dispatcher.GraphicStates()),
			PendingTouches: dispatcher.PendingTouches(),
		}
		if spectators != nil {
			resp.Spectators = spectators()
		}
		render.JSON(w, r, resp)
	}
}

// HandleCacheStats reports texture cache counters.
func HandleCacheStats(cache *texture.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, cache.Snapshot())
	}
}

// HandleGraphics dumps the current scene graph.
func HandleGraphics(dispatcher *liveview.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		graphics := dispatcher.GraphicStates()
		if graphics == nil {
			graphics = []core.GraphicState{}
		}
		render.JSON(w, r, GraphicsResponse{Graphics: graphics})
	}
}

// HandleListSessions lists every session with a recorded transcript.
func HandleListSessions(store core.TranscriptStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.Sessions(r.Context())
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list sessions")
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []string{}
		}
		render.JSON(w, r, sessions)
	}
}

// HandleTranscript returns the recorded message traffic of one session.
func HandleTranscript(store core.TranscriptStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		records, err := store.List(r.Context(), sessionID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to load transcript")
			http.Error(w, "Failed to load transcript", http.StatusInternalServerError)
			return
		}
		if len(records) == 0 {
			http.Error(w, "Transcript not found", http.StatusNotFound)
			return
		}
		render.JSON(w, r, TranscriptResponse{SessionID: sessionID, Records: records})
	}
}
