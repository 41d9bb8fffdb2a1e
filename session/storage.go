// Package session selects and wires the transcript store implementation.
package session

import (
	"os"

	"github.com/sirupsen/logrus"

	"canvaslink/core"
	"canvaslink/session/memory"
	"canvaslink/session/sqlite"
)

// GetStore picks a transcript store from the environment: TRANSCRIPT_STORE
// set to "sqlite" uses TRANSCRIPT_DSN, anything else falls back to memory.
func GetStore() core.TranscriptStore {
	storeType := os.Getenv("TRANSCRIPT_STORE")
	var store core.TranscriptStore

	storeField := logrus.Fields{
		"storeType": storeType,
	}

	switch storeType {
	case "sqlite":
		dataSourceName := os.Getenv("TRANSCRIPT_DSN")
		storeField["dataSourceName"] = dataSourceName
		store = sqlite.NewTranscriptStore(dataSourceName)
	default:
		store = memory.NewTranscriptStore()
		storeField["storeType"] = "in-memory"
	}
	logrus.WithFields(storeField).Info("Use transcript store")
	return store
}
