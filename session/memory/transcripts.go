package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"canvaslink/core"
)

type transcriptStore struct {
	mu      sync.RWMutex
	records map[string][]core.TranscriptRecord
}

// NewTranscriptStore creates an in-memory transcript store.
func NewTranscriptStore() core.TranscriptStore {
	return &transcriptStore{records: make(map[string][]core.TranscriptRecord)}
}

func (s *transcriptStore) Append(ctx context.Context, sessionID string, direction core.Direction, kind string, payload []byte) (string, error) {
	id := ulid.Make().String()
	record := core.TranscriptRecord{
		ID:        id,
		SessionID: sessionID,
		Direction: direction,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: int64(ulid.Now()),
	}

	s.mu.Lock()
	s.records[sessionID] = append(s.records[sessionID], record)
	s.mu.Unlock()

	return id, nil
}

func (s *transcriptStore) List(ctx context.Context, sessionID string) ([]core.TranscriptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[sessionID]
	out := make([]core.TranscriptRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *transcriptStore) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.records))
	for id := range s.records {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
