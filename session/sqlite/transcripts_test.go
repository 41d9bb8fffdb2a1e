package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"canvaslink/core"
)

func newTestStore(t *testing.T) core.TranscriptStore {
	t.Helper()
	if !CGOEnabled {
		t.Skip("sqlite store requires cgo")
	}
	return NewTranscriptStore(filepath.Join(t.TempDir(), "transcripts.db"))
}

func TestAppendList_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "s1", core.DirectionInbound, "placeGraphic", []byte(`{"id":"g1"}`)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if _, err := store.Append(ctx, "s1", core.DirectionOutbound, "getGraphicsReply", []byte(`{}`)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	records, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(records))
	}
	if records[0].Kind != "placeGraphic" {
		t.Errorf("first record kind = %q, want placeGraphic (append order)", records[0].Kind)
	}
	if string(records[0].Payload) != `{"id":"g1"}` {
		t.Errorf("payload = %q", records[0].Payload)
	}
}

func TestList_SessionIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "a", core.DirectionInbound, "clearScene", nil); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if _, err := store.Append(ctx, "b", core.DirectionInbound, "clearScene", nil); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	records, err := store.List(ctx, "a")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(records) != 1 || records[0].SessionID != "a" {
		t.Errorf("session isolation broken: %+v", records)
	}
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, session := range []string{"z", "a", "z"} {
		if _, err := store.Append(ctx, session, core.DirectionInbound, "touchAck", nil); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "a" || sessions[1] != "z" {
		t.Errorf("Sessions() = %v, want [a z]", sessions)
	}
}
