package memory

import (
	"context"
	"testing"

	"canvaslink/core"
)

func TestAppendList(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()

	id1, err := store.Append(ctx, "s1", core.DirectionInbound, "createNode", []byte(`{"id":"g1"}`))
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	id2, err := store.Append(ctx, "s1", core.DirectionOutbound, "touchAck", nil)
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if id1 == id2 {
		t.Error("Append() returned duplicate record ids")
	}

	records, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(records))
	}
	if records[0].Kind != "createNode" || records[1].Kind != "touchAck" {
		t.Errorf("records out of append order: %v, %v", records[0].Kind, records[1].Kind)
	}
	if records[0].Direction != core.DirectionInbound {
		t.Errorf("record direction = %q", records[0].Direction)
	}
}

func TestList_UnknownSessionEmpty(t *testing.T) {
	store := NewTranscriptStore()

	records, err := store.List(context.Background(), "nope")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("List() returned %d records for unknown session", len(records))
	}
}

func TestSessions_Sorted(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()

	for _, session := range []string{"beta", "alpha"} {
		if _, err := store.Append(ctx, session, core.DirectionInbound, "clearScene", nil); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "alpha" || sessions[1] != "beta" {
		t.Errorf("Sessions() = %v, want [alpha beta]", sessions)
	}
}
