package core

import "context"

type (
	// Direction marks which way a transcript entry travelled relative to the
	// presentation side.
	Direction string

	// TranscriptRecord is one recorded bridge message.
	TranscriptRecord struct {
		ID        string    `json:"id"`
		SessionID string    `json:"session_id"`
		Direction Direction `json:"direction"`
		Kind      string    `json:"kind"`
		Payload   []byte    `json:"payload,omitempty"`
		CreatedAt int64     `json:"created_at"`
	}

	// TranscriptStore records the message traffic of live view sessions for
	// later inspection. Recording failures must never block dispatch.
	TranscriptStore interface {
		Append(ctx context.Context, sessionID string, direction Direction, kind string, payload []byte) (string, error)
		List(ctx context.Context, sessionID string) ([]TranscriptRecord, error)
		Sessions(ctx context.Context) ([]string, error)
	}
)

const (
	DirectionInbound  Direction = "inbound"  // logic side -> presentation side
	DirectionOutbound Direction = "outbound" // presentation side -> logic side
)
