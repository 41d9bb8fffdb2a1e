package sqlite

import (
	"context"
	"database/sql"
	stdlog "log"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"canvaslink/core"
)

type transcriptStore struct {
	db *sql.DB
}

// NewTranscriptStore opens (or creates) a sqlite-backed transcript store.
func NewTranscriptStore(dataSourceName string) core.TranscriptStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		stdlog.Fatal(err)
	}

	sts := `CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload BLOB,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS transcripts_session ON transcripts(session_id, id);`
	if _, err = db.Exec(sts); err != nil {
		stdlog.Fatal(err)
	}

	return &transcriptStore{db}
}

func (s *transcriptStore) Append(ctx context.Context, sessionID string, direction core.Direction, kind string, payload []byte) (string, error) {
	id := ulid.Make().String()
	log := logrus.WithFields(logrus.Fields{
		"transcript_id": id,
		"session_id":    sessionID,
		"kind":          kind,
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transcripts (id, session_id, direction, kind, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, sessionID, string(direction), kind, payload, int64(ulid.Now()))
	if err != nil {
		log.WithField("error", err).Error("Failed to record transcript entry")
		return "", err
	}
	return id, nil
}

func (s *transcriptStore) List(ctx context.Context, sessionID string) ([]core.TranscriptRecord, error) {
	log := logrus.WithField("session_id", sessionID)
	log.Debug("Listing transcript for session")

	// ulids sort lexicographically by creation time.
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, direction, kind, payload, created_at FROM transcripts WHERE session_id = ? ORDER BY id ASC",
		sessionID)
	if err != nil {
		log.WithField("error", err).Error("Failed to list transcript")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close transcript rows")
		}
	}()

	var records []core.TranscriptRecord
	for rows.Next() {
		var record core.TranscriptRecord
		var direction string
		if err := rows.Scan(&record.ID, &record.SessionID, &direction, &record.Kind, &record.Payload, &record.CreatedAt); err != nil {
			log.WithField("error", err).Error("Failed to scan transcript row")
			continue
		}
		record.Direction = core.Direction(direction)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *transcriptStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT session_id FROM transcripts ORDER BY session_id")
	if err != nil {
		logrus.WithField("error", err).Error("Failed to list sessions")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close session rows")
		}
	}()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *transcriptStore) Close() error {
	return s.db.Close()
}
