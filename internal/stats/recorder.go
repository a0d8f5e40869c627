package stats

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	queueSize     = 1024
	flushSize     = 50
	flushInterval = 5 * time.Second
)

// Event is a single trackable occurrence
type Event struct {
	Type      string
	PlayerID  string
	SessionID string
	Data      string // JSON metadata, optional
	Timestamp time.Time
}

// Recorder tracks events with batched background writes. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	db     *DB
	log    *zap.Logger
	events chan Event
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu     sync.RWMutex
	online int
}

// NewRecorder creates and starts the background writer
func NewRecorder(db *DB, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		db:     db,
		log:    log.Named("stats"),
		events: make(chan Event, queueSize),
		stop:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Track enqueues an event without blocking; when the queue is full the event
// is dropped
func (r *Recorder) Track(evtType, playerID, sessionID string, data map[string]any) {
	if r == nil {
		return
	}
	var payload string
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			payload = string(b)
		}
	}
	select {
	case r.events <- Event{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}:
	default:
	}
}

// SetOnline updates the live connection count
func (r *Recorder) SetOnline(n int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.online = n
	r.mu.Unlock()
}

// Online returns the live connection count
func (r *Recorder) Online() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.online
}

// Stop drains queued events, writes them and stops the writer. Safe to call
// more than once.
func (r *Recorder) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.stop)
		r.wg.Wait()
	})
}

func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]Event, 0, 64)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-r.events:
			batch = append(batch, evt)
			if len(batch) >= flushSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			for drained := false; !drained; {
				select {
				case evt := <-r.events:
					batch = append(batch, evt)
				default:
					drained = true
				}
			}
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events in one transaction
func (r *Recorder) flush(events []Event) {
	if r.db == nil || len(events) == 0 {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		r.log.Error("begin tx", zap.Error(err))
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		r.log.Error("prepare insert", zap.Error(err))
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullString{String: evt.PlayerID, Valid: evt.PlayerID != ""}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			r.log.Error("insert event", zap.String("type", evt.Type), zap.Error(err))
		}
	}
	if err := tx.Commit(); err != nil {
		r.log.Error("commit events", zap.Error(err), zap.Int("events", len(events)))
	}
}
