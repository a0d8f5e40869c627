package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecorderWritesOnStop(t *testing.T) {
	r := NewRecorder(openMemory(t), nil)
	r.Track("player_kill", "ace", "c1", map[string]any{"victim": "rookie"})
	r.Track("player_kill", "ace", "c1", nil)
	r.Track("player_kill", "bob", "c2", nil)
	r.Track("session_start", "ace", "c1", nil)
	r.Stop()
	r.Stop()

	counts, err := r.EventCounts(1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"player_kill": 3, "session_start": 1}, counts)

	top, err := r.TopPlayers("player_kill", 10)
	require.NoError(t, err)
	assert.Equal(t, []PlayerCount{{PlayerID: "ace", Count: 2}, {PlayerID: "bob", Count: 1}}, top)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Track("x", "", "", nil)
		r.SetOnline(3)
		r.Stop()
	})
	assert.Zero(t, r.Online())
	counts, err := r.EventCounts(7)
	assert.NoError(t, err)
	assert.Nil(t, counts)
}

func TestOnlineGauge(t *testing.T) {
	r := NewRecorder(nil, nil)
	defer r.Stop()
	r.SetOnline(7)
	assert.Equal(t, 7, r.Online())
}

func TestFlushInsertsInTransaction(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO analytics_events")
	prep.ExpectExec().
		WithArgs("purchase", "p1", "c1", `{"weapon":"torpedo"}`, ts.Format(time.RFC3339)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	r := &Recorder{db: NewDB(conn), log: zap.NewNop()}
	r.flush([]Event{{Type: "purchase", PlayerID: "p1", SessionID: "c1", Data: `{"weapon":"torpedo"}`, Timestamp: ts}})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushLogsBeginFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	core, logs := observer.New(zap.ErrorLevel)
	r := &Recorder{db: NewDB(conn), log: zap.New(core)}
	r.flush([]Event{{Type: "orbit", Timestamp: time.Now()}})

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, logs.FilterMessage("begin tx").Len())
}

func TestQueryErrorIsWrapped(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	boom := errors.New("no such table")
	mock.ExpectQuery("SELECT event_type").WillReturnError(boom)

	r := &Recorder{db: NewDB(conn), log: zap.NewNop()}
	_, err = r.EventCounts(1)
	assert.ErrorIs(t, err, boom)
}
