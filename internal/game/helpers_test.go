package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scythe504/pp-backend/internal"
)

var errBroken = errors.New("broken pipe")

// fakeConn records everything the registry sends to it.
type fakeConn struct {
	id string

	mu       sync.Mutex
	sent     [][]byte
	pings    int
	closed   int
	failSend bool
	failPing bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errBroken
	}
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failPing {
		return errBroken
	}
	c.pings++
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return errBroken
}

func (c *fakeConn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed > 0
}

func (c *fakeConn) Messages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) setFailSend(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSend = fail
}

func (c *fakeConn) setFailPing(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failPing = fail
}

// lastSnapshot decodes the most recent RoomDto sent to c.
func (c *fakeConn) lastSnapshot(t *testing.T) internal.RoomDto {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "nothing was sent to %s", c.id)

	var dto internal.RoomDto
	require.NoError(t, json.Unmarshal(c.sent[len(c.sent)-1], &dto))
	return dto
}

// join puts a new user bound to a fresh fakeConn into roomID.
func join(t *testing.T, rooms *Rooms, roomID, connID, username string, userType internal.UserType) *fakeConn {
	t.Helper()
	conn := newFakeConn(connID)
	require.NoError(t, rooms.EnsureRoomContainsUser(roomID, rooms.NewUser(conn, username, userType)))
	return conn
}

func mustRoom(t *testing.T, rooms *Rooms, roomID string) internal.Room {
	t.Helper()
	room, ok := rooms.Room(roomID)
	require.True(t, ok, "room %s does not exist", roomID)
	return room
}

func lastLog(room internal.Room) internal.LogEntry {
	return room.Log[len(room.Log)-1]
}

func card(v string) *string { return &v }

type recordedVersion struct {
	roomID  string
	version uint64
	entries []internal.LogEntry
}

type fakeJournal struct {
	mu       sync.Mutex
	versions []recordedVersion
}

func (j *fakeJournal) Record(_ context.Context, room internal.Room, entries []internal.LogEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.versions = append(j.versions, recordedVersion{roomID: room.ID, version: room.Version, entries: entries})
	return nil
}

func (j *fakeJournal) Versions() []recordedVersion {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]recordedVersion(nil), j.versions...)
}
