package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
)

// ErrAlreadyInRoom is returned when a connection that already belongs to a
// room tries to join a different one.
var ErrAlreadyInRoom = errors.New("connection already joined a different room")

// journalTimeout bounds a single journal write.
const journalTimeout = 5 * time.Second

// Journal receives the log entries of every committed room version.
type Journal interface {
	Record(ctx context.Context, room internal.Room, entries []internal.LogEntry) error
}

// Rooms holds every live room. It is the only shared mutable state of the
// server: all reads and writes go through mu, and a mutation holds the
// write lock from lookup to commit.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[string]internal.Room
	byConn map[string]string // connection id -> room id

	clock   clock.Clock
	timeout time.Duration
	deck    []string
	journal Journal
}

type Option func(*Rooms)

func WithClock(c clock.Clock) Option {
	return func(r *Rooms) { r.clock = c }
}

// WithDeck sets the deck of rooms created from now on.
func WithDeck(deck []string) Option {
	return func(r *Rooms) {
		if len(deck) > 0 {
			r.deck = slices.Clone(deck)
		}
	}
}

// WithConnectionTimeout sets how long a connection may stay silent.
func WithConnectionTimeout(timeout time.Duration) Option {
	return func(r *Rooms) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

func WithJournal(j Journal) Option {
	return func(r *Rooms) { r.journal = j }
}

func NewRooms(opts ...Option) *Rooms {
	r := &Rooms{
		rooms:   make(map[string]internal.Room),
		byConn:  make(map[string]string),
		clock:   clock.New(),
		timeout: internal.ConnectionTimeout,
		deck:    slices.Clone(internal.DefaultDeck),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

// NewUser creates a user for conn whose connection deadline starts now.
func (r *Rooms) NewUser(conn internal.Connection, username string, userType internal.UserType) internal.User {
	return internal.NewUser(conn, username, userType, r.clock.Now().Add(r.timeout))
}

// EnsureRoomContainsUser puts user into the room with the given id, creating
// the room if necessary. A connection never moves between rooms: joining a
// second room fails with ErrAlreadyInRoom and changes nothing.
func (r *Rooms) EnsureRoomContainsUser(roomID string, user internal.User) error {
	if user.Conn == nil {
		return fmt.Errorf("user %s has no connection", user.Username)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byConn[user.Conn.ID()]; ok {
		if existing != roomID {
			return fmt.Errorf("%w: user %s is in room %s", ErrAlreadyInRoom, user.Username, existing)
		}
		klog.V(1).Infof("[EnsureRoomContainsUser] Room %s: user %s already joined", roomID, user.Username)
		return nil
	}

	room, exists := r.rooms[roomID]
	if !exists {
		klog.Infof("[EnsureRoomContainsUser] Creating room %s", roomID)
		room = internal.NewRoom(roomID, r.deck)
	}

	klog.Infof("[EnsureRoomContainsUser] Room %s: %s joined as %s", roomID, user.Username, user.Type)
	r.commitLocked(room, room.WithUser(user).WithInfo(fmt.Sprintf("User %s joined", user.Username)))
	return nil
}

// Remove closes conn and takes its user out of its room. Unknown
// connections are ignored.
func (r *Rooms) Remove(conn internal.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(conn)
}

func (r *Rooms) removeLocked(conn internal.Connection) {
	// We don't know why the user is removed, it may well be a broken
	// connection, so closing errors don't matter.
	_ = conn.Close()

	room, user, ok := r.lookupLocked(conn)
	if !ok {
		return
	}

	klog.Infof("[Remove] Room %s: user %s left", room.ID, user.Username)
	r.commitLocked(room, room.Minus(conn).WithInfo(fmt.Sprintf("User %s left", user.Username)))
}

// CloseAll removes every user, which closes every connection. Used on
// shutdown.
func (r *Rooms) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conns []internal.Connection
	for _, room := range r.rooms {
		for _, user := range room.Users {
			conns = append(conns, user.Conn)
		}
	}
	for _, conn := range conns {
		r.removeLocked(conn)
	}
	klog.Infof("[CloseAll] Closed %d connections", len(conns))
}

// GetRooms returns a consistent snapshot of all rooms, sorted by id. Rooms
// are values, so the caller may keep them as long as it likes.
func (r *Rooms) GetRooms() []internal.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]internal.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b internal.Room) int {
		return strings.Compare(a.ID, b.ID)
	})
	return rooms
}

// Room returns the current version of a single room.
func (r *Rooms) Room(roomID string) (internal.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// ResetConnectionDeadline gives conn another timeout period. This is
// bookkeeping, not game state: the room version is not bumped and nobody
// is notified.
func (r *Rooms) ResetConnectionDeadline(conn internal.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, user, ok := r.lookupLocked(conn)
	if !ok {
		return
	}
	deadline := r.clock.Now().Add(r.timeout)
	r.rooms[room.Key()] = room.WithUserUpdated(conn, func(u internal.User) internal.User {
		return u.WithDeadline(deadline)
	})
	klog.V(2).Infof("[ResetConnectionDeadline] Room %s: %s alive until %s", room.ID, user.Username, deadline.Format(time.RFC3339))
}

// =============================================================================
// COMMIT
// =============================================================================

func (r *Rooms) lookupLocked(conn internal.Connection) (internal.Room, internal.User, bool) {
	if conn == nil {
		return internal.Room{}, internal.User{}, false
	}
	roomID, ok := r.byConn[conn.ID()]
	if !ok {
		return internal.Room{}, internal.User{}, false
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return internal.Room{}, internal.User{}, false
	}
	user, ok := room.FindUserByConnection(conn)
	if !ok {
		return internal.Room{}, internal.User{}, false
	}
	return room, user, true
}

// withUser runs action on the room and user bound to conn and commits the
// result, all under one write lock. Unknown connections are a no-op.
func (r *Rooms) withUser(conn internal.Connection, action func(internal.Room, internal.User) internal.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, user, ok := r.lookupLocked(conn)
	if !ok {
		klog.V(1).Infof("[withUser] ignoring request from unknown connection")
		return
	}
	r.commitLocked(room, action(room, user))
}

// commitLocked replaces previous with updated, one version later. Empty
// rooms are dropped instead of stored. Must be called with mu held.
func (r *Rooms) commitLocked(previous, updated internal.Room) {
	next := updated.Next(previous.Version + 1)

	for _, u := range previous.Users {
		if u.Conn != nil {
			delete(r.byConn, u.Conn.ID())
		}
	}

	if next.IsEmpty() {
		delete(r.rooms, next.Key())
		klog.Infof("[commit] Room %s: discarded empty room", next.ID)
	} else {
		r.rooms[next.Key()] = next
		for _, u := range next.Users {
			if u.Conn != nil {
				r.byConn[u.Conn.ID()] = next.ID
			}
		}
		r.broadcastLocked(next)
	}

	r.recordAsync(next, newLogEntries(previous, next))
}

func newLogEntries(previous, next internal.Room) []internal.LogEntry {
	if len(next.Log) <= len(previous.Log) {
		return nil
	}
	return slices.Clone(next.Log[len(previous.Log):])
}

func (r *Rooms) recordAsync(room internal.Room, entries []internal.LogEntry) {
	if r.journal == nil || len(entries) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		if err := r.journal.Record(ctx, room, entries); err != nil {
			klog.Errorf("[journal] Room %s: failed to record version %d: %v", room.ID, room.Version, err)
		}
	}()
}
