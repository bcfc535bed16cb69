package internal

import "slices"

// Room is an immutable value. Every method returns a new Room and never
// shares slices with the receiver, so a Room handed out by the registry
// stays valid after later commits.
//
// Rooms are identified by ID alone: two values with the same ID are the
// same room at different versions. Use Key for map lookups and Equal for
// comparisons, never ==.
type Room struct {
	ID      string
	Version uint64
	Users   []User
	Deck    []string
	Phase   GamePhase
	Log     []LogEntry
}

// NewRoom returns a room that was never stored, at version 0. The registry
// stamps version 1 when it is first committed.
func NewRoom(id string, deck []string) Room {
	if len(deck) == 0 {
		deck = DefaultDeck
	}
	return Room{
		ID:    id,
		Deck:  slices.Clone(deck),
		Phase: Playing{},
	}
}

func (r Room) Key() string {
	return r.ID
}

func (r Room) Equal(other Room) bool {
	return r.ID == other.ID
}

func (r Room) IsEmpty() bool {
	return len(r.Users) == 0
}

// copyRoom clones every slice so the result can be modified freely.
func (r Room) copyRoom() Room {
	return Room{
		ID:      r.ID,
		Version: r.Version,
		Users:   slices.Clone(r.Users),
		Deck:    slices.Clone(r.Deck),
		Phase:   r.Phase,
		Log:     slices.Clone(r.Log),
	}
}

// Next returns the room stamped with the given version.
func (r Room) Next(version uint64) Room {
	next := r.copyRoom()
	next.Version = version
	return next
}

// =============================================================================
// USERS
// =============================================================================

func (r Room) Participants() []User {
	participants := make([]User, 0, len(r.Users))
	for _, u := range r.Users {
		if u.IsParticipant() {
			participants = append(participants, u)
		}
	}
	return participants
}

func (r Room) FindUserByConnection(conn Connection) (User, bool) {
	for _, u := range r.Users {
		if u.HasConnection(conn) {
			return u, true
		}
	}
	return User{}, false
}

func (r Room) HasUserByConnection(conn Connection) bool {
	_, ok := r.FindUserByConnection(conn)
	return ok
}

func (r Room) WithUser(u User) Room {
	next := r.copyRoom()
	next.Users = append(next.Users, u)
	return next
}

// Minus removes the user bound to conn. Unknown connections return the
// room unchanged.
func (r Room) Minus(conn Connection) Room {
	if !r.HasUserByConnection(conn) {
		return r
	}
	next := r.copyRoom()
	next.Users = slices.DeleteFunc(next.Users, func(u User) bool {
		return u.HasConnection(conn)
	})
	return next
}

// WithUserUpdated replaces the user bound to conn with update(user).
func (r Room) WithUserUpdated(conn Connection, update func(User) User) Room {
	next := r.copyRoom()
	for i, u := range next.Users {
		if u.HasConnection(conn) {
			next.Users[i] = update(u)
		}
	}
	return next
}

// WithAllCardsCleared takes every card off the table.
func (r Room) WithAllCardsCleared() Room {
	next := r.copyRoom()
	for i := range next.Users {
		next.Users[i] = next.Users[i].WithCard(nil)
	}
	return next
}

// =============================================================================
// GAME STATE
// =============================================================================

func (r Room) WithPhase(phase GamePhase) Room {
	next := r.copyRoom()
	next.Phase = phase
	return next
}

// HasCard reports whether value is part of the deck.
func (r Room) HasCard(value string) bool {
	return slices.Contains(r.Deck, value)
}

// =============================================================================
// LOG
// =============================================================================

func (r Room) WithInfo(message string) Room {
	return r.withLogEntry(Info(message))
}

func (r Room) WithChatMessage(message string) Room {
	return r.withLogEntry(Chat(message))
}

func (r Room) WithBroadcast(payload string) Room {
	return r.withLogEntry(Broadcast(payload))
}

func (r Room) withLogEntry(entry LogEntry) Room {
	next := r.copyRoom()
	next.Log = append(next.Log, entry)
	return next
}
