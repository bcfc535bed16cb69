package internal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	Participant UserType = "PARTICIPANT"
	Spectator   UserType = "SPECTATOR"
)

// ParseUserType accepts any casing. Anything unknown becomes a spectator.
func ParseUserType(s string) UserType {
	switch UserType(strings.ToUpper(strings.TrimSpace(s))) {
	case Participant:
		return Participant
	default:
		return Spectator
	}
}

// Connection is the transport handle a user is addressed through. The
// transport layer owns it; a User only keeps a reference.
//
// Send and Ping must not wait on the network, they are called while the
// registry lock is held.
type Connection interface {
	ID() string
	Send(data []byte) error
	Ping() error
	Close() error
}

// User is a value. Changing a user means replacing it inside a new Room.
type User struct {
	ID                 string
	Username           string
	Type               UserType
	CardValue          *string
	ConnectionDeadline time.Time
	Conn               Connection
}

// NewUser creates a user without a card. The user must answer a ping
// before deadline.
func NewUser(conn Connection, username string, userType UserType, deadline time.Time) User {
	return User{
		ID:                 uuid.NewString(),
		Username:           username,
		Type:               userType,
		ConnectionDeadline: deadline,
		Conn:               conn,
	}
}

// HasConnection reports whether u is bound to conn. Users are looked up by
// connection, never by id or name.
func (u User) HasConnection(conn Connection) bool {
	if u.Conn == nil || conn == nil {
		return false
	}
	return u.Conn.ID() == conn.ID()
}

func (u User) IsParticipant() bool {
	return u.Type == Participant
}

func (u User) HasPlayed() bool {
	return u.CardValue != nil
}

func (u User) WithCard(value *string) User {
	u.CardValue = cloneCard(value)
	return u
}

func (u User) WithUsername(name string) User {
	u.Username = name
	return u
}

func (u User) WithDeadline(deadline time.Time) User {
	u.ConnectionDeadline = deadline
	return u
}

// CardPlayer snapshots who the user is right now.
func (u User) CardPlayer() CardPlayer {
	return CardPlayer{Username: u.Username, UserID: u.ID}
}

func cloneCard(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
