package internal

import "time"

type fakeConn struct{ id string }

func (c fakeConn) ID() string { return c.id }
func (c fakeConn) Send([]byte) error { return nil }
func (c fakeConn) Ping() error { return nil }
func (c fakeConn) Close() error { return nil }

func card(v string) *string { return &v }

func participant(id, name string, value *string) User {
	u := NewUser(fakeConn{id: id}, name, Participant, time.Time{})
	return u.WithCard(value)
}

func spectator(id, name string) User {
	return NewUser(fakeConn{id: id}, name, Spectator, time.Time{})
}
