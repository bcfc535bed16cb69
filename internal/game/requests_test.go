package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/pp-backend/internal"
)

func TestPlayRevealNewRound(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "A", internal.Participant)
	assert.Equal(t, uint64(1), mustRoom(t, rooms, "R").Version)

	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("5")}, alice)
	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(2), room.Version)
	assert.Equal(t, "5", *room.Users[0].CardValue)
	assert.Len(t, room.Log, 1, "playing a card is silent")

	rooms.SubmitUserRequest(internal.RevealCards{}, alice)
	room = mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(3), room.Version)
	revealed, ok := room.Phase.(internal.CardsRevealed)
	require.True(t, ok)
	assert.Equal(t, "5", revealed.GameResult.Average)
	assert.Equal(t, "5", *room.Users[0].CardValue, "cards stay on the table after reveal")
	assert.Equal(t, internal.Info("A revealed the cards"), lastLog(room))

	rooms.SubmitUserRequest(internal.StartNewRound{}, alice)
	room = mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(4), room.Version)
	assert.True(t, internal.IsPlaying(room.Phase))
	assert.Nil(t, room.Users[0].CardValue)
	assert.Equal(t, internal.Info("A started a new round"), lastLog(room))

	dto := alice.lastSnapshot(t)
	assert.Equal(t, uint64(4), dto.Version)
	assert.Equal(t, internal.PhasePlaying, dto.GamePhase)
}

func TestPlayCardNotInDeck(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "A", internal.Participant)
	bob := join(t, rooms, "R", "b", "B", internal.Participant)
	before := mustRoom(t, rooms, "R")

	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("not-in-deck")}, bob)

	room := mustRoom(t, rooms, "R")
	assert.Equal(t, before.Version+1, room.Version)
	assert.Len(t, room.Log, len(before.Log)+1)
	assert.Equal(t, internal.Info("B tried to play card with illegal value: not-in-deck"), lastLog(room))
	for _, u := range room.Users {
		assert.Nil(t, u.CardValue)
	}
	assert.Equal(t, room.Version, alice.lastSnapshot(t).Version, "rejected moves are broadcast too")
}

func TestPlayCardWhileRevealed(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "A", internal.Participant)
	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("3")}, alice)
	rooms.SubmitUserRequest(internal.RevealCards{}, alice)

	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("8")}, alice)
	rooms.SubmitUserRequest(internal.PlayCard{}, alice)

	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(5), room.Version)
	assert.Equal(t, "3", *room.Users[0].CardValue)
	assert.Equal(t, internal.Info("A tried to play card while no round was in progress"), lastLog(room))
}

func TestPlayCardNilTakesCardBack(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "A", internal.Participant)
	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("13")}, alice)
	rooms.SubmitUserRequest(internal.PlayCard{}, alice)

	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(3), room.Version)
	assert.Nil(t, room.Users[0].CardValue)
	assert.Len(t, room.Log, 1)
}

func TestIllegalPhaseChanges(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "A", internal.Participant)

	rooms.SubmitUserRequest(internal.StartNewRound{}, alice)
	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(2), room.Version)
	assert.True(t, internal.IsPlaying(room.Phase))
	assert.Equal(t, internal.Info("A tried to change game phase to PLAYING, but that's illegal"), lastLog(room))

	rooms.SubmitUserRequest(internal.RevealCards{}, alice)
	rooms.SubmitUserRequest(internal.RevealCards{}, alice)
	room = mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(4), room.Version)
	assert.True(t, internal.IsRevealed(room.Phase))
	assert.Equal(t, internal.Info("A tried to change game phase to CARDS_REVEALED, but that's illegal"), lastLog(room))
}

func TestRevealIgnoresSpectatorsAndKeepsResult(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "A", internal.Participant)
	bob := join(t, rooms, "R", "b", "B", internal.Participant)
	sam := join(t, rooms, "R", "s", "S", internal.Spectator)

	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("1")}, alice)
	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("2")}, bob)
	rooms.SubmitUserRequest(internal.PlayCard{CardValue: card("13")}, sam)
	rooms.SubmitUserRequest(internal.RevealCards{}, sam)

	dto := sam.lastSnapshot(t)
	assert.Equal(t, "1.5", dto.Average)
	require.NotNil(t, dto.GameResult)
	assert.Len(t, dto.GameResult.Cards, 2)

	// Renaming after the reveal doesn't rewrite the captured result.
	rooms.SubmitUserRequest(internal.ChangeName{Name: "Alice"}, alice)
	revealed := mustRoom(t, rooms, "R").Phase.(internal.CardsRevealed)
	assert.Equal(t, "A", revealed.GameResult.Cards[0].PlayedBy.Username)

	rooms.SubmitUserRequest(internal.StartNewRound{}, bob)
	for _, u := range mustRoom(t, rooms, "R").Users {
		assert.Nil(t, u.CardValue, "%s still has a card", u.Username)
	}
}

func TestChangeName(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "Alice", internal.Participant)

	rooms.SubmitUserRequest(internal.ChangeName{Name: "Alicia"}, alice)

	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(2), room.Version)
	assert.Equal(t, "Alicia", room.Users[0].Username)
	assert.Equal(t, internal.Info("User Alice changed name to Alicia"), lastLog(room))
}

func TestChatMessage(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "Alice", internal.Spectator)

	rooms.SubmitUserRequest(internal.ChatMessage{Message: "hello world"}, alice)
	rooms.SubmitUserRequest(internal.ChatMessage{Message: "   "}, alice)
	rooms.SubmitUserRequest(internal.ChatMessage{Message: ""}, alice)

	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(2), room.Version, "blank messages are dropped")
	assert.Equal(t, internal.Chat("[Alice]: hello world"), lastLog(room))
}

func TestClientBroadcast(t *testing.T) {
	rooms := NewRooms()
	alice := join(t, rooms, "R", "a", "Alice", internal.Participant)
	bob := join(t, rooms, "R", "b", "Bob", internal.Spectator)

	broadcast, err := internal.NewClientBroadcast(`{"confetti":true}`)
	require.NoError(t, err)
	rooms.SubmitUserRequest(broadcast, alice)

	room := mustRoom(t, rooms, "R")
	assert.Equal(t, uint64(3), room.Version)
	assert.Equal(t, internal.Broadcast(`{"confetti":true}`), lastLog(room))

	dto := bob.lastSnapshot(t)
	assert.Equal(t, internal.LevelClientBroadcast, dto.Log[len(dto.Log)-1].Level)
}

func TestRequestsFromUnknownConnection(t *testing.T) {
	rooms := NewRooms()
	join(t, rooms, "R", "a", "Alice", internal.Participant)
	stranger := newFakeConn("x")

	for _, req := range []internal.UserRequest{
		internal.PlayCard{CardValue: card("5")},
		internal.ChangeName{Name: "Mallory"},
		internal.ChatMessage{Message: "hi"},
		internal.RevealCards{},
		internal.StartNewRound{},
		internal.ClientBroadcast{Payload: "x"},
	} {
		rooms.SubmitUserRequest(req, stranger)
	}

	assert.Equal(t, uint64(1), mustRoom(t, rooms, "R").Version)
	assert.Zero(t, stranger.Messages())
}
