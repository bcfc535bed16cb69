package game

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
)

// =============================================================================
// REQUEST DISPATCH
// =============================================================================

// SubmitUserRequest applies a client request to the room conn belongs to.
// Requests from unknown connections are dropped silently. Moves that break
// the rules are not errors: they end up as an INFO entry in the room log.
func (r *Rooms) SubmitUserRequest(request internal.UserRequest, conn internal.Connection) {
	switch req := request.(type) {
	case internal.ChangeName:
		r.changeName(conn, req.Name)
	case internal.PlayCard:
		r.playCard(conn, req.CardValue)
	case internal.ChatMessage:
		r.chatMessage(conn, req.Message)
	case internal.RevealCards:
		r.changeGamePhase(conn, internal.PhaseCardsRevealed)
	case internal.StartNewRound:
		r.changeGamePhase(conn, internal.PhasePlaying)
	case internal.ClientBroadcast:
		r.clientBroadcast(conn, req)
	default:
		klog.Warningf("[SubmitUserRequest] unsupported request %T", request)
	}
}

func (r *Rooms) changeName(conn internal.Connection, name string) {
	r.withUser(conn, func(room internal.Room, user internal.User) internal.Room {
		klog.V(1).Infof("[changeName] Room %s: %s -> %s", room.ID, user.Username, name)
		return room.
			WithUserUpdated(conn, func(u internal.User) internal.User { return u.WithUsername(name) }).
			WithInfo(fmt.Sprintf("User %s changed name to %s", user.Username, name))
	})
}

// playCard sets the user's card if a round is running and the value is in
// the deck. A nil value takes the card back.
func (r *Rooms) playCard(conn internal.Connection, cardValue *string) {
	r.withUser(conn, func(room internal.Room, user internal.User) internal.Room {
		if !internal.IsPlaying(room.Phase) {
			return room.WithInfo(fmt.Sprintf("%s tried to play card while no round was in progress", user.Username))
		}
		if cardValue != nil && !room.HasCard(*cardValue) {
			return room.WithInfo(fmt.Sprintf("%s tried to play card with illegal value: %s", user.Username, *cardValue))
		}
		return room.WithUserUpdated(conn, func(u internal.User) internal.User {
			return u.WithCard(cardValue)
		})
	})
}

// chatMessage drops blank messages without touching the room.
func (r *Rooms) chatMessage(conn internal.Connection, message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	r.withUser(conn, func(room internal.Room, user internal.User) internal.Room {
		return room.WithChatMessage(fmt.Sprintf("[%s]: %s", user.Username, message))
	})
}

// clientBroadcast relays an already validated payload to the room log.
func (r *Rooms) clientBroadcast(conn internal.Connection, broadcast internal.ClientBroadcast) {
	r.withUser(conn, func(room internal.Room, user internal.User) internal.Room {
		klog.V(1).Infof("[clientBroadcast] Room %s: %s sent %d bytes", room.ID, user.Username, len(broadcast.Payload))
		return room.WithBroadcast(broadcast.Payload)
	})
}
