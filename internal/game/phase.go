package game

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
)

// =============================================================================
// GAME PHASE
// =============================================================================

// changeGamePhase moves the room to the requested phase. Only
// PLAYING -> CARDS_REVEALED and CARDS_REVEALED -> PLAYING are legal; any
// other request is logged and leaves the phase alone.
func (r *Rooms) changeGamePhase(conn internal.Connection, requested string) {
	r.withUser(conn, func(room internal.Room, user internal.User) internal.Room {
		switch phase := room.Phase.(type) {
		case internal.Playing:
			if requested == internal.PhaseCardsRevealed {
				klog.Infof("[changeGamePhase] Room %s: %s revealed the cards", room.ID, user.Username)
				return RevealCards(room).WithInfo(user.Username + " revealed the cards")
			}
		case internal.CardsRevealed:
			if requested == internal.PhasePlaying {
				klog.Infof("[changeGamePhase] Room %s: %s started a new round (last average %s)",
					room.ID, user.Username, phase.GameResult.Average)
				return StartNewRound(room).WithInfo(user.Username + " started a new round")
			}
		}
		return room.WithInfo(fmt.Sprintf("%s tried to change game phase to %s, but that's illegal", user.Username, requested))
	})
}

// RevealCards captures the participants' cards. Users keep their cards.
func RevealCards(room internal.Room) internal.Room {
	return room.WithPhase(internal.CardsRevealed{GameResult: internal.CalculateGameResult(room)})
}

// StartNewRound takes every card off the table, spectators included.
func StartNewRound(room internal.Room) internal.Room {
	return room.WithAllCardsCleared().WithPhase(internal.Playing{})
}
