package internal

import (
	"slices"
	"strings"
)

const (
	cardPlayed    = "✅"
	cardNotPlayed = "❌"

	// averageHidden is shown until the cards are revealed.
	averageHidden = "?"
)

// RoomDto is what a client sees of a room. Card values of other users are
// redacted until the cards are revealed.
type RoomDto struct {
	RoomID     string      `json:"roomId"`
	Version    uint64      `json:"version"`
	Deck       []string    `json:"deck"`
	GamePhase  string      `json:"gamePhase"`
	Users      []UserDto   `json:"users"`
	Average    string      `json:"average"`
	GameResult *GameResult `json:"gameResult"`
	Log        []LogEntry  `json:"log"`
}

type UserDto struct {
	Username  string   `json:"username"`
	UserType  UserType `json:"userType"`
	YourUser  bool     `json:"yourUser"`
	CardValue string   `json:"cardValue"`
}

// NewRoomDto projects room for viewer. A nil viewer (e.g. the room listing)
// sees nobody's card before the reveal.
func NewRoomDto(room Room, viewer *User) RoomDto {
	users := make([]UserDto, 0, len(room.Users))
	for _, u := range room.Users {
		isViewer := viewer != nil && u.HasConnection(viewer.Conn)
		users = append(users, NewUserDto(u, isViewer, room.Phase))
	}
	slices.SortStableFunc(users, func(a, b UserDto) int {
		return strings.Compare(a.Username, b.Username)
	})

	dto := RoomDto{
		RoomID:    room.ID,
		Version:   room.Version,
		Deck:      slices.Clone(room.Deck),
		GamePhase: PhaseName(room.Phase),
		Users:     users,
		Average:   averageHidden,
		Log:       slices.Clone(room.Log),
	}
	if dto.Deck == nil {
		dto.Deck = []string{}
	}
	if dto.Log == nil {
		dto.Log = []LogEntry{}
	}

	switch phase := room.Phase.(type) {
	case CardsRevealed:
		result := phase.GameResult
		dto.Average = result.Average
		dto.GameResult = &result
	case Playing:
	}
	return dto
}

func NewUserDto(u User, isViewer bool, phase GamePhase) UserDto {
	return UserDto{
		Username:  u.Username,
		UserType:  u.Type,
		YourUser:  isViewer,
		CardValue: redactedCard(u, isViewer, phase),
	}
}

func redactedCard(u User, isViewer bool, phase GamePhase) string {
	if !u.IsParticipant() {
		return ""
	}
	if isViewer || IsRevealed(phase) {
		if u.CardValue == nil {
			return ""
		}
		return *u.CardValue
	}
	if u.HasPlayed() {
		return cardPlayed
	}
	return cardNotPlayed
}
