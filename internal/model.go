package internal

import "time"

const (
	// ConnectionTimeout is how long a connection may stay silent before
	// the deadline sweep evicts it. Every pong pushes the deadline out again.
	ConnectionTimeout = 3 * time.Minute

	PingInterval     = 1 * time.Minute
	DeadlineInterval = 3 * time.Minute

	MaxBroadcastPayloadLength = 10_000
)

// DefaultDeck is used for every room unless a deck file is configured.
var DefaultDeck = []string{"1", "2", "3", "5", "8", "13", "☕"}

// =============================================================================
// LOG
// =============================================================================

type LogLevel string

const (
	// LevelInfo also covers rejected moves: a client breaking the rules is
	// not an error on our side.
	LevelInfo            LogLevel = "INFO"
	LevelChat            LogLevel = "CHAT"
	LevelError           LogLevel = "ERROR"
	LevelClientBroadcast LogLevel = "CLIENT_BROADCAST"
)

type LogEntry struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

func Info(message string) LogEntry {
	return LogEntry{Level: LevelInfo, Message: message}
}

func Chat(message string) LogEntry {
	return LogEntry{Level: LevelChat, Message: message}
}

func Broadcast(payload string) LogEntry {
	return LogEntry{Level: LevelClientBroadcast, Message: payload}
}

// =============================================================================
// GAME PHASE
// =============================================================================

// GamePhase is either Playing or CardsRevealed. The set is closed: only
// types in this package implement it.
type GamePhase interface {
	isGamePhase()
}

// Playing: users may play cards, nobody sees the other cards.
type Playing struct{}

// CardsRevealed carries the result captured at the moment of the reveal.
type CardsRevealed struct {
	GameResult GameResult `json:"gameResult"`
}

func (Playing) isGamePhase()       {}
func (CardsRevealed) isGamePhase() {}

const (
	PhasePlaying       = "PLAYING"
	PhaseCardsRevealed = "CARDS_REVEALED"
)

// PhaseName returns the client facing name of a phase.
func PhaseName(phase GamePhase) string {
	switch phase.(type) {
	case CardsRevealed:
		return PhaseCardsRevealed
	case Playing:
		return PhasePlaying
	default:
		return PhasePlaying
	}
}

func IsPlaying(phase GamePhase) bool {
	_, ok := phase.(Playing)
	return ok
}

func IsRevealed(phase GamePhase) bool {
	_, ok := phase.(CardsRevealed)
	return ok
}

// =============================================================================
// RESULTS
// =============================================================================

// CardPlayer identifies who played a card. Username is the name at reveal
// time; the user may have renamed or left since.
type CardPlayer struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type Card struct {
	PlayedBy CardPlayer `json:"playedBy"`
	Value    *string    `json:"value"`
}

type GameResult struct {
	Cards   []Card `json:"cards"`
	Average string `json:"average"`
}
