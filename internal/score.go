package internal

import (
	"math"
	"strconv"
)

// unknownSuffix marks an average that ignored some cards.
const unknownSuffix = " (?)"

// CalculateGameResult captures the participants' cards and their average.
// Spectators never count.
func CalculateGameResult(room Room) GameResult {
	participants := room.Participants()

	cards := make([]Card, 0, len(participants))
	for _, p := range participants {
		cards = append(cards, Card{
			PlayedBy: p.CardPlayer(),
			Value:    cloneCard(p.CardValue),
		})
	}

	return GameResult{
		Cards:   cards,
		Average: calculateAverage(participants),
	}
}

// calculateAverage returns:
//   - the raw value if every participant played the same card,
//   - otherwise the mean of the integer cards with one decimal digit, suffixed
//     with " (?)" when at least one card is missing or not an integer,
//   - "NaN (?)" when there is no integer card at all.
func calculateAverage(participants []User) string {
	if value, ok := unanimousValue(participants); ok {
		return value
	}

	sum := 0.0
	count := 0
	hasUnknown := false
	for _, p := range participants {
		if p.CardValue == nil {
			hasUnknown = true
			continue
		}
		n, err := strconv.ParseInt(*p.CardValue, 10, 32)
		if err != nil {
			hasUnknown = true
			continue
		}
		sum += float64(n)
		count++
	}

	if count == 0 {
		return "NaN" + unknownSuffix
	}

	average := formatOneDecimal(sum / float64(count))
	if hasUnknown {
		average += unknownSuffix
	}
	return average
}

func unanimousValue(participants []User) (string, bool) {
	if len(participants) == 0 || participants[0].CardValue == nil {
		return "", false
	}
	first := *participants[0].CardValue
	for _, p := range participants[1:] {
		if p.CardValue == nil || *p.CardValue != first {
			return "", false
		}
	}
	return first, true
}

// formatOneDecimal rounds half away from zero, so 2.25 becomes "2.3".
func formatOneDecimal(value float64) string {
	rounded := math.Floor(math.Abs(value)*10+0.5) / 10
	if value < 0 {
		rounded = -rounded
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64)
}
