package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"k8s.io/klog/v2"
)

var ErrEmptyDeck = errors.New("deck file contains no cards")

// ReadDeckFile loads a deck from a CSV file. Every non-empty field is a
// card, so both one card per line and all cards on one line work. Duplicate
// cards are dropped, order is kept.
func ReadDeckFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read deck file %s: %w", filePath, err)
	}
	defer f.Close()

	deck, err := ReadDeck(f)
	if err != nil {
		return nil, fmt.Errorf("deck file %s: %w", filePath, err)
	}
	klog.Infof("[ReadDeckFile] Loaded %d cards from %s", len(deck), filePath)
	return deck, nil
}

func ReadDeck(r io.Reader) ([]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse as CSV: %w", err)
	}

	var deck []string
	seen := make(map[string]bool)
	for _, record := range records {
		for _, field := range record {
			card := strings.TrimSpace(field)
			if card == "" {
				continue
			}
			if seen[card] {
				klog.Warningf("[ReadDeck] Skipping duplicate card %q", card)
				continue
			}
			seen[card] = true
			deck = append(deck, card)
		}
	}
	if len(deck) == 0 {
		return nil, ErrEmptyDeck
	}
	return deck, nil
}
