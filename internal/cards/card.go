package cards

import "fmt"

// Card identifies one of the 52 cards in a deck. Valid identifiers run
// 1..52: value = (id-1)%13 maps to 2..A and suit = (id-1)/13 maps to
// spades, hearts, diamonds, clubs. Zero means "no card".
type Card uint8

// DeckSize is the number of distinct cards in a deal.
const DeckSize = 52

var (
	valueRunes = [...]byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
	suitRunes  = [...]byte{'s', 'h', 'd', 'c'}
)

// Valid reports whether c is a real card identifier.
func (c Card) Valid() bool {
	return c >= 1 && c <= DeckSize
}

// Value returns the card value index 0..12 (0 = deuce, 12 = ace).
func (c Card) Value() int {
	return int(c-1) % 13
}

// Suit returns the suit index 0..3 (spades, hearts, diamonds, clubs).
func (c Card) Suit() int {
	return int(c-1) / 13
}

// String renders the card in the usual two-character form, e.g. "As" or "Td".
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{valueRunes[c.Value()], suitRunes[c.Suit()]})
}

// Parse converts a two-character card string back into a Card.
func Parse(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("cards: malformed card %q", s)
	}
	value, suit := -1, -1
	for i, r := range valueRunes {
		if s[0] == r {
			value = i
			break
		}
	}
	for i, r := range suitRunes {
		if s[1] == r {
			suit = i
			break
		}
	}
	if value < 0 || suit < 0 {
		return 0, fmt.Errorf("cards: malformed card %q", s)
	}
	return Card(suit*13 + value + 1), nil
}
