// internal/uno/card.go
package uno

import (
	"math/rand"

	"github.com/google/uuid"
)

// Color of a card face. Wild-kind cards carry ColorWild until played.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

// PlayColors are the four colors a wild play may choose between.
var PlayColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// Kind of a card.
type Kind string

const (
	KindNumber       Kind = "number"
	KindSkip         Kind = "skip"
	KindReverse      Kind = "reverse"
	KindDrawTwo      Kind = "draw2"
	KindWild         Kind = "wild"
	KindWildDrawFour Kind = "wild-draw4"
)

// DeckSize is the number of cards in a full generated deck.
const DeckSize = 108

// Card is an immutable deck card. ID is unique within a deck instance and
// is what hand removal targets, so playing one of two visually identical
// duplicates never removes the other. Gameplay matching goes through
// Matches and never compares IDs.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Color Color     `json:"color"`
	Kind  Kind      `json:"kind"`
	// Value is the printed digit, 0-9. Meaningful only for KindNumber.
	Value int `json:"value"`
}

// IsWild reports whether the card is one of the two wild kinds.
func (c Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWildDrawFour
}

// Matches reports gameplay equality: same color, kind, and (for number
// cards) printed value.
func (c Card) Matches(o Card) bool {
	if c.Color != o.Color || c.Kind != o.Kind {
		return false
	}
	return c.Kind != KindNumber || c.Value == o.Value
}

// Score returns the card's residual-hand penalty value used for the
// winner's score: number cards count face value, action cards 20, wild
// kinds 50.
func (c Card) Score() int {
	switch c.Kind {
	case KindNumber:
		return c.Value
	case KindSkip, KindReverse, KindDrawTwo:
		return 20
	default:
		return 50
	}
}

// NewDeck builds the standard 108-card deck: per color one zero, two each
// of 1-9, and two each of skip/reverse/draw-two, plus four of each wild
// kind. The composition is deterministic; only IDs are random.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)

	for _, color := range PlayColors {
		deck = append(deck, Card{ID: uuid.New(), Color: color, Kind: KindNumber, Value: 0})
		for v := 1; v <= 9; v++ {
			deck = append(deck,
				Card{ID: uuid.New(), Color: color, Kind: KindNumber, Value: v},
				Card{ID: uuid.New(), Color: color, Kind: KindNumber, Value: v},
			)
		}
	}
	for _, color := range PlayColors {
		for _, kind := range []Kind{KindSkip, KindReverse, KindDrawTwo} {
			deck = append(deck,
				Card{ID: uuid.New(), Color: color, Kind: kind},
				Card{ID: uuid.New(), Color: color, Kind: kind},
			)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{ID: uuid.New(), Color: ColorWild, Kind: KindWild})
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{ID: uuid.New(), Color: ColorWild, Kind: KindWildDrawFour})
	}
	return deck
}

// Shuffle permutes the cards in place. Gameplay shuffling does not need a
// cryptographic source.
func Shuffle(deck []Card) {
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// Playable implements the play-legality decision table against the top
// discard card. A nil top card means no game is in progress and is
// reported as an error rather than a panic.
//
// With a pending draw penalty, only a card of the same penalty-inducing
// kind as the top card may be played (stacking); everything else must go
// through the forced-draw path. Otherwise wild kinds are always playable,
// and a colored card plays on matching active color, matching number, or
// matching action kind.
func Playable(candidate Card, top *Card, activeColor Color, pendingDraw int) (bool, error) {
	if top == nil {
		return false, ErrGameNotInProgress
	}

	if pendingDraw > 0 {
		stackable := (top.Kind == KindDrawTwo && candidate.Kind == KindDrawTwo) ||
			(top.Kind == KindWildDrawFour && candidate.Kind == KindWildDrawFour)
		return stackable, nil
	}

	if candidate.IsWild() {
		return true, nil
	}
	if candidate.Color == activeColor {
		return true, nil
	}
	if candidate.Kind == KindNumber && top.Kind == KindNumber && candidate.Value == top.Value {
		return true, nil
	}
	if candidate.Kind == top.Kind && candidate.Kind != KindNumber {
		return true, nil
	}
	return false, nil
}
