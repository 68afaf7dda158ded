// internal/game/card.go
package game

import "github.com/google/uuid"

// CardType enumerates every card kind in the deck.
type CardType string

const (
	CardAttack          CardType = "attack"
	CardSkip            CardType = "skip"
	CardFavor           CardType = "favor"
	CardShuffle         CardType = "shuffle"
	CardSeeFuture       CardType = "see_future"
	CardNope            CardType = "nope"
	CardDefuse          CardType = "defuse"
	CardExplodingKitten CardType = "exploding_kitten"

	// Cat cards have no standalone effect; they exist to be matched in
	// pairs or triples for the steal protocol.
	CardTacocat     CardType = "tacocat"
	CardRainbowCat  CardType = "rainbow_cat"
	CardPotatoCat   CardType = "potato_cat"
	CardBeardCat    CardType = "beard_cat"
	CardCattermelon CardType = "cattermelon"
)

// IsCat reports whether the type is one of the five cat variants.
func (t CardType) IsCat() bool {
	switch t {
	case CardTacocat, CardRainbowCat, CardPotatoCat, CardBeardCat, CardCattermelon:
		return true
	}
	return false
}

// Card is immutable once created. A card is owned by exactly one of the draw
// pile, the discard pile, or a single player's hand; it moves between them by
// ownership transfer only.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Type  CardType  `json:"type"`
	IsCat bool      `json:"isCat"`
}

func newCard(t CardType) *Card {
	return &Card{ID: uuid.New(), Type: t, IsCat: t.IsCat()}
}

// baseComposition is the deck before exploding kittens and defuses are added
// for a specific player count.
var baseComposition = []struct {
	Type  CardType
	Count int
}{
	{CardAttack, 4},
	{CardSkip, 4},
	{CardFavor, 4},
	{CardShuffle, 4},
	{CardSeeFuture, 5},
	{CardNope, 5},
	{CardTacocat, 4},
	{CardRainbowCat, 4},
	{CardPotatoCat, 4},
	{CardBeardCat, 4},
	{CardCattermelon, 4},
}
