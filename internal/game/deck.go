// internal/game/deck.go
package game

import "math/rand"

// Deck holds the draw pile and the discard pile for one game. The tail of the
// cards slice is the top of the draw pile; Draw pops from the tail.
//
// Deck is not safe for concurrent use; the owning Game serializes access.
type Deck struct {
	cards   []*Card
	discard []*Card
}

// NewDeck builds a shuffled deck with the base composition. Exploding kittens
// and defuse cards are added later by SetupForPlayers.
func NewDeck() *Deck {
	d := &Deck{}
	for _, c := range baseComposition {
		for i := 0; i < c.Count; i++ {
			d.cards = append(d.cards, newCard(c.Type))
		}
	}
	d.Shuffle()
	return d
}

// Shuffle uniformly permutes the draw pile.
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw pops the top card. If the draw pile is exhausted, the discard pile is
// reshuffled into it first. Returns nil only when both piles are empty.
func (d *Deck) Draw() *Card {
	if len(d.cards) == 0 {
		if len(d.discard) == 0 {
			return nil
		}
		d.cards = append(d.cards, d.discard...)
		d.discard = nil
		d.Shuffle()
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card
}

// DrawMany draws up to n cards, stopping early once both piles run out.
func (d *Deck) DrawMany(n int) []*Card {
	drawn := make([]*Card, 0, n)
	for i := 0; i < n; i++ {
		card := d.Draw()
		if card == nil {
			break
		}
		drawn = append(drawn, card)
	}
	return drawn
}

// PeekTop returns the top n cards, topmost first, without removing them.
func (d *Deck) PeekTop(n int) []*Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	top := make([]*Card, 0, n)
	for i := len(d.cards) - 1; i >= len(d.cards)-n; i-- {
		top = append(top, d.cards[i])
	}
	return top
}

// Insert places card at an arbitrary index in the draw pile (0 is the
// bottom, since Draw pops from the tail). Out-of-range positions clamp to an
// append, which puts the card on top.
func (d *Deck) Insert(card *Card, position int) {
	if position < 0 || position >= len(d.cards) {
		d.cards = append(d.cards, card)
		return
	}
	d.cards = append(d.cards, nil)
	copy(d.cards[position+1:], d.cards[position:])
	d.cards[position] = card
}

// insertRandom puts card at a uniformly random depth.
func (d *Deck) insertRandom(card *Card) {
	d.Insert(card, rand.Intn(len(d.cards)+1))
}

// Discard moves a card onto the discard pile.
func (d *Deck) Discard(card *Card) {
	d.discard = append(d.discard, card)
}

// TopDiscard returns the most recently discarded card, or nil.
func (d *Deck) TopDiscard() *Card {
	if len(d.discard) == 0 {
		return nil
	}
	return d.discard[len(d.discard)-1]
}

// Remaining is the number of cards left in the draw pile.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// DiscardCount is the size of the discard pile.
func (d *Deck) DiscardCount() int {
	return len(d.discard)
}

// SetupForPlayers strips any exploding kittens and defuse cards, then adds
// playerCount+2 defuses and playerCount-1 exploding kittens and reshuffles.
// With n-1 kittens in play the game is guaranteed to end by elimination.
func (d *Deck) SetupForPlayers(playerCount int) {
	kept := d.cards[:0]
	for _, c := range d.cards {
		if c.Type != CardExplodingKitten && c.Type != CardDefuse {
			kept = append(kept, c)
		}
	}
	d.cards = kept
	for i := 0; i < playerCount+2; i++ {
		d.cards = append(d.cards, newCard(CardDefuse))
	}
	for i := 0; i < playerCount-1; i++ {
		d.cards = append(d.cards, newCard(CardExplodingKitten))
	}
	d.Shuffle()
}

// DealInitialHands deals each player 4 non-exploding-kitten cards plus one
// defuse. Any exploding kitten drawn during the deal goes back into the deck
// at a random depth so nobody starts holding one. The remaining draw pile is
// left shuffled.
func (d *Deck) DealInitialHands(playerCount int) [][]*Card {
	hands := make([][]*Card, playerCount)
	for i := 0; i < playerCount; i++ {
		hand := make([]*Card, 0, 5)
		for len(hand) < 4 && len(d.cards) > 0 {
			card := d.Draw()
			if card == nil {
				break
			}
			if card.Type == CardExplodingKitten {
				d.insertRandom(card)
				continue
			}
			hand = append(hand, card)
		}
		if defuse := d.removeFirstOfType(CardDefuse); defuse != nil {
			hand = append(hand, defuse)
		}
		hands[i] = hand
	}
	d.Shuffle()
	return hands
}

// removeFirstOfType pulls the first card of the given type out of the draw
// pile, searching from the bottom.
func (d *Deck) removeFirstOfType(t CardType) *Card {
	for i, c := range d.cards {
		if c.Type == t {
			d.cards = append(d.cards[:i], d.cards[i+1:]...)
			return c
		}
	}
	return nil
}
