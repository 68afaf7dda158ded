// internal/game/player.go
package game

import "github.com/google/uuid"

// Player is the persistent identity inside one game. The Game owns the
// player list; transient connections are mapped onto players by the room
// manager, never stored here.
type Player struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Hand    []*Card   `json:"hand"`
	IsAlive bool      `json:"isAlive"`
	IsReady bool      `json:"isReady"`
}

// handIndex returns the position of the card with the given id, or -1.
func (p *Player) handIndex(cardID uuid.UUID) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// removeCard takes the card at index i out of the hand.
func (p *Player) removeCard(i int) *Card {
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return c
}

// removeFirstOfType pulls the first card of type t, optionally skipping a
// specific card id. Returns nil if none.
func (p *Player) removeFirstOfType(t CardType, skip uuid.UUID) *Card {
	for i, c := range p.Hand {
		if c.Type == t && c.ID != skip {
			return p.removeCard(i)
		}
	}
	return nil
}

// countOfType counts cards of type t in the hand.
func (p *Player) countOfType(t CardType) int {
	n := 0
	for _, c := range p.Hand {
		if c.Type == t {
			n++
		}
	}
	return n
}
