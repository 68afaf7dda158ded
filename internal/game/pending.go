// internal/game/pending.go
package game

import "github.com/google/uuid"

// PendingActionType tags the PendingAction variant.
type PendingActionType string

const (
	PendingFavor       PendingActionType = "favor"
	PendingPlaceKitten PendingActionType = "place_exploding_kitten"
)

// PendingAction is a sub-state awaiting a specific player's response before
// normal turn flow resumes. At most one is outstanding per game; new card
// plays are rejected while it is (Nope being the sole exception).
//
// Variants:
//   - favor: ToPlayer must surrender a card of their choice to FromPlayer.
//   - place_exploding_kitten: Player must choose a deck position for Card.
type PendingAction struct {
	Type       PendingActionType `json:"type"`
	FromPlayer uuid.UUID         `json:"fromPlayer,omitempty"`
	ToPlayer   uuid.UUID         `json:"toPlayer,omitempty"`
	Player     uuid.UUID         `json:"player,omitempty"`
	Card       *Card             `json:"card,omitempty"`
	Message    string            `json:"message"`
}

// Response carries a player's answer to a pending action: a card to give for
// favor, or a deck position for place_exploding_kitten.
type Response struct {
	CardID   *uuid.UUID `json:"cardId,omitempty"`
	Position *int       `json:"position,omitempty"`
}
