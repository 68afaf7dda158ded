// internal/game/state.go
package game

import "github.com/google/uuid"

// PlayerInfo is the public view of one player: name, liveness and hand size
// but never the hand itself.
type PlayerInfo struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	HandSize        int       `json:"handSize"`
	IsAlive         bool      `json:"isAlive"`
	IsCurrentPlayer bool      `json:"isCurrentPlayer"`
}

// NopeWindowInfo tells clients a nope window is open and who may not use it.
type NopeWindowInfo struct {
	Action          string    `json:"action"`
	ExcludePlayerID uuid.UUID `json:"excludePlayerId"`
	NopeCount       int       `json:"nopeCount"`
}

// View is the projection of game state sent to a single player. Everything
// in it is safe for that player to see: opponents appear as counts, the deck
// as its size, and only the viewer's own hand is included.
type View struct {
	RoomID         string          `json:"roomId"`
	GameState      State           `json:"gameState"`
	Players        []PlayerInfo    `json:"players"`
	CurrentPlayer  *uuid.UUID      `json:"currentPlayer,omitempty"`
	TurnsRemaining int             `json:"turnsRemaining"`
	DeckSize       int             `json:"deckSize"`
	TopDiscardCard *Card           `json:"topDiscardCard,omitempty"`
	PendingAction  *PendingAction  `json:"pendingAction,omitempty"`
	GameLog        []LogEntry      `json:"gameLog"`
	Winner         *PlayerInfo     `json:"winner,omitempty"`
	NopeWindow     *NopeWindowInfo `json:"nopeWindow,omitempty"`
	PlayerHand     []*Card         `json:"playerHand"`
	IsMyTurn       bool            `json:"isMyTurn"`
	CanPlayNope    bool            `json:"canPlayNope"`
}

// PlayerState builds the view for one player. Spectators (unknown IDs) get
// the same projection with an empty hand.
func (g *Game) PlayerState(playerID uuid.UUID) View {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := View{
		RoomID:         g.RoomID,
		GameState:      g.state,
		Players:        make([]PlayerInfo, 0, len(g.players)),
		TurnsRemaining: g.turnsRemaining,
		DeckSize:       g.deck.Remaining(),
		TopDiscardCard: g.deck.TopDiscard(),
		PendingAction:  g.pendingAction,
		PlayerHand:     []*Card{},
	}
	for i, p := range g.players {
		v.Players = append(v.Players, PlayerInfo{
			ID:              p.ID,
			Name:            p.Name,
			HandSize:        len(p.Hand),
			IsAlive:         p.IsAlive,
			IsCurrentPlayer: g.state == StatePlaying && i == g.currentPlayerIndex,
		})
	}
	if g.state == StatePlaying && len(g.players) > 0 {
		id := g.currentPlayer().ID
		v.CurrentPlayer = &id
		v.IsMyTurn = id == playerID
	}
	if g.winner != nil {
		v.Winner = &PlayerInfo{
			ID:       g.winner.ID,
			Name:     g.winner.Name,
			HandSize: len(g.winner.Hand),
			IsAlive:  g.winner.IsAlive,
		}
	}
	if g.nopeWindow != nil && !g.nopeWindow.resolved {
		v.NopeWindow = &NopeWindowInfo{
			Action:          g.nopeWindow.Action,
			ExcludePlayerID: g.nopeWindow.ExcludePlayerID,
			NopeCount:       g.nopeWindow.nopeCount,
		}
	}
	// The view is marshaled after the lock is released, so anything that the
	// game later mutates in place must be copied here.
	if p := g.playerByID(playerID); p != nil {
		v.PlayerHand = append([]*Card{}, p.Hand...)
		v.CanPlayNope = g.canPlayNope(playerID)
	}
	log := g.gameLog
	if n := len(log); n > logExpose {
		log = log[n-logExpose:]
	}
	v.GameLog = append([]LogEntry{}, log...)
	return v
}

// ---- accessors used by the room manager ----

// PlayerCount returns the number of seated players, alive or not.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// AliveCount returns the number of living players.
func (g *Game) AliveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aliveCount()
}

// CurrentState returns the lifecycle phase.
func (g *Game) CurrentState() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// HasPlayer reports whether playerID is seated in this game.
func (g *Game) HasPlayer(playerID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerByID(playerID) != nil
}

// PlayerName returns the display name for a seated player, or "".
func (g *Game) PlayerName(playerID uuid.UUID) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p := g.playerByID(playerID); p != nil {
		return p.Name
	}
	return ""
}

// LastActivity returns the timestamp of the newest log entry in unix
// milliseconds, or 0 for a silent game. Room retention uses it to expire
// finished games.
func (g *Game) LastActivity() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.gameLog) == 0 {
		return 0
	}
	return g.gameLog[len(g.gameLog)-1].Timestamp
}
