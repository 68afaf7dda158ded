// internal/game/nope.go
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NopeWindow is the pending, cancellable execution of an action. While it is
// open any living player except the actor may play a Nope; each Nope flips
// the outcome and re-arms the timer. When the timer finally elapses, even
// nope parity (including zero) executes the deferred action and odd parity
// cancels it.
//
// Resolution is a single idempotent transition guarded by the resolved flag,
// so a stale timer or a superseded window can never fire twice.
type NopeWindow struct {
	Action          string
	ExcludePlayerID uuid.UUID

	nopeCount int
	execute   func()
	timer     *time.Timer
	resolved  bool
}

// openNopeWindow discards nothing itself: callers remove and discard the
// played card(s) first, then defer the actual mutation into execute. Opening
// a new window supersedes and voids any prior one. Assumes the game lock is
// held.
func (g *Game) openNopeWindow(action string, excludePlayerID uuid.UUID, execute func()) {
	g.voidNopeWindow()

	w := &NopeWindow{
		Action:          action,
		ExcludePlayerID: excludePlayerID,
		execute:         execute,
	}
	g.nopeWindow = w
	w.timer = time.AfterFunc(g.nopeDuration, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.resolveNopeWindow(w)
	})

	g.fireEvent(Event{
		Type:    "nope-window-opened",
		Message: fmt.Sprintf("%s can be noped now", w.Action),
	})
}

// resolveNopeWindow closes w and, on even nope parity, runs the deferred
// action. A window that was superseded or already resolved is a no-op.
// Assumes the game lock is held.
func (g *Game) resolveNopeWindow(w *NopeWindow) {
	if w == nil || w.resolved || g.nopeWindow != w {
		return
	}
	w.resolved = true
	g.nopeWindow = nil

	if w.nopeCount%2 == 0 {
		w.execute()
		g.addLog(fmt.Sprintf("%s resolved (%d nopes played)", w.Action, w.nopeCount))
	} else {
		g.addLog(fmt.Sprintf("%s was noped and cancelled (%d nopes played)", w.Action, w.nopeCount))
	}
	g.fireEvent(Event{Type: w.Action + "-resolved"})
}

// voidNopeWindow cancels the open window, if any, without executing or
// logging: used when a new window supersedes it, on game end, and on room
// teardown. Assumes the game lock is held.
func (g *Game) voidNopeWindow() {
	w := g.nopeWindow
	if w == nil {
		return
	}
	w.resolved = true
	if w.timer != nil {
		w.timer.Stop()
	}
	g.nopeWindow = nil
}

// playNope handles a validated Nope play: the card is already out of the
// player's hand and discarded. Increments the chain count and re-arms the
// timer. Assumes the game lock is held.
func (g *Game) playNope(player *Player) *PlayResult {
	w := g.nopeWindow
	w.nopeCount++

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(g.nopeDuration, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.resolveNopeWindow(w)
	})

	willExecute := w.nopeCount%2 == 0
	var msg string
	if willExecute {
		msg = fmt.Sprintf("%s played Nope on the Nope! (Yup)", player.Name)
	} else {
		msg = fmt.Sprintf("%s played Nope! %s is currently cancelled.", player.Name, w.Action)
	}
	g.addLog(msg)
	g.fireEvent(Event{Type: "nope-played", Message: msg})

	return &PlayResult{
		Message:   msg,
		Action:    w.Action,
		NopeCount: w.nopeCount,
	}
}

// CanPlayNope reports whether playerID may nope the currently open window.
func (g *Game) CanPlayNope(playerID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canPlayNope(playerID)
}

// canPlayNope is CanPlayNope with the lock already held.
func (g *Game) canPlayNope(playerID uuid.UUID) bool {
	w := g.nopeWindow
	if w == nil || w.ExcludePlayerID == playerID {
		return false
	}
	p := g.playerByID(playerID)
	if p == nil || !p.IsAlive {
		return false
	}
	return p.countOfType(CardNope) > 0
}
