// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle phase of one game.
type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Player count limits per room.
const (
	MinPlayers = 2
	MaxPlayers = 5
)

const (
	// DefaultNopeDuration is the grace period during which a pending action
	// can be noped; each Nope play re-arms it.
	DefaultNopeDuration = 5 * time.Second

	logKeep   = 50
	logExpose = 10
)

// Event is a game-scoped notification pushed through BroadcastFn to every
// connection in the room.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// LogEntry is one line of the bounded game log.
type LogEntry struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// PlayOptions carries the optional extras of a card play.
type PlayOptions struct {
	NamedSteal bool     `json:"namedSteal,omitempty"`
	CardName   CardType `json:"cardName,omitempty"`
}

// PlayResult reports the outcome of a (multi-)card play back to the actor.
type PlayResult struct {
	Message          string  `json:"message"`
	Action           string  `json:"action,omitempty"`
	Nopeable         bool    `json:"nopeable,omitempty"`
	RequiresResponse bool    `json:"requiresResponse,omitempty"`
	TopCards         []*Card `json:"topCards,omitempty"`
	NopeCount        int     `json:"nopeCount,omitempty"`
}

// DrawResult reports the outcome of a draw to the drawing player only.
type DrawResult struct {
	Card             *Card `json:"card,omitempty"`
	Exploded         bool  `json:"exploded,omitempty"`
	Defused          bool  `json:"defused,omitempty"`
	GameEnded        bool  `json:"gameEnded,omitempty"`
	RequiresResponse bool  `json:"requiresResponse,omitempty"`
}

// Game holds the entire state for a single room: the deck, the players in
// turn order, the turn pointer, the pending sub-action, the open nope window
// and the bounded event log. All exported methods serialize on the internal
// mutex; commands for a room therefore execute strictly one at a time.
type Game struct {
	RoomID string

	mu                 sync.Mutex
	players            []*Player
	deck               *Deck
	currentPlayerIndex int
	turnsRemaining     int
	state              State
	pendingAction      *PendingAction
	nopeWindow         *NopeWindow
	gameLog            []LogEntry
	winner             *Player

	nopeDuration time.Duration
	logger       *logrus.Logger

	// BroadcastFn pushes events to every connection in the room. It is
	// invoked while the game lock is held and must not re-enter the game
	// synchronously; the room manager sends asynchronously.
	BroadcastFn func(ev Event)
}

// NewGame builds a waiting game for one room.
func NewGame(roomID string, nopeDuration time.Duration, logger *logrus.Logger) *Game {
	if nopeDuration <= 0 {
		nopeDuration = DefaultNopeDuration
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Game{
		RoomID:         roomID,
		deck:           NewDeck(),
		turnsRemaining: 1,
		state:          StateWaiting,
		nopeDuration:   nopeDuration,
		logger:         logger,
	}
}

// AddPlayer registers a persistent identity. Players join only while the
// game is waiting or finished, never mid-game.
func (g *Game) AddPlayer(playerID uuid.UUID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= MaxPlayers {
		return ErrGameFull
	}
	if g.state != StateWaiting && g.state != StateFinished {
		return ErrGameInProgress
	}
	if g.playerByID(playerID) != nil {
		return ErrPlayerExists
	}

	g.players = append(g.players, &Player{ID: playerID, Name: name, IsAlive: true})
	g.addLog(fmt.Sprintf("%s joined the game", name))
	return nil
}

// RemovePlayer drops a player. Mid-game the player is marked eliminated and
// kept in the rotation so turn index math stays valid; otherwise they are
// removed outright. Returns false if the player was not in the game.
func (g *Game) RemovePlayer(playerID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := -1
	for i, p := range g.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	g.addLog(fmt.Sprintf("%s left the game", g.players[idx].Name))
	if g.state == StatePlaying {
		g.players[idx].IsAlive = false
		if pa := g.pendingAction; pa != nil &&
			(pa.Player == playerID || pa.ToPlayer == playerID || pa.FromPlayer == playerID) {
			// Nobody is left to answer this action. An unplaced kitten goes
			// back into the deck at a random depth.
			if pa.Type == PendingPlaceKitten && pa.Card != nil {
				g.deck.insertRandom(pa.Card)
			}
			g.pendingAction = nil
		}
		if g.currentPlayerIndex == idx && g.aliveCount() > 0 {
			// Keep the turn pointer on a living player.
			g.turnsRemaining = 1
			g.endTurn()
		}
		g.checkGameEnd()
	} else {
		g.players = append(g.players[:idx], g.players[idx+1:]...)
		if g.currentPlayerIndex >= len(g.players) {
			g.currentPlayerIndex = 0
		}
	}
	return true
}

// Start moves waiting → playing: the deck is salted with defuses and
// exploding kittens for the player count, hands are dealt and the seating
// order is shuffled.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	if g.state != StateWaiting {
		return ErrGameStarted
	}

	g.deck.SetupForPlayers(len(g.players))
	hands := g.deck.DealInitialHands(len(g.players))
	for i, p := range g.players {
		p.Hand = hands[i]
		p.IsAlive = true
	}
	rand.Shuffle(len(g.players), func(i, j int) {
		g.players[i], g.players[j] = g.players[j], g.players[i]
	})
	g.currentPlayerIndex = 0
	g.turnsRemaining = 1
	g.state = StatePlaying

	g.addLog("Game started!")
	g.addLog(fmt.Sprintf("%s's turn", g.currentPlayer().Name))
	g.logger.WithFields(logrus.Fields{"room": g.RoomID, "players": len(g.players)}).Info("game started")
	return nil
}

// PlayCard is the single-card entry point. For Nope it requires an open
// window not owned by the caller; every other card requires the caller to be
// the current player with no pending action outstanding.
func (g *Game) PlayCard(playerID, cardID uuid.UUID, targetID uuid.UUID, opts *PlayOptions) (*PlayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePlaying {
		return nil, ErrGameNotInProgress
	}
	player := g.playerByID(playerID)
	if player == nil || !player.IsAlive {
		return nil, ErrPlayerNotFound
	}
	idx := player.handIndex(cardID)
	if idx == -1 {
		return nil, ErrCardNotFound
	}
	card := player.Hand[idx]

	if card.Type == CardNope {
		if g.nopeWindow == nil {
			return nil, ErrNoNopeWindow
		}
		if g.nopeWindow.ExcludePlayerID == playerID {
			return nil, ErrNopeOwnAction
		}
		g.deck.Discard(player.removeCard(idx))
		return g.playNope(player), nil
	}

	if g.currentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	if g.pendingAction != nil {
		return nil, ErrPendingResponse
	}

	res, err := g.executeCardAction(player, card, targetID, opts)
	if err != nil {
		return nil, err
	}
	g.addLog(fmt.Sprintf("%s played %s", player.Name, card.Type))
	return res, nil
}

// executeCardAction routes a single card. Action cards get their effect from
// the table below; everything else (cats, spares) goes through the matching
// cards protocol. Assumes the game lock is held.
func (g *Game) executeCardAction(player *Player, card *Card, targetID uuid.UUID, opts *PlayOptions) (*PlayResult, error) {
	switch card.Type {
	case CardSkip:
		g.discardFromHand(player, card)
		g.openNopeWindow("skip", player.ID, func() { g.endTurn() })
		return &PlayResult{Message: "Turn skipped", Action: "skip", Nopeable: true}, nil

	case CardAttack:
		g.discardFromHand(player, card)
		g.openNopeWindow("attack", player.ID, func() { g.resolveAttack() })
		return &PlayResult{Message: "Next player takes 2 turns", Action: "attack", Nopeable: true}, nil

	case CardSeeFuture:
		// Peeking is read-only, so the reveal happens immediately; the
		// window exists only so the play can be noped for show.
		top := g.deck.PeekTop(3)
		g.discardFromHand(player, card)
		g.openNopeWindow("see_future", player.ID, func() {})
		return &PlayResult{Message: "Saw the future", Action: "see_future", Nopeable: true, TopCards: top}, nil

	case CardShuffle:
		g.discardFromHand(player, card)
		g.openNopeWindow("shuffle", player.ID, func() { g.deck.Shuffle() })
		return &PlayResult{Message: "Deck shuffled", Action: "shuffle", Nopeable: true}, nil

	case CardFavor:
		target, err := g.validStealTarget(player, targetID)
		if err != nil {
			return nil, err
		}
		g.discardFromHand(player, card)
		g.openNopeWindow("favor", player.ID, func() {
			// Either side may have been eliminated, or the target's hand
			// emptied, while the window was open. Installing the pending
			// favor anyway would leave a request nobody can answer.
			if !player.IsAlive || !target.IsAlive || len(target.Hand) == 0 {
				g.addLog(fmt.Sprintf("%s's Favor fizzled, %s has nothing to give", player.Name, target.Name))
				return
			}
			g.pendingAction = &PendingAction{
				Type:       PendingFavor,
				FromPlayer: player.ID,
				ToPlayer:   target.ID,
				Message:    fmt.Sprintf("%s is asking for a card", player.Name),
			}
			g.addLog(fmt.Sprintf("%s played Favor targeting %s", player.Name, target.Name))
		})
		return &PlayResult{
			Message:          fmt.Sprintf("Asking %s for a card", target.Name),
			Action:           "favor",
			Nopeable:         true,
			RequiresResponse: true,
		}, nil

	default:
		return g.handleMatchingCards(player, card, targetID, opts)
	}
}

// handleMatchingCards implements the single-card entry into the steal
// protocol: a card with no standalone effect needs at least one duplicate in
// hand. Any type with enough copies may steal.
func (g *Game) handleMatchingCards(player *Player, card *Card, targetID uuid.UUID, opts *PlayOptions) (*PlayResult, error) {
	matching := player.countOfType(card.Type)
	if matching < 2 {
		if card.IsCat {
			return nil, ErrCatCardAlone
		}
		return nil, ErrUnplayableCard
	}

	target, err := g.validStealTarget(player, targetID)
	if err != nil {
		return nil, err
	}

	if matching >= 3 && opts != nil && opts.NamedSteal {
		set, err := g.collectMatching(player, card, 3)
		if err != nil {
			return nil, err
		}
		return g.beginNamedSteal(player, target, set, opts.CardName), nil
	}

	set, err := g.collectMatching(player, card, 2)
	if err != nil {
		return nil, err
	}
	return g.beginRandomSteal(player, target, set), nil
}

// PlayMultipleCards plays an explicit set of identical cards as a steal. A
// lone Nope in the set is routed to the normal Nope path.
func (g *Game) PlayMultipleCards(playerID uuid.UUID, cardIDs []uuid.UUID, primaryCardID, targetID uuid.UUID, opts *PlayOptions) (*PlayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePlaying {
		return nil, ErrGameNotInProgress
	}
	player := g.playerByID(playerID)
	if player == nil || !player.IsAlive {
		return nil, ErrPlayerNotFound
	}
	if len(cardIDs) == 0 {
		return nil, ErrCardNotFound
	}

	// A Nope played through the multi-card path behaves exactly like a
	// single-card Nope play.
	if first := g.cardInHand(player, cardIDs[0]); first != nil && first.Type == CardNope {
		if len(cardIDs) != 1 {
			return nil, ErrMixedCardTypes
		}
		if g.nopeWindow == nil {
			return nil, ErrNoNopeWindow
		}
		if g.nopeWindow.ExcludePlayerID == playerID {
			return nil, ErrNopeOwnAction
		}
		g.deck.Discard(player.removeCard(player.handIndex(first.ID)))
		return g.playNope(player), nil
	}

	if g.currentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	if g.pendingAction != nil {
		return nil, ErrPendingResponse
	}

	cards := make([]*Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		c := g.cardInHand(player, id)
		if c == nil {
			return nil, ErrCardNotFound
		}
		for _, prev := range cards {
			if prev.ID == id {
				return nil, ErrDuplicateCards
			}
		}
		cards = append(cards, c)
	}
	for _, c := range cards[1:] {
		if c.Type != cards[0].Type {
			return nil, ErrMixedCardTypes
		}
	}
	primaryFound := false
	for _, c := range cards {
		if c.ID == primaryCardID {
			primaryFound = true
			break
		}
	}
	if !primaryFound {
		return nil, ErrPrimaryNotInSet
	}
	if len(cards) < 2 {
		return nil, ErrNeedMatchingCards
	}
	if len(cards) > 3 {
		return nil, ErrTooManyCards
	}

	target, err := g.validStealTarget(player, targetID)
	if err != nil {
		return nil, err
	}

	for _, c := range cards {
		g.discardFromHand(player, c)
	}
	g.addLog(fmt.Sprintf("%s played %d %s cards", player.Name, len(cards), cards[0].Type))
	g.fireEvent(Event{
		Type:    "steal-attempt",
		Message: fmt.Sprintf("%s is attempting to play Steal on %s", player.Name, target.Name),
	})

	if len(cards) == 3 && opts != nil && opts.NamedSteal {
		return g.beginNamedStealSpent(player, target, opts.CardName), nil
	}
	if len(cards) == 3 {
		// Three matching cards without a named request fall back to a
		// random steal; the extra card buys nothing.
		g.addLog(fmt.Sprintf("%s spent a third %s for no extra effect", player.Name, cards[0].Type))
	}
	return g.beginRandomStealSpent(player, target), nil
}

// collectMatching removes count cards of card's type from the hand (card
// itself first) and discards them. Earlier checks guaranteed the copies
// exist; a miss here is an internal invariant violation and aborts before
// any steal happens.
func (g *Game) collectMatching(player *Player, card *Card, count int) ([]*Card, error) {
	need := count - 1
	extras := make([]*Card, 0, need)
	for i := 0; i < need; i++ {
		found := false
		for _, c := range player.Hand {
			if c.Type == card.Type && c.ID != card.ID {
				already := false
				for _, e := range extras {
					if e.ID == c.ID {
						already = true
						break
					}
				}
				if !already {
					extras = append(extras, c)
					found = true
					break
				}
			}
		}
		if !found {
			return nil, errMatchingCardMissing
		}
	}
	g.discardFromHand(player, card)
	for _, e := range extras {
		g.discardFromHand(player, e)
	}
	return append([]*Card{card}, extras...), nil
}

// beginRandomSteal discards set and opens the nopeable random steal.
func (g *Game) beginRandomSteal(player, target *Player, set []*Card) *PlayResult {
	g.addLog(fmt.Sprintf("%s is attempting a random steal from %s", player.Name, target.Name))
	return g.beginRandomStealSpent(player, target)
}

// beginRandomStealSpent opens the window once the played cards are already
// discarded. The actual transfer is deferred until the window resolves.
func (g *Game) beginRandomStealSpent(player, target *Player) *PlayResult {
	g.openNopeWindow("random_steal", player.ID, func() {
		if len(target.Hand) == 0 {
			g.addLog(fmt.Sprintf("%s had nothing left to steal from %s", player.Name, target.Name))
			return
		}
		stolen := target.removeCard(rand.Intn(len(target.Hand)))
		player.Hand = append(player.Hand, stolen)
		g.addLog(fmt.Sprintf("%s stole a random card from %s", player.Name, target.Name))
	})
	return &PlayResult{Message: "Random steal in progress", Action: "random_steal", Nopeable: true}
}

func (g *Game) beginNamedSteal(player, target *Player, set []*Card, cardName CardType) *PlayResult {
	g.addLog(fmt.Sprintf("%s is attempting to steal a %s from %s", player.Name, cardName, target.Name))
	return g.beginNamedStealSpent(player, target, cardName)
}

// beginNamedStealSpent opens the nopeable named steal. The cards are spent
// whether or not the target turns out to hold the requested type.
func (g *Game) beginNamedStealSpent(player, target *Player, cardName CardType) *PlayResult {
	g.openNopeWindow("named_steal", player.ID, func() {
		stolen := target.removeFirstOfType(cardName, uuid.Nil)
		if stolen == nil {
			g.addLog(fmt.Sprintf("%s tried to steal %s from %s but they don't have it", player.Name, cardName, target.Name))
			return
		}
		player.Hand = append(player.Hand, stolen)
		g.addLog(fmt.Sprintf("%s stole %s from %s", player.Name, stolen.Type, target.Name))
	})
	return &PlayResult{Message: "Named steal in progress", Action: "named_steal", Nopeable: true}
}

// DrawCard draws for the current player and ends their turn, unless the card
// is an exploding kitten, in which case the defuse/explode flow runs.
func (g *Game) DrawCard(playerID uuid.UUID) (*DrawResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePlaying {
		return nil, ErrGameNotInProgress
	}
	player := g.playerByID(playerID)
	if player == nil || !player.IsAlive {
		return nil, ErrPlayerNotFound
	}
	if g.currentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	if g.pendingAction != nil {
		return nil, ErrPendingResponse
	}
	// A deferred action could still end this turn; no drawing past it.
	if g.nopeWindow != nil {
		return nil, ErrPendingResponse
	}

	card := g.deck.Draw()
	if card == nil {
		return nil, ErrDeckEmpty
	}

	if card.Type != CardExplodingKitten {
		player.Hand = append(player.Hand, card)
		g.endTurn()
		return &DrawResult{Card: card}, nil
	}

	if defuse := player.removeFirstOfType(CardDefuse, uuid.Nil); defuse != nil {
		g.deck.Discard(defuse)
		g.pendingAction = &PendingAction{
			Type:    PendingPlaceKitten,
			Player:  player.ID,
			Card:    card,
			Message: "Choose where to place the Exploding Kitten in the deck",
		}
		g.addLog(fmt.Sprintf("%s defused an Exploding Kitten!", player.Name))
		return &DrawResult{Card: card, Defused: true, RequiresResponse: true}, nil
	}

	player.IsAlive = false
	// Any turns the dead player still owed die with them.
	g.turnsRemaining = 1
	g.addLog(fmt.Sprintf("%s exploded!", player.Name))
	if g.aliveCount() > 1 {
		// The eliminated player still places the kitten back so the deck
		// keeps its remaining kittens for the survivors.
		g.pendingAction = &PendingAction{
			Type:    PendingPlaceKitten,
			Player:  player.ID,
			Card:    card,
			Message: "Choose where to place the Exploding Kitten in the deck",
		}
		return &DrawResult{Exploded: true, RequiresResponse: true}, nil
	}
	ended := g.checkGameEnd()
	return &DrawResult{Exploded: true, GameEnded: ended}, nil
}

// RespondToPendingAction resolves the outstanding sub-action. Only the
// designated player may respond; validation failures leave the action
// pending.
func (g *Game) RespondToPendingAction(playerID uuid.UUID, resp Response) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pa := g.pendingAction
	if pa == nil {
		return ErrNoPendingAction
	}

	switch pa.Type {
	case PendingFavor:
		if playerID != pa.ToPlayer {
			return ErrNotYourAction
		}
		giver := g.playerByID(playerID)
		receiver := g.playerByID(pa.FromPlayer)
		if giver == nil || receiver == nil {
			g.pendingAction = nil
			return ErrPlayerNotFound
		}
		if resp.CardID == nil {
			return ErrCardNotFound
		}
		idx := giver.handIndex(*resp.CardID)
		if idx == -1 {
			return ErrCardNotFound
		}
		card := giver.removeCard(idx)
		receiver.Hand = append(receiver.Hand, card)
		g.pendingAction = nil
		g.addLog(fmt.Sprintf("%s gave a card to %s", giver.Name, receiver.Name))
		return nil

	case PendingPlaceKitten:
		if playerID != pa.Player {
			return ErrNotYourAction
		}
		position := 0
		if resp.Position != nil {
			position = *resp.Position
		}
		g.deck.Insert(pa.Card, position)
		g.pendingAction = nil
		g.endTurn()
		g.checkGameEnd()
		g.addLog("Exploding Kitten placed back in the deck")
		return nil

	default:
		return ErrNoPendingAction
	}
}

// Reset moves finished → waiting: fresh deck, cleared hands and log, all
// players revived for the next round.
func (g *Game) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateFinished {
		return ErrGameNotFinished
	}

	g.voidNopeWindow()
	g.state = StateWaiting
	g.currentPlayerIndex = 0
	g.turnsRemaining = 1
	g.pendingAction = nil
	g.winner = nil
	for _, p := range g.players {
		p.Hand = nil
		p.IsAlive = true
		p.IsReady = false
	}
	g.deck = NewDeck()
	g.gameLog = nil
	g.addLog("Game has been reset - waiting for players to start a new game")
	return nil
}

// Close cancels outstanding timers. Called when the room is destroyed so no
// deferred action can execute against freed state.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voidNopeWindow()
}

// ---- internal turn machinery (lock held) ----

func (g *Game) currentPlayer() *Player {
	return g.players[g.currentPlayerIndex]
}

func (g *Game) playerByID(id uuid.UUID) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) cardInHand(p *Player, cardID uuid.UUID) *Card {
	if idx := p.handIndex(cardID); idx != -1 {
		return p.Hand[idx]
	}
	return nil
}

// discardFromHand moves one specific card from the hand to the discard pile.
func (g *Game) discardFromHand(p *Player, card *Card) {
	if idx := p.handIndex(card.ID); idx != -1 {
		g.deck.Discard(p.removeCard(idx))
	}
}

// validStealTarget validates the target of a favor or steal: alive, not the
// actor, holding at least one card.
func (g *Game) validStealTarget(actor *Player, targetID uuid.UUID) (*Player, error) {
	if targetID == uuid.Nil {
		return nil, ErrNoTarget
	}
	target := g.playerByID(targetID)
	if target == nil || !target.IsAlive || target.ID == actor.ID {
		return nil, ErrInvalidTarget
	}
	if len(target.Hand) == 0 {
		return nil, ErrTargetNoCards
	}
	return target, nil
}

// endTurn consumes one of the current player's remaining turns and, at zero,
// advances to the next living player.
func (g *Game) endTurn() {
	g.turnsRemaining--
	if g.turnsRemaining > 0 {
		return
	}
	g.advanceToNextAlive()
	g.turnsRemaining = 1
	g.addLog(fmt.Sprintf("%s's turn", g.currentPlayer().Name))
}

// resolveAttack always passes the turn: the next living player gets two
// turns, or the attacker's unspent turns plus two when attacks stack.
func (g *Game) resolveAttack() {
	carried := g.turnsRemaining
	g.advanceToNextAlive()
	if carried > 1 {
		g.turnsRemaining = carried + 2
	} else {
		g.turnsRemaining = 2
	}
	g.addLog(fmt.Sprintf("%s's turn (%d turns)", g.currentPlayer().Name, g.turnsRemaining))
}

func (g *Game) advanceToNextAlive() {
	for {
		g.currentPlayerIndex = (g.currentPlayerIndex + 1) % len(g.players)
		if g.currentPlayer().IsAlive {
			return
		}
	}
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if p.IsAlive {
			n++
		}
	}
	return n
}

// checkGameEnd transitions playing → finished once at most one player lives.
func (g *Game) checkGameEnd() bool {
	if g.state != StatePlaying {
		return g.state == StateFinished
	}
	if g.aliveCount() > 1 {
		return false
	}
	g.state = StateFinished
	g.voidNopeWindow()
	g.pendingAction = nil
	g.winner = nil
	for _, p := range g.players {
		if p.IsAlive {
			g.winner = p
			break
		}
	}
	if g.winner != nil {
		g.addLog(fmt.Sprintf("%s wins!", g.winner.Name))
	} else {
		g.addLog("Game ended with no winner")
	}
	g.logger.WithField("room", g.RoomID).Info("game finished")
	return true
}

func (g *Game) addLog(message string) {
	g.gameLog = append(g.gameLog, LogEntry{Timestamp: time.Now().UnixMilli(), Message: message})
	if len(g.gameLog) > logKeep {
		g.gameLog = g.gameLog[len(g.gameLog)-logKeep:]
	}
}

func (g *Game) fireEvent(ev Event) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}
