// internal/game/game_test.go
package game

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNopeDuration = 20 * time.Millisecond

// settleWindows sleeps long enough for any open nope window to resolve.
func settleWindows() {
	time.Sleep(testNopeDuration * 4)
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockBroadcaster) fn(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockBroadcaster) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

func setupTestGame(t *testing.T, playerCount int) (*Game, []uuid.UUID, *mockBroadcaster) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	g := NewGame("TEST01", testNopeDuration, logger)
	mb := &mockBroadcaster{}
	g.BroadcastFn = mb.fn

	ids := make([]uuid.UUID, playerCount)
	for i := 0; i < playerCount; i++ {
		ids[i] = uuid.New()
		require.NoError(t, g.AddPlayer(ids[i], "player"+string(rune('A'+i))))
	}
	require.NoError(t, g.Start())
	t.Cleanup(g.Close)
	return g, ids, mb
}

func currentID(g *Game) uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentPlayer().ID
}

func otherID(g *Game, not uuid.UUID) uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if p.ID != not && p.IsAlive {
			return p.ID
		}
	}
	return uuid.Nil
}

// giveCards puts freshly minted cards of the given type into a hand.
func giveCards(g *Game, playerID uuid.UUID, t CardType, n int) []*Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.playerByID(playerID)
	out := make([]*Card, 0, n)
	for i := 0; i < n; i++ {
		c := newCard(t)
		p.Hand = append(p.Hand, c)
		out = append(out, c)
	}
	return out
}

// dropCards empties a hand of every card of the given type.
func dropCards(g *Game, playerID uuid.UUID, t CardType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.playerByID(playerID)
	kept := p.Hand[:0]
	for _, c := range p.Hand {
		if c.Type != t {
			kept = append(kept, c)
		}
	}
	p.Hand = kept
}

// stackDeckTop pushes a card so the next draw returns it.
func stackDeckTop(g *Game, c *Card) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deck.cards = append(g.deck.cards, c)
}

// totalCards counts every card in play: draw pile, discard, hands and any
// kitten parked in a pending placement.
func totalCards(g *Game) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.deck.Remaining() + g.deck.DiscardCount()
	for _, p := range g.players {
		n += len(p.Hand)
	}
	if g.pendingAction != nil && g.pendingAction.Card != nil {
		n++
	}
	return n
}

func TestAddPlayerLimits(t *testing.T) {
	g := NewGame("TEST01", testNopeDuration, nil)
	ids := make([]uuid.UUID, 0, MaxPlayers)
	for i := 0; i < MaxPlayers; i++ {
		id := uuid.New()
		ids = append(ids, id)
		require.NoError(t, g.AddPlayer(id, "p"))
	}
	assert.ErrorIs(t, g.AddPlayer(uuid.New(), "overflow"), ErrGameFull)
	assert.ErrorIs(t, g.AddPlayer(ids[0], "dup"), ErrPlayerExists)

	require.NoError(t, g.Start())
	g.RemovePlayer(ids[0])
	assert.ErrorIs(t, g.AddPlayer(uuid.New(), "late"), ErrGameInProgress)
	g.Close()
}

func TestStartRequiresMinPlayers(t *testing.T) {
	g := NewGame("TEST01", testNopeDuration, nil)
	require.NoError(t, g.AddPlayer(uuid.New(), "solo"))
	assert.ErrorIs(t, g.Start(), ErrNotEnoughPlayers)
}

func TestStartDealsHands(t *testing.T) {
	g, ids, _ := setupTestGame(t, 3)
	assert.Equal(t, StatePlaying, g.CurrentState())
	assert.ErrorIs(t, g.Start(), ErrGameStarted)
	for _, id := range ids {
		v := g.PlayerState(id)
		assert.Len(t, v.PlayerHand, 5)
		defuses := 0
		for _, c := range v.PlayerHand {
			if c.Type == CardDefuse {
				defuses++
			}
			assert.NotEqual(t, CardExplodingKitten, c.Type)
		}
		assert.Equal(t, 1, defuses)
	}
}

func TestPlayOutOfTurn(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	other := otherID(g, cur)
	card := giveCards(g, other, CardSkip, 1)[0]
	_, err := g.PlayCard(other, card.ID, uuid.Nil, nil)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestSkipEndsTurn(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	before := totalCards(g)
	cur := currentID(g)
	card := giveCards(g, cur, CardSkip, 1)[0]

	res, err := g.PlayCard(cur, card.ID, uuid.Nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Nopeable)
	assert.Equal(t, cur, currentID(g), "turn passes only when the window closes")

	settleWindows()
	assert.NotEqual(t, cur, currentID(g))
	assert.Equal(t, before, totalCards(g))
}

func TestNopeCancelsSkip(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	other := otherID(g, cur)
	skip := giveCards(g, cur, CardSkip, 1)[0]
	nope := giveCards(g, other, CardNope, 1)[0]

	_, err := g.PlayCard(cur, skip.ID, uuid.Nil, nil)
	require.NoError(t, err)
	res, err := g.PlayCard(other, nope.ID, uuid.Nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NopeCount)

	settleWindows()
	assert.Equal(t, cur, currentID(g), "odd nope count cancels the action")
}

func TestDoubleNopeRestoresAction(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	other := otherID(g, cur)
	skip := giveCards(g, cur, CardSkip, 1)[0]
	nope1 := giveCards(g, other, CardNope, 1)[0]
	nope2 := giveCards(g, cur, CardNope, 1)[0]

	_, err := g.PlayCard(cur, skip.ID, uuid.Nil, nil)
	require.NoError(t, err)
	_, err = g.PlayCard(other, nope1.ID, uuid.Nil, nil)
	require.NoError(t, err)
	// The original actor yo-yos the nope back.
	_, err = g.PlayCard(cur, nope2.ID, uuid.Nil, nil)
	require.NoError(t, err)

	settleWindows()
	assert.NotEqual(t, cur, currentID(g), "even nope count lets the action execute")
}

func TestNopeRules(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	other := otherID(g, cur)

	nope := giveCards(g, other, CardNope, 1)[0]
	_, err := g.PlayCard(other, nope.ID, uuid.Nil, nil)
	assert.ErrorIs(t, err, ErrNoNopeWindow)

	skip := giveCards(g, cur, CardSkip, 1)[0]
	ownNope := giveCards(g, cur, CardNope, 1)[0]
	_, err = g.PlayCard(cur, skip.ID, uuid.Nil, nil)
	require.NoError(t, err)
	_, err = g.PlayCard(cur, ownNope.ID, uuid.Nil, nil)
	assert.ErrorIs(t, err, ErrNopeOwnAction)
	settleWindows()
}

func TestAttackGivesTwoTurns(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	attack := giveCards(g, cur, CardAttack, 1)[0]

	_, err := g.PlayCard(cur, attack.ID, uuid.Nil, nil)
	require.NoError(t, err)
	settleWindows()

	next := currentID(g)
	assert.NotEqual(t, cur, next)
	v := g.PlayerState(next)
	assert.Equal(t, 2, v.TurnsRemaining)

	// First draw consumes one of the stacked turns, not the whole turn.
	stackDeckTop(g, newCard(CardSkip))
	_, err = g.DrawCard(next)
	require.NoError(t, err)
	assert.Equal(t, next, currentID(g))
	assert.Equal(t, 1, g.PlayerState(next).TurnsRemaining)
}

func TestAttackStacks(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	first := currentID(g)
	a1 := giveCards(g, first, CardAttack, 1)[0]
	_, err := g.PlayCard(first, a1.ID, uuid.Nil, nil)
	require.NoError(t, err)
	settleWindows()

	second := currentID(g)
	require.Equal(t, 2, g.PlayerState(second).TurnsRemaining)
	a2 := giveCards(g, second, CardAttack, 1)[0]
	_, err = g.PlayCard(second, a2.ID, uuid.Nil, nil)
	require.NoError(t, err)
	settleWindows()

	// Attacking while owing 2 turns passes 2+2 to the victim.
	assert.Equal(t, first, currentID(g))
	assert.Equal(t, 4, g.PlayerState(first).TurnsRemaining)
}

func TestSeeFutureRevealsTop(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	card := giveCards(g, cur, CardSeeFuture, 1)[0]

	res, err := g.PlayCard(cur, card.ID, uuid.Nil, nil)
	require.NoError(t, err)
	require.Len(t, res.TopCards, 3)

	// The peek matches the next draw order for this player's turn.
	top := res.TopCards[0]
	settleWindows()
	dr, err := g.DrawCard(cur)
	require.NoError(t, err)
	assert.Equal(t, top.ID, dr.Card.ID)
}

func TestFavorFlow(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	before := totalCards(g)
	cur := currentID(g)
	target := otherID(g, cur)
	favor := giveCards(g, cur, CardFavor, 1)[0]

	res, err := g.PlayCard(cur, favor.ID, target, nil)
	require.NoError(t, err)
	assert.True(t, res.RequiresResponse)
	settleWindows()

	v := g.PlayerState(target)
	require.NotNil(t, v.PendingAction)
	assert.Equal(t, PendingFavor, v.PendingAction.Type)

	// The actor cannot draw past an unresolved favor.
	_, err = g.DrawCard(cur)
	assert.ErrorIs(t, err, ErrPendingResponse)

	// Only the favored player may respond, and only with a card they hold.
	give := v.PlayerHand[0].ID
	assert.ErrorIs(t, g.RespondToPendingAction(cur, Response{CardID: &give}), ErrNotYourAction)
	bogus := uuid.New()
	assert.ErrorIs(t, g.RespondToPendingAction(target, Response{CardID: &bogus}), ErrCardNotFound)
	require.NoError(t, g.RespondToPendingAction(target, Response{CardID: &give}))

	assert.Nil(t, g.PlayerState(cur).PendingAction)
	assert.Equal(t, before, totalCards(g))
}

func TestFavorRequiresTarget(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	favor := giveCards(g, cur, CardFavor, 1)[0]
	_, err := g.PlayCard(cur, favor.ID, uuid.Nil, nil)
	assert.ErrorIs(t, err, ErrNoTarget)
	_, err = g.PlayCard(cur, favor.ID, cur, nil)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCatCardAloneRejected(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardTacocat)
	cat := giveCards(g, cur, CardTacocat, 1)[0]
	_, err := g.PlayCard(cur, cat.ID, target, nil)
	assert.ErrorIs(t, err, ErrCatCardAlone)
}

func TestRandomStealWithPair(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	before := totalCards(g)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardTacocat)
	cats := giveCards(g, cur, CardTacocat, 2)

	targetBefore := len(g.PlayerState(target).PlayerHand)
	curBefore := len(g.PlayerState(cur).PlayerHand)

	res, err := g.PlayMultipleCards(cur, []uuid.UUID{cats[0].ID, cats[1].ID}, cats[0].ID, target, nil)
	require.NoError(t, err)
	assert.True(t, res.Nopeable)
	settleWindows()

	assert.Equal(t, targetBefore-1, len(g.PlayerState(target).PlayerHand))
	assert.Equal(t, curBefore-1, len(g.PlayerState(cur).PlayerHand), "spent 2, gained 1")
	assert.Equal(t, before, totalCards(g))
}

func TestNamedStealWithTriple(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardTacocat)
	cats := giveCards(g, cur, CardTacocat, 3)
	dropCards(g, target, CardShuffle)
	wanted := giveCards(g, target, CardShuffle, 1)[0]

	ids := []uuid.UUID{cats[0].ID, cats[1].ID, cats[2].ID}
	_, err := g.PlayMultipleCards(cur, ids, cats[0].ID, target, &PlayOptions{NamedSteal: true, CardName: CardShuffle})
	require.NoError(t, err)
	settleWindows()

	hand := g.PlayerState(cur).PlayerHand
	found := false
	for _, c := range hand {
		if c.ID == wanted.ID {
			found = true
		}
	}
	assert.True(t, found, "requested card transfers to the actor")
}

func TestNamedStealMissesConsumeCards(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardTacocat)
	cats := giveCards(g, cur, CardTacocat, 3)
	dropCards(g, target, CardShuffle)

	curBefore := len(g.PlayerState(cur).PlayerHand)
	ids := []uuid.UUID{cats[0].ID, cats[1].ID, cats[2].ID}
	_, err := g.PlayMultipleCards(cur, ids, cats[0].ID, target, &PlayOptions{NamedSteal: true, CardName: CardShuffle})
	require.NoError(t, err)
	settleWindows()

	assert.Equal(t, curBefore-3, len(g.PlayerState(cur).PlayerHand), "whiffed steal still spends all three cards")
}

func TestPlayMultipleValidation(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardTacocat)
	dropCards(g, cur, CardPotatoCat)
	cats := giveCards(g, cur, CardTacocat, 2)
	spud := giveCards(g, cur, CardPotatoCat, 1)[0]

	_, err := g.PlayMultipleCards(cur, []uuid.UUID{cats[0].ID, spud.ID}, cats[0].ID, target, nil)
	assert.ErrorIs(t, err, ErrMixedCardTypes)

	_, err = g.PlayMultipleCards(cur, []uuid.UUID{cats[0].ID}, cats[0].ID, target, nil)
	assert.ErrorIs(t, err, ErrNeedMatchingCards)

	_, err = g.PlayMultipleCards(cur, []uuid.UUID{cats[0].ID, cats[1].ID}, spud.ID, target, nil)
	assert.ErrorIs(t, err, ErrPrimaryNotInSet)

	four := giveCards(g, cur, CardTacocat, 2)
	_, err = g.PlayMultipleCards(cur,
		[]uuid.UUID{cats[0].ID, cats[1].ID, four[0].ID, four[1].ID}, cats[0].ID, target, nil)
	assert.ErrorIs(t, err, ErrTooManyCards)
}

func TestPlayingSameCardTwiceRejected(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardTacocat)
	cat := giveCards(g, cur, CardTacocat, 1)[0]

	curBefore := len(g.PlayerState(cur).PlayerHand)
	targetBefore := len(g.PlayerState(target).PlayerHand)
	before := totalCards(g)

	_, err := g.PlayMultipleCards(cur, []uuid.UUID{cat.ID, cat.ID}, cat.ID, target, nil)
	assert.ErrorIs(t, err, ErrDuplicateCards, "one card listed twice is not a pair")
	settleWindows()

	assert.Equal(t, curBefore, len(g.PlayerState(cur).PlayerHand))
	assert.Equal(t, targetBefore, len(g.PlayerState(target).PlayerHand))
	assert.Equal(t, before, totalCards(g))
}

func TestStealPairOfNonCatCards(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardSkip)
	skips := giveCards(g, cur, CardSkip, 2)

	targetBefore := len(g.PlayerState(target).PlayerHand)

	res, err := g.PlayMultipleCards(cur, []uuid.UUID{skips[0].ID, skips[1].ID}, skips[0].ID, target, nil)
	require.NoError(t, err, "any matching pair steals, not just cat cards")
	assert.Equal(t, "random_steal", res.Action)
	settleWindows()

	assert.Equal(t, targetBefore-1, len(g.PlayerState(target).PlayerHand))
	assert.Equal(t, cur, currentID(g), "a pair steal does not end the turn")
}

func TestStealRejectedWhenTargetHandEmpty(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	target := otherID(g, cur)
	dropCards(g, cur, CardSkip)
	skips := giveCards(g, cur, CardSkip, 2)

	g.mu.Lock()
	g.playerByID(target).Hand = nil
	discardBefore := g.deck.DiscardCount()
	g.mu.Unlock()
	curBefore := len(g.PlayerState(cur).PlayerHand)

	_, err := g.PlayMultipleCards(cur, []uuid.UUID{skips[0].ID, skips[1].ID}, skips[0].ID, target, nil)
	assert.ErrorIs(t, err, ErrTargetNoCards)
	settleWindows()

	assert.Equal(t, curBefore, len(g.PlayerState(cur).PlayerHand), "rejected play spends nothing")
	assert.Empty(t, g.PlayerState(target).PlayerHand)
	g.mu.Lock()
	assert.Equal(t, discardBefore, g.deck.DiscardCount())
	g.mu.Unlock()
}

func TestDrawDefuseFlow(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	before := totalCards(g)
	cur := currentID(g)
	kitten := newCard(CardExplodingKitten)
	stackDeckTop(g, kitten)

	res, err := g.DrawCard(cur)
	require.NoError(t, err)
	assert.True(t, res.Defused)
	assert.True(t, res.RequiresResponse)
	assert.Equal(t, cur, currentID(g), "turn holds until the kitten is placed")

	pos := 0
	require.NoError(t, g.RespondToPendingAction(cur, Response{Position: &pos}))
	assert.NotEqual(t, cur, currentID(g))
	assert.Equal(t, before+1, totalCards(g), "only the stacked kitten was added")

	v := g.PlayerState(cur)
	for _, c := range v.PlayerHand {
		assert.NotEqual(t, CardDefuse, c.Type, "defuse is spent")
	}
}

func TestDrawExplodeEndsTwoPlayerGame(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	survivor := otherID(g, cur)
	dropCards(g, cur, CardDefuse)
	stackDeckTop(g, newCard(CardExplodingKitten))

	res, err := g.DrawCard(cur)
	require.NoError(t, err)
	assert.True(t, res.Exploded)
	assert.True(t, res.GameEnded)
	assert.Equal(t, StateFinished, g.CurrentState())

	v := g.PlayerState(survivor)
	require.NotNil(t, v.Winner)
	assert.Equal(t, survivor, v.Winner.ID)
}

func TestExplodedPlayerPlacesKitten(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)
	before := totalCards(g)
	cur := currentID(g)
	dropCards(g, cur, CardDefuse)
	stackDeckTop(g, newCard(CardExplodingKitten))

	res, err := g.DrawCard(cur)
	require.NoError(t, err)
	assert.True(t, res.Exploded)
	assert.True(t, res.RequiresResponse)
	assert.Equal(t, StatePlaying, g.CurrentState())

	pos := 2
	require.NoError(t, g.RespondToPendingAction(cur, Response{Position: &pos}))
	assert.NotEqual(t, cur, currentID(g))
	assert.Equal(t, 2, g.AliveCount())
	assert.Equal(t, before+1, totalCards(g), "kitten returns to the deck")
}

func TestDeckExhaustion(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	g.mu.Lock()
	g.deck.cards = nil
	g.deck.discard = nil
	g.mu.Unlock()

	_, err := g.DrawCard(currentID(g))
	assert.ErrorIs(t, err, ErrDeckEmpty)
	assert.Equal(t, StatePlaying, g.CurrentState(), "exhaustion never ends the game")
}

func TestResetAfterFinish(t *testing.T) {
	g, ids, _ := setupTestGame(t, 2)
	assert.ErrorIs(t, g.Reset(), ErrGameNotFinished)

	cur := currentID(g)
	dropCards(g, cur, CardDefuse)
	stackDeckTop(g, newCard(CardExplodingKitten))
	_, err := g.DrawCard(cur)
	require.NoError(t, err)
	require.Equal(t, StateFinished, g.CurrentState())

	require.NoError(t, g.Reset())
	assert.Equal(t, StateWaiting, g.CurrentState())
	for _, id := range ids {
		v := g.PlayerState(id)
		assert.Empty(t, v.PlayerHand)
	}
	assert.Equal(t, 2, g.AliveCount())
	require.NoError(t, g.Start())
	g.Close()
}

func TestRemovePlayerMidGame(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)
	cur := currentID(g)
	require.True(t, g.RemovePlayer(cur))
	assert.Equal(t, 3, g.PlayerCount(), "seat stays, player is eliminated")
	assert.Equal(t, 2, g.AliveCount())
	assert.NotEqual(t, cur, currentID(g))
	assert.False(t, g.RemovePlayer(uuid.New()))
}

func TestRemovePlayerEndsGame(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	survivor := otherID(g, cur)
	require.True(t, g.RemovePlayer(cur))
	assert.Equal(t, StateFinished, g.CurrentState())
	v := g.PlayerState(survivor)
	require.NotNil(t, v.Winner)
	assert.Equal(t, survivor, v.Winner.ID)
}

func TestLeaverClearsPendingFavor(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)
	cur := currentID(g)
	target := otherID(g, cur)
	favor := giveCards(g, cur, CardFavor, 1)[0]
	_, err := g.PlayCard(cur, favor.ID, target, nil)
	require.NoError(t, err)
	settleWindows()
	require.NotNil(t, g.PlayerState(cur).PendingAction)

	require.True(t, g.RemovePlayer(target))
	assert.Nil(t, g.PlayerState(cur).PendingAction, "favor dies with the target")
	_, err = g.DrawCard(cur)
	require.NoError(t, err, "turn flow resumes")
}

func TestFavorFizzlesWhenTargetLeavesDuringWindow(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)
	cur := currentID(g)
	target := otherID(g, cur)
	favor := giveCards(g, cur, CardFavor, 1)[0]
	_, err := g.PlayCard(cur, favor.ID, target, nil)
	require.NoError(t, err)

	require.True(t, g.RemovePlayer(target), "target quits before the window closes")
	settleWindows()

	assert.Nil(t, g.PlayerState(cur).PendingAction, "no favor request against an empty seat")
	_, err = g.DrawCard(cur)
	require.NoError(t, err, "turn flow resumes")
}

func TestLeaverMidPlacementReturnsKitten(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)
	before := totalCards(g)
	cur := currentID(g)
	stackDeckTop(g, newCard(CardExplodingKitten))
	res, err := g.DrawCard(cur)
	require.NoError(t, err)
	require.True(t, res.Defused)

	require.True(t, g.RemovePlayer(cur))
	assert.Nil(t, g.PlayerState(cur).PendingAction)
	assert.Equal(t, before+1, totalCards(g), "unplaced kitten returns to the deck")
	assert.Equal(t, StatePlaying, g.CurrentState())
}

func TestViewHidesOpponentHands(t *testing.T) {
	g, ids, _ := setupTestGame(t, 2)
	v := g.PlayerState(ids[0])
	assert.Len(t, v.PlayerHand, 5)
	for _, pi := range v.Players {
		assert.Equal(t, 5, pi.HandSize)
	}
	spectator := g.PlayerState(uuid.New())
	assert.Empty(t, spectator.PlayerHand)
}

func TestViewCopiesHandAndLog(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)
	cur := currentID(g)
	v := g.PlayerState(cur)
	want := make([]uuid.UUID, len(v.PlayerHand))
	for i, c := range v.PlayerHand {
		want[i] = c.ID
	}
	logBefore := len(v.GameLog)

	// Views outlive the lock: the game shifting a hand in place or appending
	// to the log must not show through in an already-built view.
	g.mu.Lock()
	g.playerByID(cur).removeCard(0)
	g.addLog("deck was shuffled")
	g.mu.Unlock()

	require.Len(t, v.PlayerHand, len(want))
	for i, c := range v.PlayerHand {
		assert.Equal(t, want[i], c.ID)
	}
	assert.Len(t, v.GameLog, logBefore)
}

func TestBroadcastEvents(t *testing.T) {
	g, _, mb := setupTestGame(t, 2)
	cur := currentID(g)
	skip := giveCards(g, cur, CardSkip, 1)[0]
	_, err := g.PlayCard(cur, skip.ID, uuid.Nil, nil)
	require.NoError(t, err)
	settleWindows()

	types := mb.types()
	assert.Contains(t, types, "nope-window-opened")
	assert.Contains(t, types, "skip-resolved")
}
