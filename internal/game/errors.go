// internal/game/errors.go
package game

import "errors"

// Validation errors are recoverable: they are reported to the originating
// connection only and never mutate game state.
var (
	ErrGameFull          = errors.New("game is full")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrGameStarted       = errors.New("game already started")
	ErrGameNotInProgress = errors.New("game not in progress")
	ErrGameNotFinished   = errors.New("can only reset finished games")
	ErrNotEnoughPlayers  = errors.New("need at least 2 players")
	ErrPlayerExists      = errors.New("player already in game")
	ErrPlayerNotFound    = errors.New("player not found or eliminated")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrCardNotFound      = errors.New("card not found in hand")
	ErrPendingResponse   = errors.New("waiting for response to previous action")
	ErrNoPendingAction   = errors.New("no pending action")
	ErrNotYourAction     = errors.New("not your action to respond to")
	ErrInvalidTarget     = errors.New("invalid target player")
	ErrTargetNoCards     = errors.New("target player has no cards")
	ErrNoTarget          = errors.New("must select a target player")
	ErrNoNopeWindow      = errors.New("nope can only be played in response to other cards")
	ErrNopeOwnAction     = errors.New("you cannot nope your own action")
	ErrMixedCardTypes    = errors.New("all cards must be of the same type")
	ErrDuplicateCards    = errors.New("the same card cannot be played twice")
	ErrNeedMatchingCards = errors.New("need at least 2 matching cards to steal")
	ErrTooManyCards      = errors.New("cannot play more than 3 cards at once")
	ErrPrimaryNotInSet   = errors.New("primary card not found in selection")
	ErrCatCardAlone      = errors.New("cat cards need at least 2 matching cards to steal")
	ErrUnplayableCard    = errors.New("card cannot be played on its own")
	ErrDeckEmpty         = errors.New("no cards left in deck")
)

// errMatchingCardMissing signals a broken precondition rather than user
// error: earlier checks guaranteed a matching card that is no longer there.
// It short-circuits before any partial mutation.
var errMatchingCardMissing = errors.New("internal: matching card not found for steal action")
