// internal/room/manager.go
package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gavinz0228/exploding-kitten/internal/game"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotInRoom    = errors.New("player is not in a room")
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// finishedRoomTTL is how long a finished room with no connected players
	// survives before cleanup reclaims it.
	finishedRoomTTL = time.Hour
)

// Room pairs a join code with its game.
type Room struct {
	Code      string
	Game      *game.Game
	CreatedAt time.Time
}

// Summary is the public listing entry for one room.
type Summary struct {
	Code        string     `json:"code"`
	PlayerCount int        `json:"playerCount"`
	MaxPlayers  int        `json:"maxPlayers"`
	State       game.State `json:"state"`
}

// Stats is the aggregate server counters exposed over the REST API.
type Stats struct {
	Rooms       int `json:"rooms"`
	Players     int `json:"players"`
	Connections int `json:"connections"`
}

// Manager owns every room plus the two-sided mapping between persistent
// player identities and live connections. Identities survive disconnects;
// connections come and go, and a reconnecting player is simply rebound in
// playerConns. Manager state and game state have separate locks: the
// manager mutex only guards the maps, game mutations happen on the game's
// own mutex after the maps are consulted.
type Manager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	playerRooms map[uuid.UUID]string
	playerConns map[uuid.UUID]*Conn
	connPlayers map[*Conn]uuid.UUID

	nopeDuration time.Duration
	logger       *logrus.Logger
}

// NewManager builds an empty room registry.
func NewManager(nopeDuration time.Duration, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		rooms:        make(map[string]*Room),
		playerRooms:  make(map[uuid.UUID]string),
		playerConns:  make(map[uuid.UUID]*Conn),
		connPlayers:  make(map[*Conn]uuid.UUID),
		nopeDuration: nopeDuration,
		logger:       logger,
	}
}

func (m *Manager) newRoomCode() string {
	for {
		buf := make([]byte, roomCodeLength)
		for i := range buf {
			buf[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		code := string(buf)
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

// CreateRoom opens a room, seats the creator and binds their connection.
func (m *Manager) CreateRoom(conn *Conn, playerID uuid.UUID, name string) (string, error) {
	m.mu.Lock()
	code := m.newRoomCode()
	g := game.NewGame(code, m.nopeDuration, m.logger)
	g.BroadcastFn = m.broadcastFnFor(code)
	m.rooms[code] = &Room{Code: code, Game: g, CreatedAt: time.Now()}
	m.mu.Unlock()

	if err := g.AddPlayer(playerID, name); err != nil {
		m.mu.Lock()
		delete(m.rooms, code)
		m.mu.Unlock()
		return "", err
	}

	m.bind(conn, playerID, code)
	m.logger.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("room created")
	m.PushState(code)
	return code, nil
}

// JoinRoom seats a player, or rebinds them if their identity is already in
// the room (reconnection). Returns true when this was a reconnect.
func (m *Manager) JoinRoom(conn *Conn, code string, playerID uuid.UUID, name string) (bool, error) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	m.mu.Unlock()
	if !ok {
		return false, ErrRoomNotFound
	}

	if r.Game.HasPlayer(playerID) {
		m.bind(conn, playerID, code)
		m.broadcast(code, encodePresence(MsgPlayerReconnected, playerID, r.Game.PlayerName(playerID)))
		m.PushState(code)
		m.logger.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("player reconnected")
		return true, nil
	}

	if err := r.Game.AddPlayer(playerID, name); err != nil {
		return false, err
	}
	m.bind(conn, playerID, code)
	m.PushState(code)
	m.logger.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("player joined")
	return false, nil
}

// bind points playerID at conn, displacing any previous connection for the
// same identity. The displaced connection is closed so its handler exits.
func (m *Manager) bind(conn *Conn, playerID uuid.UUID, code string) {
	m.mu.Lock()
	var stale *Conn
	if prev, ok := m.playerConns[playerID]; ok && prev != conn {
		stale = prev
		delete(m.connPlayers, prev)
	}
	m.playerRooms[playerID] = code
	m.playerConns[playerID] = conn
	m.connPlayers[conn] = playerID
	m.mu.Unlock()

	if stale != nil {
		stale.Close()
	}
}

// LeaveRoom removes the player from their room for good. Their identity is
// forgotten, so a later join is a fresh seat, not a reconnect.
func (m *Manager) LeaveRoom(playerID uuid.UUID) error {
	m.mu.Lock()
	code, ok := m.playerRooms[playerID]
	if !ok {
		m.mu.Unlock()
		return ErrNotInRoom
	}
	r := m.rooms[code]
	delete(m.playerRooms, playerID)
	if conn, ok := m.playerConns[playerID]; ok {
		delete(m.connPlayers, conn)
		delete(m.playerConns, playerID)
	}
	m.mu.Unlock()

	if r != nil {
		r.Game.RemovePlayer(playerID)
		m.PushState(code)
		m.reapIfEmpty(code)
	}
	return nil
}

// HandleDisconnect unbinds the connection but keeps the seat: the identity
// stays in the room so the player can reconnect and resume.
func (m *Manager) HandleDisconnect(conn *Conn) {
	m.mu.Lock()
	playerID, ok := m.connPlayers[conn]
	if !ok {
		m.mu.Unlock()
		conn.Close()
		return
	}
	delete(m.connPlayers, conn)
	if m.playerConns[playerID] == conn {
		delete(m.playerConns, playerID)
	}
	code := m.playerRooms[playerID]
	r := m.rooms[code]
	m.mu.Unlock()

	conn.Close()
	if r != nil {
		m.broadcast(code, encodePresence(MsgPlayerDisconnected, playerID, r.Game.PlayerName(playerID)))
		m.logger.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("player disconnected")
	}
}

// roomFor resolves a player's room.
func (m *Manager) roomFor(playerID uuid.UUID) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.playerRooms[playerID]
	if !ok {
		return nil, ErrNotInRoom
	}
	r, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// StartGame starts the player's room.
func (m *Manager) StartGame(playerID uuid.UUID) error {
	r, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	if err := r.Game.Start(); err != nil {
		return err
	}
	m.PushState(r.Code)
	return nil
}

// PlayCard relays a single-card play into the player's game.
func (m *Manager) PlayCard(playerID, cardID, targetID uuid.UUID, opts *game.PlayOptions) (*game.PlayResult, error) {
	r, err := m.roomFor(playerID)
	if err != nil {
		return nil, err
	}
	res, err := r.Game.PlayCard(playerID, cardID, targetID, opts)
	if err != nil {
		return nil, err
	}
	m.PushState(r.Code)
	return res, nil
}

// PlayMultipleCards relays a matching-cards play.
func (m *Manager) PlayMultipleCards(playerID uuid.UUID, cardIDs []uuid.UUID, primaryCardID, targetID uuid.UUID, opts *game.PlayOptions) (*game.PlayResult, error) {
	r, err := m.roomFor(playerID)
	if err != nil {
		return nil, err
	}
	res, err := r.Game.PlayMultipleCards(playerID, cardIDs, primaryCardID, targetID, opts)
	if err != nil {
		return nil, err
	}
	m.PushState(r.Code)
	return res, nil
}

// DrawCard relays a draw.
func (m *Manager) DrawCard(playerID uuid.UUID) (*game.DrawResult, error) {
	r, err := m.roomFor(playerID)
	if err != nil {
		return nil, err
	}
	res, err := r.Game.DrawCard(playerID)
	if err != nil {
		return nil, err
	}
	m.PushState(r.Code)
	return res, nil
}

// RespondToPendingAction relays a favor or kitten-placement response.
func (m *Manager) RespondToPendingAction(playerID uuid.UUID, resp game.Response) error {
	r, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	if err := r.Game.RespondToPendingAction(playerID, resp); err != nil {
		return err
	}
	m.PushState(r.Code)
	return nil
}

// ResetGame rewinds a finished room to the waiting state.
func (m *Manager) ResetGame(playerID uuid.UUID) error {
	r, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	if err := r.Game.Reset(); err != nil {
		return err
	}
	m.PushState(r.Code)
	return nil
}

// Chat relays a chat line to everyone in the sender's room.
func (m *Manager) Chat(playerID uuid.UUID, text string) error {
	r, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	name := r.Game.PlayerName(playerID)
	if name == "" {
		return ErrNotInRoom
	}
	m.broadcast(r.Code, encodeChat(playerID, name, text))
	return nil
}

// SendStateTo pushes the player's current view on demand.
func (m *Manager) SendStateTo(playerID uuid.UUID) error {
	r, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	conn := m.playerConns[playerID]
	m.mu.Unlock()
	if conn == nil {
		return ErrNotInRoom
	}
	conn.Send(encodeState(r.Game.PlayerState(playerID)))
	return nil
}

// PlayerForConn resolves the identity bound to a connection, if any.
func (m *Manager) PlayerForConn(conn *Conn) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.connPlayers[conn]
	return id, ok
}

// RoomList snapshots every open room for the REST listing.
func (m *Manager) RoomList() []Summary {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, Summary{
			Code:        r.Code,
			PlayerCount: r.Game.PlayerCount(),
			MaxPlayers:  game.MaxPlayers,
			State:       r.Game.CurrentState(),
		})
	}
	return out
}

// ServerStats snapshots the aggregate counters.
func (m *Manager) ServerStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Rooms:       len(m.rooms),
		Players:     len(m.playerRooms),
		Connections: len(m.connPlayers),
	}
}

// PushState fans each player's personalized view out to their connection.
func (m *Manager) PushState(code string) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return
	}
	targets := make(map[uuid.UUID]*Conn)
	for playerID, roomCode := range m.playerRooms {
		if roomCode != code {
			continue
		}
		if conn, ok := m.playerConns[playerID]; ok {
			targets[playerID] = conn
		}
	}
	m.mu.Unlock()

	for playerID, conn := range targets {
		conn.Send(encodeState(r.Game.PlayerState(playerID)))
	}
}

// broadcast sends one identical frame to every connection in the room.
func (m *Manager) broadcast(code string, payload []byte) {
	m.mu.Lock()
	conns := make([]*Conn, 0)
	for playerID, roomCode := range m.playerRooms {
		if roomCode != code {
			continue
		}
		if conn, ok := m.playerConns[playerID]; ok {
			conns = append(conns, conn)
		}
	}
	m.mu.Unlock()

	for _, conn := range conns {
		conn.Send(payload)
	}
}

// broadcastFnFor adapts the manager into a game broadcast callback. The game
// invokes it while holding its own lock, so the fan-out, which re-enters the
// game for per-player views, runs on a fresh goroutine.
func (m *Manager) broadcastFnFor(code string) func(game.Event) {
	return func(ev game.Event) {
		go func() {
			m.broadcast(code, encodeEvent(ev))
			m.PushState(code)
		}()
	}
}

// reapIfEmpty destroys a room once nobody is seated in it.
func (m *Manager) reapIfEmpty(code string) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	m.mu.Unlock()
	if !ok || r.Game.PlayerCount() > 0 {
		return
	}
	m.destroyRoom(code)
}

// destroyRoom tears a room down: timers cancelled, identities evicted,
// remaining connections told the room is gone.
func (m *Manager) destroyRoom(code string) {
	m.broadcast(code, encodeRoomClosed(code))

	m.mu.Lock()
	r, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, code)
	for playerID, roomCode := range m.playerRooms {
		if roomCode != code {
			continue
		}
		delete(m.playerRooms, playerID)
		if conn, ok := m.playerConns[playerID]; ok {
			delete(m.connPlayers, conn)
			delete(m.playerConns, playerID)
		}
	}
	m.mu.Unlock()

	r.Game.Close()
	m.logger.WithField("room", code).Info("room destroyed")
}

// CleanupEmptyRooms reclaims rooms nobody is connected to. Rooms with a game
// still in progress are kept for a while so players can reconnect; finished
// or idle rooms past the TTL go away.
func (m *Manager) CleanupEmptyRooms() int {
	m.mu.Lock()
	connected := make(map[string]int)
	for playerID, code := range m.playerRooms {
		if _, ok := m.playerConns[playerID]; ok {
			connected[code]++
		}
	}
	candidates := make([]*Room, 0)
	for code, r := range m.rooms {
		if connected[code] == 0 {
			candidates = append(candidates, r)
		}
	}
	m.mu.Unlock()

	removed := 0
	now := time.Now()
	for _, r := range candidates {
		state := r.Game.CurrentState()
		idle := now.Sub(time.UnixMilli(r.Game.LastActivity()))
		if state != game.StatePlaying || idle > finishedRoomTTL {
			m.destroyRoom(r.Code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.WithField("removed", removed).Info("cleaned up empty rooms")
	}
	return removed
}

// RunCleanup loops CleanupEmptyRooms until stop is closed.
func (m *Manager) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupEmptyRooms()
		case <-stop:
			return
		}
	}
}
