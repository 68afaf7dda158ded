// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gavinz0228/exploding-kitten/internal/game"
	"github.com/gavinz0228/exploding-kitten/internal/room"
)

// GameSubprotocol is the websocket subprotocol clients must request.
const GameSubprotocol = "game"

// session is the identity a connection announced with join-lobby. Commands
// that carry no explicit playerId/playerName fall back to it.
type session struct {
	playerID   uuid.UUID
	playerName string
}

// clientMessage is the envelope for every inbound websocket frame. Fields
// are populated per action type; unused ones stay zero.
type clientMessage struct {
	Type          string   `json:"type"`
	RoomID        string   `json:"roomId,omitempty"`
	PlayerID      string   `json:"playerId,omitempty"`
	PlayerName    string   `json:"playerName,omitempty"`
	CardID        string   `json:"cardId,omitempty"`
	CardIDs       []string `json:"cardIds,omitempty"`
	PrimaryCardID string   `json:"primaryCardId,omitempty"`
	TargetID      string   `json:"targetPlayerId,omitempty"`
	NamedSteal    bool     `json:"namedSteal,omitempty"`
	CardName      string   `json:"cardName,omitempty"`
	Position      *int     `json:"position,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// GameWSHandler accepts websocket connections and runs the read loop that
// routes client actions into the room manager. One goroutine per connection
// drains the outbound queue; the read loop owns the socket's read side.
func GameWSHandler(logger *logrus.Logger, mgr *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{GameSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != GameSubprotocol {
			c.Close(websocket.StatusPolicyViolation, "client must speak the game subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := room.NewConn()
		logger.Infof("Client %s connected (%s)", conn.ID, remoteAddr)

		go writePump(ctx, c, conn, logger)

		// A reconnect from another socket displaces this connection; closing
		// the websocket here unblocks the read loop.
		go func() {
			select {
			case <-conn.Done():
				c.Close(websocket.StatusPolicyViolation, "session superseded")
			case <-ctx.Done():
			}
		}()

		readPump(ctx, c, conn, mgr, logger)

		mgr.HandleDisconnect(conn)
		logger.Infof("Client %s read pump exited, cleanup done", conn.ID)
	}
}

// readPump reads frames until the connection dies and dispatches each action
// to the manager. Errors from game logic go back to the client as error
// frames; they never terminate the connection.
func readPump(ctx context.Context, c *websocket.Conn, conn *room.Conn, mgr *room.Manager, logger *logrus.Logger) {
	sess := &session{}
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("Websocket closed normally for conn %s", conn.ID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("Read error for conn %s: %v (status: %d)", conn.ID, err, status)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("Ignoring non-text message type %d from conn %s", typ, conn.ID)
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid json from conn %s: %v", conn.ID, err)
			sendWsError(ctx, c, "Invalid JSON format")
			continue
		}

		if err := handleClientMessage(ctx, c, conn, sess, mgr, msg); err != nil {
			sendWsError(ctx, c, err.Error())
		}
	}
}

// handleClientMessage routes one decoded frame. Room actions before a
// create/join have no bound identity and are rejected.
func handleClientMessage(ctx context.Context, c *websocket.Conn, conn *room.Conn, sess *session, mgr *room.Manager, msg clientMessage) error {
	switch msg.Type {
	case "join-lobby":
		playerID, err := parsePlayerID(msg.PlayerID)
		if err != nil {
			return err
		}
		if msg.PlayerName == "" {
			return fmt.Errorf("playerName is required")
		}
		sess.playerID = playerID
		sess.playerName = msg.PlayerName
		sendWsMessage(ctx, c, map[string]interface{}{
			"type":       "lobby-joined",
			"playerId":   playerID.String(),
			"playerName": msg.PlayerName,
		})
		return nil

	case "create-room":
		playerID, name, err := sess.identity(msg)
		if err != nil {
			return err
		}
		code, err := mgr.CreateRoom(conn, playerID, name)
		if err != nil {
			return err
		}
		sendWsMessage(ctx, c, map[string]interface{}{
			"type":     "room-created",
			"roomId":   code,
			"playerId": playerID.String(),
		})
		return nil

	case "join-room":
		playerID, name, err := sess.identity(msg)
		if err != nil {
			return err
		}
		code := strings.ToUpper(strings.TrimSpace(msg.RoomID))
		reconnected, err := mgr.JoinRoom(conn, code, playerID, name)
		if err != nil {
			return err
		}
		sendWsMessage(ctx, c, map[string]interface{}{
			"type":        "room-joined",
			"roomId":      code,
			"playerId":    playerID.String(),
			"reconnected": reconnected,
		})
		return nil

	case "leave-room":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		return mgr.LeaveRoom(playerID)

	case "start-game":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		return mgr.StartGame(playerID)

	case "play-card":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		cardID, err := uuid.Parse(msg.CardID)
		if err != nil {
			return fmt.Errorf("invalid cardId")
		}
		targetID := parseOptionalUUID(msg.TargetID)
		res, err := mgr.PlayCard(playerID, cardID, targetID, playOptions(msg))
		if err != nil {
			return err
		}
		sendWsMessage(ctx, c, map[string]interface{}{"type": "play-result", "result": res})
		return nil

	case "play-multiple-cards":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		cardIDs := make([]uuid.UUID, 0, len(msg.CardIDs))
		for _, raw := range msg.CardIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid cardIds entry")
			}
			cardIDs = append(cardIDs, id)
		}
		primaryID, err := uuid.Parse(msg.PrimaryCardID)
		if err != nil {
			return fmt.Errorf("invalid primaryCardId")
		}
		targetID := parseOptionalUUID(msg.TargetID)
		res, err := mgr.PlayMultipleCards(playerID, cardIDs, primaryID, targetID, playOptions(msg))
		if err != nil {
			return err
		}
		sendWsMessage(ctx, c, map[string]interface{}{"type": "play-result", "result": res})
		return nil

	case "draw-card":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		res, err := mgr.DrawCard(playerID)
		if err != nil {
			return err
		}
		sendWsMessage(ctx, c, map[string]interface{}{"type": "draw-result", "result": res})
		return nil

	case "respond-to-action":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		resp := game.Response{Position: msg.Position}
		if msg.CardID != "" {
			id, err := uuid.Parse(msg.CardID)
			if err != nil {
				return fmt.Errorf("invalid cardId")
			}
			resp.CardID = &id
		}
		return mgr.RespondToPendingAction(playerID, resp)

	case "reset-game":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		return mgr.ResetGame(playerID)

	case "get-game-state":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		return mgr.SendStateTo(playerID)

	case "chat-message":
		playerID, ok := mgr.PlayerForConn(conn)
		if !ok {
			return room.ErrNotInRoom
		}
		if strings.TrimSpace(msg.Message) == "" {
			return nil
		}
		return mgr.Chat(playerID, msg.Message)

	case "ping":
		sendWsMessage(ctx, c, map[string]string{"type": "pong"})
		return nil

	default:
		return fmt.Errorf("unknown action type: %s", msg.Type)
	}
}

// identity resolves the acting player for a room command: explicit message
// fields win, then the join-lobby session, then a freshly minted identity.
func (s *session) identity(msg clientMessage) (uuid.UUID, string, error) {
	name := msg.PlayerName
	if name == "" {
		name = s.playerName
	}
	if name == "" {
		return uuid.Nil, "", fmt.Errorf("playerName is required")
	}
	if msg.PlayerID != "" {
		id, err := parsePlayerID(msg.PlayerID)
		if err != nil {
			return uuid.Nil, "", err
		}
		return id, name, nil
	}
	if s.playerID != uuid.Nil {
		return s.playerID, name, nil
	}
	return uuid.New(), name, nil
}

// parsePlayerID parses the client-supplied persistent identity, minting a
// fresh one for first-time clients that send none.
func parsePlayerID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid playerId")
	}
	return id, nil
}

func parseOptionalUUID(raw string) uuid.UUID {
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func playOptions(msg clientMessage) *game.PlayOptions {
	if !msg.NamedSteal {
		return nil
	}
	return &game.PlayOptions{NamedSteal: true, CardName: game.CardType(msg.CardName)}
}

// writePump drains the connection's outbound queue onto the socket and sends
// periodic pings so intermediaries keep the connection alive.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case payload, ok := <-conn.OutChan:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				logger.Warnf("Write failed for conn %s: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Ping failed for conn %s: %v", conn.ID, err)
				return
			}
		}
	}
}

// sendWsMessage marshals and writes one frame with a bounded timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Error marshaling websocket message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logrus.Warnf("Error writing websocket message: %v", err)
		}
	}
}

// sendWsError sends a structured error frame to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
