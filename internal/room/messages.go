// internal/room/messages.go
package room

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gavinz0228/exploding-kitten/internal/game"
)

// Outbound frame types pushed to clients.
const (
	MsgGameState          = "game-state"
	MsgGameEvent          = "game-event"
	MsgChatMessage        = "chat-message"
	MsgPlayerDisconnected = "player-disconnected"
	MsgPlayerReconnected  = "player-reconnected"
	MsgRoomClosed         = "room-closed"
)

type stateMessage struct {
	Type  string    `json:"type"`
	State game.View `json:"state"`
}

type eventMessage struct {
	Type  string     `json:"type"`
	Event game.Event `json:"event"`
}

type chatMessage struct {
	Type       string    `json:"type"`
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
	Timestamp  int64     `json:"timestamp"`
}

type presenceMessage struct {
	Type       string    `json:"type"`
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
}

type roomClosedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

func encodeState(v game.View) []byte {
	b, _ := json.Marshal(stateMessage{Type: MsgGameState, State: v})
	return b
}

func encodeEvent(ev game.Event) []byte {
	b, _ := json.Marshal(eventMessage{Type: MsgGameEvent, Event: ev})
	return b
}

func encodeChat(playerID uuid.UUID, name, text string) []byte {
	b, _ := json.Marshal(chatMessage{
		Type:       MsgChatMessage,
		PlayerID:   playerID,
		PlayerName: name,
		Message:    text,
		Timestamp:  time.Now().UnixMilli(),
	})
	return b
}

func encodePresence(msgType string, playerID uuid.UUID, name string) []byte {
	b, _ := json.Marshal(presenceMessage{Type: msgType, PlayerID: playerID, PlayerName: name})
	return b
}

func encodeRoomClosed(roomID string) []byte {
	b, _ := json.Marshal(roomClosedMessage{Type: MsgRoomClosed, RoomID: roomID})
	return b
}
