package server

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DecentPokerLabs/DecentPoker/internal/game"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

// MessageType discriminates websocket messages.
type MessageType string

// Client to server.
const (
	MessageTypeHello        MessageType = "hello"
	MessageTypeCreateGame   MessageType = "create_game"
	MessageTypeJoinGame     MessageType = "join_game"
	MessageTypeDealHand     MessageType = "deal_hand"
	MessageTypeAction       MessageType = "action"
	MessageTypeReveal       MessageType = "reveal"
	MessageTypeAutoFold     MessageType = "auto_fold"
	MessageTypeCloseHand    MessageType = "close_hand"
	MessageTypeLeaveGame    MessageType = "leave_game"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeCreateSitNGo MessageType = "create_sitngo"
	MessageTypeRegisterSeat MessageType = "register_seat"
)

// Server to client.
const (
	MessageTypeWelcome MessageType = "welcome"
	MessageTypeOK      MessageType = "ok"
	MessageTypeError   MessageType = "error"
	MessageTypeState   MessageType = "state"
)

// Message is the websocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage wraps a payload in an envelope stamped with the current time.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client payloads. Secrets and commitments travel as 64-character hex.

type HelloData struct {
	PlayerName string `json:"playerName"`
}

type CreateGameData struct {
	MaxPlayers       int    `json:"maxPlayers"`
	BigBlind         int64  `json:"bigBlind"`
	InviteCommitment string `json:"inviteCommitment,omitempty"`
}

type JoinGameData struct {
	GameID         uint64 `json:"gameId"`
	Seat           int    `json:"seat"`
	HoleCommitment string `json:"holeCommitment"`
	InviteSecret   string `json:"inviteSecret,omitempty"`
}

type DealHandData struct {
	GameID uint64 `json:"gameId"`
}

type ActionData struct {
	GameID uint64 `json:"gameId"`
	Kind   int    `json:"kind"`
	Amount int64  `json:"amount,omitempty"`
}

type RevealData struct {
	GameID         uint64 `json:"gameId"`
	Secret         string `json:"secret"`
	NextCommitment string `json:"nextCommitment"`
}

type GameRefData struct {
	GameID uint64 `json:"gameId"`
}

type CreateSitNGoData struct {
	Seats int   `json:"seats"`
	BuyIn int64 `json:"buyIn"`
}

type RegisterSeatData struct {
	EventID uint64 `json:"eventId"`
}

// Server payloads.

type WelcomeData struct {
	SessionID string `json:"sessionId"`
}

type OKData struct {
	GameID  uint64 `json:"gameId,omitempty"`
	EventID uint64 `json:"eventId,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StateData struct {
	Game game.View `json:"game"`
}

// parseSecret decodes a 32-byte hex secret. The empty string decodes to the
// zero secret, which public games accept as the invite.
func parseSecret(s string) (shuffle.Secret, error) {
	var out shuffle.Secret
	if s == "" {
		return out, nil
	}
	if err := parse32(s, out[:]); err != nil {
		return out, fmt.Errorf("secret: %w", err)
	}
	return out, nil
}

// parseCommitment decodes a 32-byte hex commitment.
func parseCommitment(s string) (shuffle.Commitment, error) {
	var out shuffle.Commitment
	if s == "" {
		return out, nil
	}
	if err := parse32(s, out[:]); err != nil {
		return out, fmt.Errorf("commitment: %w", err)
	}
	return out, nil
}

func parse32(s string, dst []byte) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
