package session

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type MessageType string

const (
	TypeJoin      MessageType = "JOIN"
	TypeStartGame MessageType = "START_GAME"
	TypeMove      MessageType = "MOVE"
	TypeRestart   MessageType = "RESTART"
	TypeLeave     MessageType = "LEAVE"
)

// Message is the closed set of session messages. Only the types in this file implement it.
type Message interface {
	Type() MessageType
	sealed()
}

type (
	JoinMessage      struct{}
	StartGameMessage struct{}
	RestartMessage   struct{}
	LeaveMessage     struct{}

	MoveMessage struct {
		Row    int
		Col    int
		Player entity.Player
	}
)

func (JoinMessage) Type() MessageType      { return TypeJoin }
func (StartGameMessage) Type() MessageType { return TypeStartGame }
func (MoveMessage) Type() MessageType      { return TypeMove }
func (RestartMessage) Type() MessageType   { return TypeRestart }
func (LeaveMessage) Type() MessageType     { return TypeLeave }

func (JoinMessage) sealed()      {}
func (StartGameMessage) sealed() {}
func (MoveMessage) sealed()      {}
func (RestartMessage) sealed()   {}
func (LeaveMessage) sealed()     {}

// envelope is the JSON shape on the wire.
type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type movePayload struct {
	Move   wireMove `json:"move"`
	Player string   `json:"player"`
}

// wireMove keeps the x = row, y = col naming peers already speak.
type wireMove struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func Encode(msg Message) ([]byte, error) {
	env := envelope{Type: msg.Type()}

	if move, ok := msg.(MoveMessage); ok {
		payload, err := json.Marshal(movePayload{
			Move:   wireMove{X: &move.Row, Y: &move.Col},
			Player: string(move.Player),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal move payload: %w", err)
		}
		env.Payload = payload
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// Decode parses one wire message. Unknown types and payloads that do not fit their type are
// rejected instead of being passed on.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	switch env.Type {
	case TypeJoin, TypeStartGame, TypeRestart, TypeLeave:
		if hasPayload(env.Payload) {
			return nil, fmt.Errorf("%w: %s carries a payload", apperror.ErrMalformedMessage, env.Type)
		}
		return bareMessage(env.Type), nil
	case TypeMove:
		return decodeMove(env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMessage, env.Type)
	}
}

func decodeMove(raw json.RawMessage) (Message, error) {
	if !hasPayload(raw) {
		return nil, fmt.Errorf("%w: MOVE without payload", apperror.ErrMalformedMessage)
	}

	var payload movePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if payload.Move.X == nil || payload.Move.Y == nil {
		return nil, fmt.Errorf("%w: MOVE without coordinates", apperror.ErrMalformedMessage)
	}

	row, col := *payload.Move.X, *payload.Move.Y
	if !entity.InBounds(row, col) {
		return nil, fmt.Errorf("%w: MOVE (%d, %d) off the board", apperror.ErrMalformedMessage, row, col)
	}

	player, err := entity.ParsePlayer(payload.Player)
	if err != nil {
		return nil, err
	}

	return MoveMessage{Row: row, Col: col, Player: player}, nil
}

func bareMessage(msgType MessageType) Message {
	switch msgType {
	case TypeJoin:
		return JoinMessage{}
	case TypeStartGame:
		return StartGameMessage{}
	case TypeRestart:
		return RestartMessage{}
	default:
		return LeaveMessage{}
	}
}

func hasPayload(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
