package apperror

import "errors"

var (
	ErrInvalidMove      = errors.New("invalid move")
	ErrOutOfRange       = errors.New("cell is out of range")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")

	ErrInvalidRoomID   = errors.New("invalid room id")
	ErrChannelTaken    = errors.New("channel is already taken")
	ErrPeerUnavailable = errors.New("peer is unavailable")
	ErrNotConnected    = errors.New("session is not connected")
	ErrSessionActive   = errors.New("session is already active")

	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")

	ErrSuggestionRejected = errors.New("suggested move rejected")
	ErrNoAvailableMoves   = errors.New("no available moves")
)
