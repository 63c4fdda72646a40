package entity

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	RoomIDLength = 5

	channelPrefix = "gomoku-"
	roomAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewRoomID returns a random 5 character room id. Uniqueness is not guaranteed; a collision shows
// up later as a taken channel.
func NewRoomID() string {
	id := make([]byte, RoomIDLength)
	for i := range id {
		id[i] = roomAlphabet[rand.IntN(len(roomAlphabet))] //nolint: gosec // room ids are not secrets
	}

	return string(id)
}

// NormalizeRoomID upper-cases user input and checks the id shape.
func NormalizeRoomID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if len(id) != RoomIDLength {
		return "", fmt.Errorf("%w: %q must have %d characters", apperror.ErrInvalidRoomID, raw, RoomIDLength)
	}

	for _, char := range id {
		if !strings.ContainsRune(roomAlphabet, char) {
			return "", fmt.Errorf("%w: %q must be alphanumeric", apperror.ErrInvalidRoomID, raw)
		}
	}

	return id, nil
}

// ChannelID is the transport channel both peers of a room rendezvous on.
func ChannelID(roomID string) string {
	return channelPrefix + roomID
}
