package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

func TestNewRoomID(t *testing.T) {
	for range 50 {
		id := NewRoomID()

		normalized, err := NormalizeRoomID(id)
		require.NoError(t, err)
		assert.Equal(t, id, normalized)
	}
}

func TestNormalizeRoomID(t *testing.T) {
	t.Run("Upper-cases input", func(t *testing.T) {
		id, err := NormalizeRoomID(" abc1e ")

		require.NoError(t, err)
		assert.Equal(t, "ABC1E", id)
	})

	t.Run("Rejects wrong length", func(t *testing.T) {
		_, err := NormalizeRoomID("ABCD")

		assert.ErrorIs(t, err, apperror.ErrInvalidRoomID)
	})

	t.Run("Rejects non alphanumeric characters", func(t *testing.T) {
		_, err := NormalizeRoomID("AB-DE")

		assert.ErrorIs(t, err, apperror.ErrInvalidRoomID)
	})
}

func TestChannelID(t *testing.T) {
	assert.Equal(t, "gomoku-ABCDE", ChannelID("ABCDE"))
}

func TestRole_Color(t *testing.T) {
	color, ok := RoleHost.Color()
	assert.True(t, ok)
	assert.Equal(t, PlayerBlack, color)

	color, ok = RoleGuest.Color()
	assert.True(t, ok)
	assert.Equal(t, PlayerWhite, color)

	_, ok = RoleNone.Color()
	assert.False(t, ok)
}
