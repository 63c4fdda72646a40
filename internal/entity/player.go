package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

// Player is the color of a stone and of the side that places it.
type Player string

const (
	PlayerBlack Player = "black"
	PlayerWhite Player = "white"
)

// Role is the network role of a peer in an online session.
type Role string

const (
	RoleNone  Role = ""
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

func (that Player) IsValid() bool {
	return that == PlayerBlack || that == PlayerWhite
}

// Opponent returns the other color.
func (that Player) Opponent() Player {
	if that == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

// Cell returns the cell state a stone of this color produces.
func (that Player) Cell() Cell {
	switch that {
	case PlayerBlack:
		return BlackCell
	case PlayerWhite:
		return WhiteCell
	default:
		return EmptyCell
	}
}

// ParsePlayer accepts the wire spelling of a color.
func ParsePlayer(value string) (Player, error) {
	player := Player(value)
	if !player.IsValid() {
		return "", fmt.Errorf("%w: player %q", apperror.ErrMalformedMessage, value)
	}

	return player, nil
}

// Color is the stone color a role plays with: the host is always black, the guest always white.
func (that Role) Color() (Player, bool) {
	switch that {
	case RoleHost:
		return PlayerBlack, true
	case RoleGuest:
		return PlayerWhite, true
	default:
		return "", false
	}
}
