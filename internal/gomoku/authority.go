package gomoku

import "github.com/rocketscienceinc/gomoku-backend/internal/entity"

// CanSubmit decides whether a move entered on this device may reach the engine.
// Moves received from the network never pass through here.
func CanSubmit(mode Mode, role entity.Role, current entity.Player) bool {
	switch mode {
	case ModeLocal:
		return true
	case ModeSuggester:
		// the suggester always plays white
		return current == entity.PlayerBlack
	case ModeOnline:
		color, ok := role.Color()
		return ok && color == current
	default:
		return false
	}
}
