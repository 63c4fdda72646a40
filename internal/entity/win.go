package entity

const WinLength = 5

// WinResult has a non-nil Line exactly when Winner is set.
type WinResult struct {
	Winner *Player    `json:"winner"`
	Line   []Position `json:"line"`
}

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

func (that WinResult) HasWinner() bool {
	return that.Winner != nil
}

// CheckWin inspects only the lines through (row, col). The first axis holding a run of at least
// WinLength stones of player wins; its full run is returned ordered end to end.
func CheckWin(board Board, row, col int, player Player) WinResult {
	if !InBounds(row, col) || !player.IsValid() {
		return WinResult{}
	}

	mark := player.Cell()

	for _, dir := range directions {
		backward := walk(board, row, col, -dir[0], -dir[1], mark)
		forward := walk(board, row, col, dir[0], dir[1], mark)

		if len(backward)+1+len(forward) < WinLength {
			continue
		}

		line := make([]Position, 0, len(backward)+1+len(forward))
		for i := len(backward) - 1; i >= 0; i-- {
			line = append(line, backward[i])
		}
		line = append(line, Position{Row: row, Col: col})
		line = append(line, forward...)

		winner := player

		return WinResult{Winner: &winner, Line: line}
	}

	return WinResult{}
}

// walk collects consecutive cells equal to mark starting next to (row, col) along (dr, dc).
func walk(board Board, row, col, dr, dc int, mark Cell) []Position {
	var run []Position

	r, c := row+dr, col+dc
	for InBounds(r, c) && board[r][c] == mark {
		run = append(run, Position{Row: r, Col: c})
		r += dr
		c += dc
	}

	return run
}
