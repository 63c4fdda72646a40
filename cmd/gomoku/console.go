package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/session"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const help = `commands:
  local            play both colors on this terminal
  ai               play black against the computer
  host             create an online room
  join <room>      join an online room
  <row> <col>      place a stone (0-14)
  restart          start the current game over
  menu             leave the game
  board            print the board
  quit             exit`

type gameManager interface {
	StartLocal()
	StartAgainstSuggester()
	CreateRoom(ctx context.Context) (string, error)
	JoinRoom(ctx context.Context, roomID string) error
	PlaceStone(row, col int) error
	Restart() error
	ReturnToMenu()
	Snapshot() usecase.Snapshot
	Notices() <-chan session.Notice
}

// console reads commands line by line and prints the board after every change.
type console struct {
	manager gameManager
	in      io.Reader

	mu  sync.Mutex
	out io.Writer
}

func newConsole(manager gameManager, in io.Reader, out io.Writer) *console {
	return &console{
		manager: manager,
		in:      in,
		out:     out,
	}
}

func (that *console) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go that.watchNotices(ctx)

	that.println(help)

	scanner := bufio.NewScanner(that.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		if !that.execute(ctx, strings.Fields(scanner.Text())) {
			return
		}
	}
}

// execute runs one command and reports whether to keep reading.
func (that *console) execute(ctx context.Context, fields []string) bool {
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "exit":
		return false
	case "help":
		that.println(help)
	case "local":
		that.manager.StartLocal()
		that.printBoard()
	case "ai":
		that.manager.StartAgainstSuggester()
		that.printBoard()
	case "host":
		roomID, err := that.manager.CreateRoom(ctx)
		if err != nil {
			that.println("could not create room:", err)
			return true
		}
		that.println("room", roomID, "- waiting for a guest")
	case "join":
		if len(fields) != 2 {
			that.println("usage: join <room>")
			return true
		}
		if err := that.manager.JoinRoom(ctx, fields[1]); err != nil {
			that.println("could not join room:", err)
			return true
		}
		that.println("joining", strings.ToUpper(fields[1]))
	case "restart":
		if err := that.manager.Restart(); err != nil {
			that.println("could not restart:", err)
			return true
		}
		that.printBoard()
	case "menu":
		that.manager.ReturnToMenu()
		that.println("back at the menu")
	case "board":
		that.printBoard()
	default:
		that.placeStone(fields)
	}

	return true
}

func (that *console) placeStone(fields []string) {
	if len(fields) != 2 {
		that.println("unknown command, try help")
		return
	}

	row, rowErr := strconv.Atoi(fields[0])
	col, colErr := strconv.Atoi(fields[1])
	if rowErr != nil || colErr != nil {
		that.println("unknown command, try help")
		return
	}

	if err := that.manager.PlaceStone(row, col); err != nil {
		that.println("move refused:", err)
		return
	}

	that.printBoard()
}

func (that *console) watchNotices(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notice := <-that.manager.Notices():
			that.printNotice(notice)
		}
	}
}

func (that *console) printNotice(notice session.Notice) {
	switch notice.Kind {
	case session.NoticeRemoteMove, usecase.NoticeSuggestedMove:
		that.println(fmt.Sprintf("%s played %d %d", notice.Move.Player, notice.Move.Row, notice.Move.Col))
		that.printBoard()
	case session.NoticeGameStarted, session.NoticeRestarted:
		that.println(string(notice.Kind))
		that.printBoard()
	case usecase.NoticeGameEnded:
		that.println("game over:", notice.Reason)
	default:
		if notice.Reason != "" {
			that.println(string(notice.Kind)+":", notice.Reason)
			return
		}
		that.println(string(notice.Kind))
	}
}

func (that *console) printBoard() {
	snapshot := that.manager.Snapshot()

	status := fmt.Sprintf("%s, %s", snapshot.Mode, snapshot.Status)
	if snapshot.Turn != "" {
		status += ", " + string(snapshot.Turn) + " to move"
	}
	if snapshot.RoomID != "" {
		status += fmt.Sprintf(", room %s as %s", snapshot.RoomID, snapshot.Role)
	}

	that.println(snapshot.Board.String() + status)
}

func (that *console) println(args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, _ = fmt.Fprintln(that.out, args...)
}
