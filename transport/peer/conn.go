package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport"
)

const (
	writeWait   = 10 * time.Second
	eventBuffer = 64
)

type conn struct {
	logger *slog.Logger
	ws     *websocket.Conn

	writeMu sync.Mutex
	events  chan transport.Event
	done    chan struct{}
	once    sync.Once
}

func newConn(logger *slog.Logger, ws *websocket.Conn) *conn {
	c := &conn{
		logger: logger,
		ws:     ws,
		events: make(chan transport.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	go c.readPump()

	return c
}

func (that *conn) Send(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	if err := that.write(entity.Frame{Kind: entity.FrameData, Data: data}); err != nil {
		that.logger.Warn("failed to send data", "error", err)
		return false
	}

	return true
}

func (that *conn) Events() <-chan transport.Event {
	return that.events
}

func (that *conn) Close() error {
	var err error

	that.once.Do(func() {
		close(that.done)

		_ = that.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = that.ws.Close()
	})

	return err
}

func (that *conn) write(frame entity.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err = that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

// readPump turns relay frames into events until the channel ends. The relay pings; gorilla
// answers with pongs on its own.
func (that *conn) readPump() {
	defer close(that.events)

	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				that.emit(transport.Event{Kind: transport.EventClosed})
			} else {
				that.emit(transport.Event{Kind: transport.EventError, Reason: err.Error()})
			}
			return
		}

		var frame entity.Frame
		if err = json.Unmarshal(data, &frame); err != nil {
			that.logger.Warn("ignoring malformed relay frame", "error", err)
			continue
		}

		switch frame.Kind {
		case entity.FrameOpen:
			that.emit(transport.Event{Kind: transport.EventOpened})
		case entity.FrameData:
			that.emit(transport.Event{Kind: transport.EventData, Data: frame.Data})
		case entity.FrameClose:
			that.emit(transport.Event{Kind: transport.EventClosed})
			return
		case entity.FrameError:
			that.emit(transport.Event{Kind: transport.EventError, Reason: frame.Reason})
			return
		default:
			that.logger.Debug("ignoring relay frame", "kind", frame.Kind)
		}
	}
}

// emit gives up once the owner closed the connection and stopped listening.
func (that *conn) emit(event transport.Event) {
	select {
	case that.events <- event:
	case <-that.done:
	}
}
