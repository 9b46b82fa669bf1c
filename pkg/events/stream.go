package events

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Stream writes the subscription's events to conn as JSON until the peer
// disconnects, ctx is done or the subscription closes. It closes conn and
// returns only after its reader goroutine has exited.
func Stream(ctx context.Context, conn *websocket.Conn, sub *Subscription, logger *zap.Logger) error {
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		readLoop(conn)
	}()

	err := writeLoop(ctx, conn, sub, readerDone)
	_ = conn.Close()
	<-readerDone

	if err != nil && !isExpectedClose(err) {
		logger.Debug("Event stream ended", zap.String("project_id", sub.ProjectID.String()), zap.Error(err))
		return err
	}
	return nil
}

// readLoop discards client messages; reading is what processes pongs and close frames.
func readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

var errPeerGone = errors.New("peer disconnected")

func writeLoop(ctx context.Context, conn *websocket.Conn, sub *Subscription, readerDone <-chan struct{}) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			return errPeerGone

		case <-ctx.Done():
			writeClose(conn, websocket.CloseGoingAway, "server shutting down")
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				writeClose(conn, websocket.CloseNormalClosure, "")
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return err
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return errPeerGone
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

func isExpectedClose(err error) bool {
	return errors.Is(err, errPeerGone) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
