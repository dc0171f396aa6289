package events

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// ServeWS upgrades the request and streams userID's events as JSON text
// frames until the client goes away or ctx ends. Client messages are
// ignored.
func (h *Hub) ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("events: websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	readCtx := conn.CloseRead(r.Context())
	ch, cancel := h.Subscribe(userID, 0)
	defer cancel()

	h.logger.Debug("events: subscriber connected", "user", userID)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-readCtx.Done():
			return
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			wctx, wcancel := context.WithTimeout(readCtx, writeTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				h.logger.Debug("events: write failed", "user", userID, "error", err)
				return
			}
		}
	}
}
