package ui

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NethermindEth/incrementer/controller"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const closeReasonMaxBytes = 125

type WebsocketConnParams struct {
	// Maximum message size accepted from the client.
	ReadLimit int64
	// Maximum time to write a message.
	WriteDuration time.Duration
}

func DefaultWebsocketConnParams() *WebsocketConnParams {
	return &WebsocketConnParams{
		ReadLimit:     utils.Kilobyte,
		WriteDuration: 5 * time.Second,
	}
}

// serveWebsocket streams every snapshot to the client until either side goes away.
// The client is not expected to send anything.
func (h *Handler) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.origins),
	})
	if err != nil {
		h.log.Errorw("Failed to upgrade connection", "err", err)
		return
	}
	conn.SetReadLimit(h.wsParams.ReadLimit)
	ctx := conn.CloseRead(r.Context())

	sub := h.controller.Subscribe()
	defer sub.Unsubscribe()

	h.log.Debugw("Websocket client connected", "remote", r.RemoteAddr)
	err = h.stream(ctx, conn, sub.Recv())
	if err == nil {
		return
	}

	if status := websocket.CloseStatus(err); status != -1 || errors.Is(err, context.Canceled) {
		h.log.Debugw("Client closed websocket connection", "status", status)
		return
	}

	h.log.Warnw("Closing websocket connection", "err", err)
	errString := err.Error()
	if len(errString) > closeReasonMaxBytes {
		errString = errString[:closeReasonMaxBytes]
	}
	if err = conn.Close(websocket.StatusInternalError, errString); err != nil {
		// The connection may already be gone, e.g. after a write timeout.
		errString = err.Error()
		if !strings.Contains(errString, "already wrote close") && !strings.Contains(errString, "WebSocket closed") {
			h.log.Errorw("Failed to close websocket connection", "err", errString)
		}
	}
}

func (h *Handler) stream(ctx context.Context, conn *websocket.Conn, snapshots <-chan controller.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot, ok := <-snapshots:
			if !ok {
				return conn.Close(websocket.StatusGoingAway, "shutting down")
			}
			writeCtx, cancel := context.WithTimeout(ctx, h.wsParams.WriteDuration)
			err := wsjson.Write(writeCtx, conn, snapshot)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// originPatterns turns CORS origins into the host patterns websocket.Accept matches
// the Origin header against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
