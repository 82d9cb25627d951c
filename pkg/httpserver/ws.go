package httpserver

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 10 * time.Second

type wsHandler struct {
	scanner  ScanService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func newWSHandler(scan ScanService, logger *zap.Logger) *wsHandler {
	return &wsHandler{
		scanner: scan,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboard clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// handle upgrades the connection and streams scan updates until the
// client disconnects or falls too far behind.
func (h *wsHandler) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws-upgrade-failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.scanner.Subscribe()
	defer h.scanner.Unsubscribe(sub)

	h.logger.Info("ws-client-connected", zap.String("remote", conn.RemoteAddr().String()))

	// Read pump: we never expect client messages, but reading is how we
	// learn about a disconnect.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			_, _, readErr := conn.ReadMessage()
			if readErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-disconnected:
			h.logger.Info("ws-client-disconnected")
			return
		case update, ok := <-sub:
			if !ok {
				// dropped as a slow subscriber
				return
			}
			payload, marshalErr := json.Marshal(update)
			if marshalErr != nil {
				h.logger.Error("ws-marshal-failed", zap.Error(marshalErr))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			writeErr := conn.WriteMessage(websocket.TextMessage, payload)
			if writeErr != nil {
				h.logger.Info("ws-write-failed", zap.Error(writeErr))
				return
			}
		}
	}
}
