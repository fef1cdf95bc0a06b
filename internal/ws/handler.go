package ws

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"humidity-server/internal/utils"
)

// textMessage mirrors websocket.TextMessage so hub.go needs no import of the
// websocket package.
const textMessage = websocket.TextMessage

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect cross-origin; access control sits on the gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the live channel endpoint.
func (h *Hub) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/{unit_ID}", h.handleSubscribe)
}

// handleSubscribe upgrades the connection, registers it for the unit and
// feeds client-pushed messages into the echo channel until the connection
// closes. Disconnecting cancels only this subscription.
func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	unitID, err := strconv.Atoi(r.PathValue("unit_ID"))
	if err != nil || unitID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "unit_ID", unitID, "error", err)
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: c}
	h.subscribe(unitID, sub)

	for {
		_, payload, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "unit_ID", unitID, "subscriber", sub.id, "error", err)
			}
			break
		}
		h.Echo(unitID, payload)
	}

	h.unsubscribe(unitID, sub)
	_ = c.Close()
	slog.Info("websocket connection closed", "unit_ID", unitID, "subscriber", sub.id)
}
