package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"surveystats/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// TokenValidator checks host tokens
type TokenValidator interface {
	ValidateHostToken(token string) (*model.HostClaims, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	authSvc  TokenValidator
	surveyID string
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler for one survey's dashboard
func NewHandler(hub *Hub, authSvc TokenValidator, surveyID string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		authSvc:  authSvc,
		surveyID: surveyID,
		logger:   logger,
	}
}

// DashboardWS handles GET /v1/ws/dashboard?token=
func (h *Handler) DashboardWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateHostToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// registered before the handshake completes so no update sent after it is missed
	conn := &Connection{
		SurveyID: h.surveyID,
		HostID:   claims.HostID,
		Send:     make(chan []byte, 256),
	}
	h.hub.Register(conn)

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.Unregister(conn)
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("hostId", conn.HostID), zap.Error(err))
			}
			break
		}
		// dashboards are read-only; incoming frames only keep the connection alive
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
