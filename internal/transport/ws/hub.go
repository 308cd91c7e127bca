package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"surveystats/internal/metrics"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Dashboard message types
const (
	MsgResponseRecorded MessageType = "response_recorded"
	MsgSummaryUpdate    MessageType = "summary_update"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans dashboard updates out to every connected host of a survey
type Hub struct {
	// survey -> connections
	dashboards map[string]map[*Connection]struct{}

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once
	stopped    chan struct{}

	logger *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SurveyID string
	HostID   string
	Send     chan []byte
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub and starts its run loop
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		dashboards: make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case conn := <-h.register:
			if h.dashboards[conn.SurveyID] == nil {
				h.dashboards[conn.SurveyID] = make(map[*Connection]struct{})
			}
			h.dashboards[conn.SurveyID][conn] = struct{}{}
			metrics.DashboardClients.Inc()
			h.logger.Info("dashboard connected", zap.String("surveyId", conn.SurveyID), zap.String("hostId", conn.HostID))

		case conn := <-h.unregister:
			if conns, ok := h.dashboards[conn.SurveyID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					metrics.DashboardClients.Dec()
					h.logger.Info("dashboard disconnected", zap.String("surveyId", conn.SurveyID), zap.String("hostId", conn.HostID))
				}
			}

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("failed to encode dashboard message", zap.Error(err))
				continue
			}
			for conn := range h.dashboards[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}

		case <-h.done:
			for _, conns := range h.dashboards {
				for conn := range conns {
					close(conn.Send)
					metrics.DashboardClients.Dec()
				}
			}
			h.dashboards = nil
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToDashboard sends a message to every dashboard of the survey
// (implements service.Broadcaster)
func (h *Hub) BroadcastToDashboard(surveyID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode dashboard payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message:  &Message{Type: MessageType(msgType), Payload: data},
	}:
	case <-h.done:
	}
}

// Close disconnects every dashboard and stops the run loop
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}
