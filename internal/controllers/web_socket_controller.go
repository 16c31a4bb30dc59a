package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"civic_trust/internal/services"
)

const writeWait = 5 * time.Second

// subscriber is the part of *websocket.Conn the hub writes through.
type subscriber interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ReportHub fans committed report events out to websocket subscribers.
// Admin subscribers only receive events for reports in their jurisdiction.
type ReportHub struct {
	upgrader  websocket.Upgrader
	clients   map[subscriber]services.Jurisdiction
	broadcast chan services.ReportEvent
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewReportHub starts the broadcast loop. allowedOrigin "*" accepts any
// origin.
func NewReportHub(allowedOrigin string) *ReportHub {
	hub := &ReportHub{
		clients:   make(map[subscriber]services.Jurisdiction),
		broadcast: make(chan services.ReportEvent, 100),
		done:      make(chan struct{}),
	}
	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
		},
	}
	go hub.run()
	return hub
}

func (h *ReportHub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *ReportHub) deliver(ev services.ReportEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).WithField("event", ev.Type).Error("could not encode report event")
		return
	}

	// Only the run goroutine writes data frames, so connections are copied
	// out and written without holding h.mu.
	h.mu.Lock()
	targets := make([]subscriber, 0, len(h.clients))
	for conn, scope := range h.clients {
		if scope.Allows(ev.Report) {
			targets = append(targets, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("dropping report subscriber after failed write")
			h.unregister(conn)
			conn.Close()
		}
	}
}

// Publish queues an event for delivery. It never blocks the caller.
func (h *ReportHub) Publish(ev services.ReportEvent) {
	select {
	case <-h.done:
	case h.broadcast <- ev:
	default:
		logrus.WithField("event", ev.Type).Warn("report broadcast channel full, dropping event")
	}
}

func (h *ReportHub) register(conn subscriber, scope services.Jurisdiction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = scope
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Debug("report subscriber registered")
}

func (h *ReportHub) unregister(conn subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Debug("report subscriber unregistered")
}

// ClientCount reports the number of live subscribers.
func (h *ReportHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the broadcast loop and disconnects every subscriber.
func (h *ReportHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			delete(h.clients, conn)
		}
	})
}

// subscriberScope resolves the optional ?token= query parameter. Anonymous
// and citizen subscribers see every event, like the public report list.
func (h *Handler) subscriberScope(c *gin.Context) (services.Jurisdiction, error) {
	token := c.Query("token")
	if token == "" {
		return services.Jurisdiction{}, nil
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		return services.Jurisdiction{}, fmt.Errorf("invalid token: %w", err)
	}
	user, err := h.svc.GetUser(claims.UserID)
	if err != nil {
		return services.Jurisdiction{}, err
	}
	if !user.IsAdmin() {
		return services.Jurisdiction{}, nil
	}
	return services.JurisdictionOf(user), nil
}

// ReportsWebSocket streams report events until the client disconnects.
func (h *Handler) ReportsWebSocket(c *gin.Context) {
	scope, err := h.subscriberScope(c)
	if err != nil {
		logrus.WithError(err).Warn("websocket subscription rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	h.hub.register(conn, scope)
	defer h.hub.unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("report subscriber read failed")
			}
			return
		}
	}
}
