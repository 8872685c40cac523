// Package notify pushes live updates to websocket subscribers and sends mail.
package notify

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"gelift/internal/services"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type subscriber struct {
	conn   Conn
	userID uint
}

type message struct {
	channel     string
	excludeUser uint
	payload     interface{}
}

// Hub fans messages out to subscribers of a channel. A single goroutine does
// all writes, so connections never see concurrent writers.
type Hub struct {
	clients   map[string]map[Conn]subscriber
	broadcast chan message
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Conn]subscriber),
		broadcast: make(chan message, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func TeamChannel(teamID uint) string   { return fmt.Sprintf("team:%d", teamID) }
func EventChannel(eventID uint) string { return fmt.Sprintf("event:%d", eventID) }

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg message) {
	h.mu.Lock()
	targets := make([]subscriber, 0, len(h.clients[msg.channel]))
	for _, sub := range h.clients[msg.channel] {
		if msg.excludeUser != 0 && sub.userID == msg.excludeUser {
			continue
		}
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if err := sub.conn.WriteJSON(msg.payload); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"channel":  msg.channel,
				"conn_ptr": fmt.Sprintf("%p", sub.conn),
			}).Info("Failed to push to client, unregistering.")
			h.Unregister(msg.channel, sub.conn)
			_ = sub.conn.Close()
		}
	}
}

// Register subscribes conn to channel on behalf of userID (0 for anonymous).
func (h *Hub) Register(channel string, userID uint, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[channel]; !ok {
		h.clients[channel] = make(map[Conn]subscriber)
	}
	h.clients[channel][conn] = subscriber{conn: conn, userID: userID}
	logrus.WithFields(logrus.Fields{
		"channel":  channel,
		"user_id":  userID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client registered with hub.")
}

func (h *Hub) Unregister(channel string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[channel]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// Publish queues payload for channel. Messages are dropped when the queue is full.
func (h *Hub) Publish(channel string, excludeUser uint, payload interface{}) {
	select {
	case h.broadcast <- message{channel: channel, excludeUser: excludeUser, payload: payload}:
	case <-h.done:
	default:
		logrus.WithField("channel", channel).Warn("Hub broadcast channel full, dropping message.")
	}
}

// Subscribers reports how many connections listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[channel])
}

// Close stops the broadcast loop and closes every connection.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for channel, clients := range h.clients {
			for conn := range clients {
				_ = conn.Close()
			}
			delete(h.clients, channel)
		}
	})
}

// TimerChanged tells the other members of a team that the timer flipped.
func (h *Hub) TimerChanged(teamID, byUserID uint, started bool) {
	h.Publish(TeamChannel(teamID), byUserID, map[string]interface{}{
		"type":          "timer",
		"team_id":       teamID,
		"timer_started": started,
	})
}

// BreadcrumbAdded feeds the live spectator map of the event.
func (h *Hub) BreadcrumbAdded(p services.TrackPoint) {
	h.Publish(EventChannel(p.EventID), 0, map[string]interface{}{
		"type":     "location",
		"location": p,
	})
}

var _ services.Notifier = (*Hub)(nil)
