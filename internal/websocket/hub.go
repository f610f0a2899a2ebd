// Package websocket pushes server events (log lines, provider health changes)
// to browser clients. Clients pick the topics they want with
// /ws?topics=logs,health; no topics means everything.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Event types and the topics they belong to. The topic is the part of the
// type before the colon.
const (
	EventLogEntry      = "logs:entry"
	EventHealthUpdated = "health:updated"

	TopicLogs   = "logs"
	TopicHealth = "health"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10

	// Clients only ever send control frames.
	maxInboundSize = 512
	queueSize      = 256
)

var (
	ErrBroadcastQueueFull = errors.New("broadcast queue full")
	ErrHubStopped         = errors.New("event hub stopped")
	ErrUnknownTopic       = errors.New("unknown event topic")
)

var knownTopics = map[string]bool{TopicLogs: true, TopicHealth: true}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the echo middleware
	},
}

// Event is the JSON frame sent to clients.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

type envelope struct {
	topic string
	frame []byte
}

type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	topics map[string]bool
	outbox chan []byte
}

func (s *subscriber) wants(topic string) bool {
	return len(s.topics) == 0 || s.topics[topic]
}

// Hub owns the subscriber set. Only Run mutates it.
type Hub struct {
	events chan envelope
	join   chan *subscriber
	leave  chan *subscriber
	done   chan struct{}

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}

	logger zerolog.Logger
}

// NewHub creates a hub. Nothing is delivered until Run is started.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		events:      make(chan envelope, queueSize),
		join:        make(chan *subscriber),
		leave:       make(chan *subscriber),
		done:        make(chan struct{}),
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger.With().Str("component", "websocket").Logger(),
	}
}

// Run delivers events until ctx is done, then disconnects every subscriber.
// A hub cannot be restarted.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.subscribers {
				h.drop(s)
			}
			h.mu.Unlock()
			h.logger.Debug().Msg("Event hub stopped")
			return

		case s := <-h.join:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()

		case s := <-h.leave:
			h.mu.Lock()
			if _, ok := h.subscribers[s]; ok {
				h.drop(s)
			}
			h.mu.Unlock()

		case ev := <-h.events:
			h.mu.Lock()
			for s := range h.subscribers {
				if !s.wants(ev.topic) {
					continue
				}
				select {
				case s.outbox <- ev.frame:
				default:
					// A subscriber that cannot keep up is disconnected.
					h.drop(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(s *subscriber) {
	delete(h.subscribers, s)
	close(s.outbox)
}

// Broadcast queues an event for the subscribers of its topic. It never blocks.
func (h *Hub) Broadcast(eventType string, payload interface{}) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	frame, err := json.Marshal(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	topic, _, _ := strings.Cut(eventType, ":")
	select {
	case h.events <- envelope{topic: topic, frame: frame}:
		return nil
	default:
		return ErrBroadcastQueueFull
	}
}

// Subscribers counts connected clients per topic.
func (h *Hub) Subscribers() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	counts := make(map[string]int, len(knownTopics))
	for topic := range knownTopics {
		counts[topic] = 0
	}
	for s := range h.subscribers {
		for topic := range knownTopics {
			if s.wants(topic) {
				counts[topic]++
			}
		}
	}
	return counts
}

// HandleWebSocket upgrades the request and subscribes the client.
// GET /api/v1/ws?topics=logs,health
func (h *Hub) HandleWebSocket(c echo.Context) error {
	topics, err := parseTopics(c.QueryParam("topics"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	select {
	case <-h.done:
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrHubStopped.Error())
	default:
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	s := &subscriber{
		hub:    h,
		conn:   conn,
		topics: topics,
		outbox: make(chan []byte, queueSize),
	}

	select {
	case h.join <- s:
	case <-h.done:
		conn.Close()
		return nil
	}

	go s.writeLoop()
	go s.readLoop()
	return nil
}

// remove asks Run to forget s. It returns immediately once the hub has stopped.
func (h *Hub) remove(s *subscriber) {
	select {
	case h.leave <- s:
	case <-h.done:
	}
}

func parseTopics(raw string) (map[string]bool, error) {
	topics := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !knownTopics[t] {
			return nil, errors.Join(ErrUnknownTopic, errors.New(t))
		}
		topics[t] = true
	}
	return topics, nil
}

// readLoop keeps the read side serviced so pongs and close frames arrive.
func (s *subscriber) readLoop() {
	defer func() {
		s.hub.remove(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Debug().Err(err).Msg("Subscriber disconnected")
			}
			return
		}
	}
}

// writeLoop sends queued frames and keep-alive pings until the outbox closes.
func (s *subscriber) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, open := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !open {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
