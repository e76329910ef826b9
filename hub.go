package main

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// Hub fans tick snapshots out to read-only websocket observers. It never
// feeds anything back into the simulation; a slow or dead observer is
// dropped, not waited on.
type Hub struct {
	log     zerolog.Logger
	matchID string

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64

	lastState atomic.Pointer[stateMessage]
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newHub(matchID string, log zerolog.Logger) *Hub {
	return &Hub{
		log:         log,
		matchID:     matchID,
		subscribers: make(map[uint64]*subscriber),
	}
}

// Subscribe registers an observer connection and sends it the latest
// snapshot as a hello message.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	id := h.nextID.Add(1)
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()

	if state := h.lastState.Load(); state != nil {
		hello := helloMessage{
			Type:    "hello",
			MatchID: h.matchID,
			Tick:    state.Tick,
			Units:   state.Units,
			Covers:  state.Covers,
		}
		if data, err := json.Marshal(hello); err == nil {
			h.send(id, sub, data)
		}
	}

	// Drain (and discard) inbound frames so pings are answered and the
	// close handshake works; observers have no commands to send.
	go func() {
		defer h.drop(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast serializes the message once and writes it to every observer.
func (h *Hub) Broadcast(msg stateMessage) {
	h.lastState.Store(&msg)

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal state message")
		return
	}

	h.mu.Lock()
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		h.send(id, sub, data)
	}
}

func (h *Hub) send(id uint64, sub *subscriber, data []byte) {
	sub.mu.Lock()
	sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := sub.conn.WriteMessage(websocket.TextMessage, data)
	sub.mu.Unlock()
	if err != nil {
		h.log.Debug().Err(err).Uint64("subscriber", id).Msg("dropping observer")
		h.drop(id)
	}
}

func (h *Hub) drop(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// LastTick reports the tick of the most recently broadcast snapshot.
func (h *Hub) LastTick() uint64 {
	if state := h.lastState.Load(); state != nil {
		return state.Tick
	}
	return 0
}

// SubscriberCount reports the number of connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every observer.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[uint64]*subscriber)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.conn.Close()
	}
}
