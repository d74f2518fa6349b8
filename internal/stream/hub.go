package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

const liveChannel = "activity:live:broadcast"

// Hub fans live snapshot payloads out to websocket clients. Only one
// session is ever live, so there is a single broadcast channel; redis
// bridges it across instances when configured.
type Hub struct {
	redis   *redis.Client
	clients map[*Client]struct{}
	mu      sync.RWMutex

	// publish queues outbound payloads so Broadcast never waits on a redis
	// round trip; the engine calls Broadcast on its dispatch path.
	publish chan []byte
}

type Client struct {
	Send chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[*Client]struct{}{},
	}

	if redisClient != nil {
		h.publish = make(chan []byte, 64)
		go h.publishRedis()
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register() *Client {
	client := &Client{
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// Broadcast sends the payload to every connected client without blocking;
// a client that cannot keep up drops frames rather than stalling the
// engine's dispatch path. With redis configured the payload goes through
// the shared channel so every instance delivers it exactly once; a full
// publish queue drops the frame for the same reason.
func (h *Hub) Broadcast(payload []byte) {
	if h.publish != nil {
		select {
		case h.publish <- payload:
		default:
		}
		return
	}
	h.deliver(payload)
}

func (h *Hub) publishRedis() {
	ctx := context.Background()
	for payload := range h.publish {
		if err := h.redis.Publish(ctx, liveChannel, payload).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, liveChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver([]byte(msg.Payload))
	}
}
