package server

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Tyrowin/bubingachat/internal/logging"
)

// Hub is the chat relay. One goroutine (Run) owns registration and fan-out;
// the mutex guards the registry for readers outside that goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	logger     logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan BroadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
	}
}

// Register hands c to the hub, which starts its pumps. It returns false if
// the hub has shut down or ctx ended first.
func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// Unregister removes c. Safe to call after shutdown.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// Broadcast queues msg for every registered client except msg.Exclude.
func (h *Hub) Broadcast(ctx context.Context, msg BroadcastMessage) bool {
	select {
	case h.broadcast <- msg:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error(h.ctx, "recovered from panic in safeSend", "panic", r)
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run is the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn(h.ctx, "nil client registration skipped")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info(h.ctx, "client connected", "addr", client.addr, "clients", clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				close(client.send)
				h.logger.Info(h.ctx, "client disconnected", "addr", client.addr, "clients", clientCount)
			} else {
				h.mutex.Unlock()
			}

		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

func (h *Hub) handleBroadcast(msg BroadcastMessage) {
	clients := lo.Filter(h.getClientSnapshot(), func(c *Client, _ int) bool {
		return c != msg.Exclude
	})

	h.logger.Debug(h.ctx, "broadcasting message", "targets", len(clients), "bytes", len(msg.Payload))

	failed := lo.Reject(clients, func(c *Client, _ int) bool {
		return h.safeSend(c, msg.Payload)
	})
	h.removeFailedClients(failed)
}

func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return lo.Keys(h.clients)
}

// removeFailedClients evicts clients whose send buffer was full.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			h.logger.Warn(h.ctx, "slow client evicted", "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients closes every connection and send channel so both pumps
// of each client return promptly.
func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := lo.Keys(h.clients)
	for _, client := range clients {
		delete(h.clients, client)
		client.closed = true
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.logger.Warn(h.ctx, "error closing client connection", "addr", client.addr, "error", err)
			}
		}
	}

	h.logger.Info(h.ctx, "closed client connections", "count", len(clients))
}

// Shutdown stops Run and waits up to timeout for every client goroutine.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info(context.Background(), "hub shutting down")
	h.cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
	case <-timer.C:
		return context.DeadlineExceeded
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info(context.Background(), "hub shutdown completed")
		return nil
	case <-timer.C:
		h.logger.Warn(context.Background(), "hub shutdown timed out, some client goroutines may still be running")
		return context.DeadlineExceeded
	}
}
