package server

import (
	"context"
	"sync"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// connLimits counts open websocket connections per remote address
type connLimits struct {
	mu    sync.Mutex
	perIP map[string]int
	total int
}

// acquire reserves a slot for ip, reporting false when a limit is reached
func (l *connLimits) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.total >= maxTotalConns || l.perIP[ip] >= maxConnsPerIP {
		return false
	}
	l.perIP[ip]++
	l.total++
	return true
}

func (l *connLimits) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := l.perIP[ip] - 1; n > 0 {
		l.perIP[ip] = n
	} else {
		delete(l.perIP, ip)
	}
	if l.total > 0 {
		l.total--
	}
}

// Hub owns the set of live clients. Joins and leaves are serialized through
// Run; reads of the count may happen from any goroutine.
type Hub struct {
	limits connLimits

	mu      sync.RWMutex
	clients map[*Client]struct{}
	joins   chan *Client
	leaves  chan *Client
	onCount func(int)
}

// NewHub creates a hub; onCount, if set, is told the client count after
// every change
func NewHub(onCount func(int)) *Hub {
	return &Hub{
		limits:  connLimits{perIP: make(map[string]int)},
		clients: make(map[*Client]struct{}),
		joins:   make(chan *Client, 64),
		leaves:  make(chan *Client, 64),
		onCount: onCount,
	}
}

// Acquire reserves a connection slot for ip. Every successful Acquire must
// be paired with a Release.
func (h *Hub) Acquire(ip string) bool { return h.limits.acquire(ip) }

// Release frees a slot taken by Acquire
func (h *Hub) Release(ip string) { h.limits.release(ip) }

// Run applies joins and leaves until ctx is done, then stops every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.stop()
			}
			clear(h.clients)
			h.mu.Unlock()
			return
		case c := <-h.joins:
			h.update(func() { h.clients[c] = struct{}{} })
		case c := <-h.leaves:
			h.update(func() {
				if _, ok := h.clients[c]; ok {
					delete(h.clients, c)
					c.stop()
				}
			})
		}
	}
}

func (h *Hub) update(fn func()) {
	h.mu.Lock()
	fn()
	n := len(h.clients)
	h.mu.Unlock()
	if h.onCount != nil {
		h.onCount(n)
	}
}

// ClientCount returns the number of joined clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Conns returns the number of reserved connection slots
func (h *Hub) Conns() int {
	h.limits.mu.Lock()
	defer h.limits.mu.Unlock()
	return h.limits.total
}
