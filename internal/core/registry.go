package core

import "sync"

// Registry is the live set of open connections. All methods are safe for
// concurrent use; Snapshot returns an immutable copy so callers never iterate
// the live set while it is being mutated.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	order   []string // registration order
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register adds a client and returns its connection id. Registration happens
// exactly once per physical connection, at accept time.
func (r *Registry) Register(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return c.ID
	}
	r.clients[c.ID] = c
	r.order = append(r.order, c.ID)
	return c.ID
}

// Classify assigns identity and role to a registered connection. A second
// classification is treated as a correction and overwrites both fields.
// Returns false if the connection is not registered.
func (r *Registry) Classify(id, identity string, role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return false
	}
	if identity != "" {
		c.Identity = identity
	}
	c.Role = role
	return true
}

// Unregister removes a connection. Idempotent; returns true only on the call
// that actually removed it.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the client for a connection id.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Snapshot returns the registered clients in registration order.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.clients[id])
	}
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
