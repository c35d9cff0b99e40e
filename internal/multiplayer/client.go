package multiplayer

import (
	"sort"
	"sync"
)

// ClientHandle is the transport-neutral interface for communicating with a client.
// It allows the coordinator and gateway to send events without depending on websocket or SSH.
type ClientHandle interface {
	// ID returns the unique client identifier.
	ID() ClientID

	// Send sends an event to the client asynchronously.
	// Must be non-blocking; implementations should use buffered channels.
	Send(evt Event)

	// Done returns a channel that closes when the client goes away.
	Done() <-chan struct{}

	// Close tells the transport to drop the client.
	Close()
}

// ChannelClient is a ClientHandle implementation using Go channels.
// Transports read Events() in their own write loop.
type ChannelClient struct {
	id       ClientID
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelClient creates a new channel-based client handle.
// eventBufferSize controls how many events can be buffered before dropping.
func NewChannelClient(id ClientID, eventBufferSize int) *ChannelClient {
	if eventBufferSize < 1 {
		eventBufferSize = 64 // Default buffer size
	}
	return &ChannelClient{
		id:     id,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the client identifier.
func (c *ChannelClient) ID() ClientID {
	return c.id
}

// Send sends an event to the client.
// If the buffer is full, old events are dropped to prevent blocking.
func (c *ChannelClient) Send(evt Event) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.events <- evt:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- evt:
		default:
		}
	}
}

// Events returns the channel to receive events from.
func (c *ChannelClient) Events() <-chan Event {
	return c.events
}

// Done returns the done channel.
func (c *ChannelClient) Done() <-chan struct{} {
	return c.done
}

// Close marks the client as done.
// Safe to call multiple times.
func (c *ChannelClient) Close() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// Membership binds a client to a player in a session.
type Membership struct {
	SessionID string
	PlayerID  string
}

// ClientRegistry tracks connected clients and the session group each belongs to.
// Thread-safe for concurrent access.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[ClientID]ClientHandle
	members map[ClientID]Membership
}

// NewClientRegistry creates a new client registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[ClientID]ClientHandle),
		members: make(map[ClientID]Membership),
	}
}

// Register adds a client to the registry.
func (r *ClientRegistry) Register(client ClientHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID()] = client
}

// Unregister removes a client and returns its membership, if any.
func (r *ClientRegistry) Unregister(id ClientID) (Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	delete(r.clients, id)
	delete(r.members, id)
	return m, ok
}

// Get retrieves a client by ID.
func (r *ClientRegistry) Get(id ClientID) (ClientHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Bind puts a registered client in a session group, replacing any previous one.
func (r *ClientRegistry) Bind(id ClientID, m Membership) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; ok {
		r.members[id] = m
	}
}

// Takeover binds id to m and unbinds every other client bound to the same
// player of the same session. The displaced clients are returned so the
// transport can close them.
func (r *ClientRegistry) Takeover(id ClientID, m Membership) []ClientHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return nil
	}
	var displaced []ClientHandle
	for other, om := range r.members {
		if other != id && om == m {
			delete(r.members, other)
			if c, ok := r.clients[other]; ok {
				displaced = append(displaced, c)
			}
		}
	}
	r.members[id] = m
	return displaced
}

// Bound reports whether any client is bound to m.
func (r *ClientRegistry) Bound(m Membership) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, om := range r.members {
		if om == m {
			return true
		}
	}
	return false
}

// Unbind removes a client from its session group.
func (r *ClientRegistry) Unbind(id ClientID) (Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	delete(r.members, id)
	return m, ok
}

// Membership returns the session group of a client.
func (r *ClientRegistry) Membership(id ClientID) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	return m, ok
}

// Count returns the number of registered clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

type boundClient struct {
	handle   ClientHandle
	playerID string
}

// sessionClients returns the clients bound to sessionID ordered by client id.
func (r *ClientRegistry) sessionClients(sessionID string) []boundClient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ClientID, 0)
	for id, m := range r.members {
		if m.SessionID == sessionID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]boundClient, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.clients[id]; ok {
			out = append(out, boundClient{handle: c, playerID: r.members[id].PlayerID})
		}
	}
	return out
}

// PublishSnapshot implements Publisher. Each client receives the snapshot
// with its own player's confirmed input sequence.
func (r *ClientRegistry) PublishSnapshot(sessionID string, evt SnapshotEvent) {
	for _, c := range r.sessionClients(sessionID) {
		c.handle.Send(SnapshotEvent{Snapshot: evt.Snapshot.ForPlayer(c.playerID)})
	}
}

// Broadcast sends evt to every client in the session group except the
// optional excluded client.
func (r *ClientRegistry) Broadcast(sessionID string, evt Event, except ClientID) {
	for _, c := range r.sessionClients(sessionID) {
		if c.handle.ID() != except {
			c.handle.Send(evt)
		}
	}
}

// Dispatch routes a session-scoped event to its session group.
// Other events are ignored.
func (r *ClientRegistry) Dispatch(evt Event) {
	if se, ok := evt.(SessionEvent); ok {
		r.Broadcast(se.Session(), evt, "")
	}
}

// Ensure ClientRegistry implements Publisher
var _ Publisher = (*ClientRegistry)(nil)
