// internal/host/host.go
package host

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Identity is the already-authenticated user attached to every inbound
// action. The transport layer resolves and verifies it before any game
// module sees it; modules trust it as-is.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Avatar   string    `json:"avatar,omitempty"`
}

// Event is the outbound message envelope. Every message names an event
// kind and carries a JSON-serializable payload.
type Event struct {
	Type string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Transport is the outbound delivery primitive the hosting shell provides
// to game modules. It owns socket lifecycles and the per-connection
// "current room" association; modules only name recipients.
type Transport interface {
	// SendToUser delivers ev to one identity, if currently connected.
	SendToUser(userID uuid.UUID, ev Event)
	// SendToRoom delivers ev to every identity currently associated with the room.
	SendToRoom(roomID uuid.UUID, ev Event)
	// SendToAll delivers ev to every connected identity.
	SendToAll(ev Event)
	// BindRoom associates a user's connection with a room for SendToRoom fan-out.
	BindRoom(userID, roomID uuid.UUID)
	// UnbindRoom clears a user's room association.
	UnbindRoom(userID uuid.UUID)
}

// Module is the contract a server-side game module implements. The shell
// loads exactly one module at a time and funnels all connection and
// action traffic to it.
type Module interface {
	// ID returns the stable module identifier, e.g. "uno".
	ID() string
	// OnLoad is called when the module becomes the active game. All
	// in-memory state must start empty.
	OnLoad(t Transport)
	// OnUnload is called when the shell switches away from this module.
	// It must cancel every outstanding timer before clearing state so no
	// callback fires into a torn-down module.
	OnUnload()
	HandleConnection(user Identity)
	HandleDisconnection(user Identity)
	// HandleAction processes one inbound action. A non-nil error is a
	// rejection of that single action and is reported only to the actor.
	HandleAction(user Identity, action string, payload json.RawMessage) error
	// State returns an introspection snapshot for the admin layer. It
	// must never include private hand contents.
	State() map[string]interface{}
	// AdminStats returns a lightweight live-metrics snapshot.
	AdminStats() map[string]interface{}
}

// Host owns the set of registered game modules and the one currently
// active. It is the Go equivalent of the shell's game loader: switching
// the active game unloads the previous module first.
type Host struct {
	mu        sync.Mutex
	transport Transport
	modules   map[string]Module
	active    Module
}

// New returns a Host that will hand the given transport to modules on load.
func New(t Transport) *Host {
	return &Host{
		transport: t,
		modules:   make(map[string]Module),
	}
}

// Register makes a module available for loading. Registering does not load it.
func (h *Host) Register(m Module) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules[m.ID()] = m
}

// Load switches the active game to moduleID. The previous module, if any,
// is unloaded first. Returns false if no such module is registered.
func (h *Host) Load(moduleID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.modules[moduleID]
	if !ok {
		log.Printf("host: no module registered under %q", moduleID)
		return false
	}
	if h.active != nil {
		log.Printf("host: unloading module %q", h.active.ID())
		h.active.OnUnload()
	}
	h.active = m
	log.Printf("host: loaded module %q", moduleID)
	m.OnLoad(h.transport)
	return true
}

// Unload deactivates the current module, if any.
func (h *Host) Unload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != nil {
		h.active.OnUnload()
		h.active = nil
	}
}

// ActiveID returns the identifier of the active module, or "" if none.
func (h *Host) ActiveID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return ""
	}
	return h.active.ID()
}

func (h *Host) current() Module {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// HandleConnection forwards a transport-level connect event to the active module.
func (h *Host) HandleConnection(user Identity) {
	if m := h.current(); m != nil {
		m.HandleConnection(user)
	}
}

// HandleDisconnection forwards a transport-level disconnect event to the active module.
func (h *Host) HandleDisconnection(user Identity) {
	if m := h.current(); m != nil {
		m.HandleDisconnection(user)
	}
}

// HandleAction routes one inbound action to the active module.
func (h *Host) HandleAction(user Identity, action string, payload json.RawMessage) error {
	m := h.current()
	if m == nil {
		return nil
	}
	return m.HandleAction(user, action, payload)
}

// State returns the active module's introspection snapshot.
func (h *Host) State() map[string]interface{} {
	if m := h.current(); m != nil {
		return m.State()
	}
	return nil
}

// AdminStats returns the active module's metrics snapshot.
func (h *Host) AdminStats() map[string]interface{} {
	if m := h.current(); m != nil {
		return m.AdminStats()
	}
	return nil
}
