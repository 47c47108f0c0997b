// internal/uno/module.go
package uno

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"partyhub/internal/host"
)

// ModuleID is the stable identifier the shell loads this game under.
const ModuleID = "uno"

// Historian receives a record of every accepted action for the game
// history stream. Implementations must not block the caller.
type Historian interface {
	RecordAction(roomID, userID uuid.UUID, action string)
}

// Results persists finished games to the profile counters. winner is
// uuid.Nil when the game ended without one.
type Results interface {
	RecordGameResult(ctx context.Context, participants []uuid.UUID, winner uuid.UUID) error
}

// ResultsFunc adapts a plain function to the Results interface.
type ResultsFunc func(ctx context.Context, participants []uuid.UUID, winner uuid.UUID) error

func (f ResultsFunc) RecordGameResult(ctx context.Context, participants []uuid.UUID, winner uuid.UUID) error {
	return f(ctx, participants, winner)
}

var _ host.Module = (*Module)(nil)

// Module adapts the room engine to the shell's game-module contract. It
// owns the room registry and the connection-to-room association; all
// game semantics live in Room.
type Module struct {
	mu        sync.Mutex
	transport host.Transport
	registry  *Registry
	userRoom  map[uuid.UUID]uuid.UUID
	historian Historian
	results   Results
}

// NewModule returns an unloaded module. historian and results may be nil.
func NewModule(historian Historian, results Results) *Module {
	return &Module{historian: historian, results: results}
}

func (m *Module) ID() string { return ModuleID }

// OnLoad initializes empty state and captures the transport.
func (m *Module) OnLoad(t host.Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transport = t
	m.registry = NewRegistry()
	m.userRoom = make(map[uuid.UUID]uuid.UUID)
	log.Printf("uno: module loaded")
}

// OnUnload stops every room's timers before dropping state, so no timer
// callback can fire into a torn-down module.
func (m *Module) OnUnload() {
	m.mu.Lock()
	reg := m.registry
	m.registry = nil
	m.userRoom = nil
	m.mu.Unlock()

	if reg != nil {
		reg.Shutdown()
	}
	log.Printf("uno: module unloaded")
}

// HandleConnection greets a fresh connection with the room directory.
func (m *Module) HandleConnection(user host.Identity) {
	reg := m.reg()
	if reg == nil {
		return
	}
	m.transport.SendToUser(user.ID, host.Event{
		Type: EventRoomsList,
		Data: RoomsListData{Rooms: reg.Summaries()},
	})
}

// HandleDisconnection applies leave semantics for whatever room the user
// occupied, seat or spectator slot alike.
func (m *Module) HandleDisconnection(user host.Identity) {
	m.leaveCurrent(user.ID)
}

// HandleAction decodes and dispatches one client action. A returned error
// rejects only that action; the transport reports it to the actor.
func (m *Module) HandleAction(user host.Identity, action string, payload json.RawMessage) error {
	act, err := DecodeAction(action, payload)
	if err != nil {
		return err
	}

	switch a := act.(type) {
	case *CreateRoomAction:
		err = m.createRoom(user, a)
	case *JoinRoomAction:
		err = m.joinRoom(user, a.RoomID)
	case *SpectateRoomAction:
		err = m.spectateRoom(user, a.RoomID)
	case *LeaveRoomAction:
		m.leaveCurrent(user.ID)
	case *ListRoomsAction:
		m.HandleConnection(user)
	case *StartGameAction:
		err = m.inRoom(user.ID, func(r *Room) error { return r.StartGame(user.ID) })
	case *PlayCardAction:
		err = m.inRoom(user.ID, func(r *Room) error { return r.PlayCard(user.ID, a.CardID, a.ChosenColor) })
	case *DrawCardAction:
		err = m.inRoom(user.ID, func(r *Room) error { return r.DrawCard(user.ID) })
	case *CallUnoAction:
		err = m.inRoom(user.ID, func(r *Room) error { return r.CallUno(user.ID) })
	case *CatchUnoAction:
		err = m.inRoom(user.ID, func(r *Room) error { return r.CatchUno(user.ID, a.TargetID) })
	case *ResetGameAction:
		err = m.inRoom(user.ID, func(r *Room) error { return r.Reset(user.ID) })
	case *ChatMessageAction:
		err = m.inRoom(user.ID, func(r *Room) error {
			r.Chat(PlayerFromIdentity(user), a.Text)
			return nil
		})
	}

	if err == nil {
		m.record(user.ID, action)
	}
	return err
}

// State is the admin introspection snapshot: public projections only.
func (m *Module) State() map[string]interface{} {
	reg := m.reg()
	if reg == nil {
		return nil
	}
	return map[string]interface{}{
		"module": ModuleID,
		"rooms":  reg.Summaries(),
	}
}

// AdminStats is the lightweight live-metrics snapshot.
func (m *Module) AdminStats() map[string]interface{} {
	reg := m.reg()
	if reg == nil {
		return nil
	}
	players, spectators, playing := 0, 0, 0
	for _, s := range reg.Summaries() {
		players += s.PlayerCount
		spectators += s.SpectatorCount
		if s.State == StatePlaying {
			playing++
		}
	}
	return map[string]interface{}{
		"module":      ModuleID,
		"rooms":       reg.Len(),
		"activeGames": playing,
		"players":     players,
		"spectators":  spectators,
	}
}

// Summaries lists live rooms for the HTTP directory. Empty when the
// module is not loaded.
func (m *Module) Summaries() []RoomSummary {
	reg := m.reg()
	if reg == nil {
		return nil
	}
	return reg.Summaries()
}

// Get returns a live room by ID, or nil.
func (m *Module) Get(id uuid.UUID) *Room {
	reg := m.reg()
	if reg == nil {
		return nil
	}
	return reg.Get(id)
}

func (m *Module) reg() *Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry
}

func (m *Module) roomFor(userID uuid.UUID) *Room {
	m.mu.Lock()
	reg := m.registry
	roomID, ok := m.userRoom[userID]
	m.mu.Unlock()
	if reg == nil || !ok {
		return nil
	}
	return reg.Get(roomID)
}

func (m *Module) inRoom(userID uuid.UUID, fn func(*Room) error) error {
	r := m.roomFor(userID)
	if r == nil {
		return ErrNotInRoom
	}
	return fn(r)
}

func (m *Module) createRoom(user host.Identity, a *CreateRoomAction) error {
	reg := m.reg()
	if reg == nil {
		return ErrRoomNotFound
	}
	m.leaveCurrent(user.ID)

	cfg := a.Settings
	if a.Name != "" {
		cfg.Name = a.Name
	}
	player := PlayerFromIdentity(user)
	room := NewRoom(player, cfg)
	m.wireRoom(room)
	reg.Add(room)

	m.bind(user.ID, room.ID)
	m.transport.SendToUser(user.ID, host.Event{Type: EventRoomCreated, Data: RoomCreatedData{RoomID: room.ID}})
	// The creator is already seated; JoinPlayer takes the rejoin path and
	// resends the scoped room state.
	if err := room.JoinPlayer(player); err != nil {
		return err
	}

	log.Printf("uno: room %s created by %s", room.ID, user.ID)
	m.broadcastRooms()
	return nil
}

func (m *Module) joinRoom(user host.Identity, roomID uuid.UUID) error {
	reg := m.reg()
	if reg == nil {
		return ErrRoomNotFound
	}
	room := reg.Get(roomID)
	if room == nil {
		return ErrRoomNotFound
	}
	if cur := m.currentRoomID(user.ID); cur != uuid.Nil && cur != roomID {
		m.leaveCurrent(user.ID)
	}
	if err := room.JoinPlayer(PlayerFromIdentity(user)); err != nil {
		return err
	}
	m.bind(user.ID, roomID)
	m.broadcastRooms()
	return nil
}

func (m *Module) spectateRoom(user host.Identity, roomID uuid.UUID) error {
	reg := m.reg()
	if reg == nil {
		return ErrRoomNotFound
	}
	room := reg.Get(roomID)
	if room == nil {
		return ErrRoomNotFound
	}
	if cur := m.currentRoomID(user.ID); cur != uuid.Nil && cur != roomID {
		m.leaveCurrent(user.ID)
	}
	if err := room.JoinSpectator(PlayerFromIdentity(user)); err != nil {
		return err
	}
	m.bind(user.ID, roomID)
	m.broadcastRooms()
	return nil
}

// leaveCurrent removes the user from whatever room they occupy. Safe to
// call when they occupy none.
func (m *Module) leaveCurrent(userID uuid.UUID) {
	m.mu.Lock()
	reg := m.registry
	roomID, ok := m.userRoom[userID]
	if ok {
		delete(m.userRoom, userID)
	}
	m.mu.Unlock()
	if !ok || reg == nil {
		return
	}

	m.transport.UnbindRoom(userID)
	if room := reg.Get(roomID); room != nil {
		room.Leave(userID)
	}
	m.broadcastRooms()
}

// wireRoom hands a fresh room its outbound delivery closures and its
// registry cleanup hook.
func (m *Module) wireRoom(room *Room) {
	roomID := room.ID
	room.BroadcastFn = func(ev host.Event) {
		m.transport.SendToRoom(roomID, ev)
	}
	room.SendToFn = func(userID uuid.UUID, ev host.Event) {
		m.transport.SendToUser(userID, ev)
	}
	room.OnEmpty = func(id uuid.UUID) {
		if reg := m.reg(); reg != nil {
			reg.Delete(id)
			log.Printf("uno: room %s deleted (empty)", id)
		}
		m.broadcastRooms()
	}
	room.OnGameEnd = func(participants []uuid.UUID, winner uuid.UUID) {
		if m.results == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := m.results.RecordGameResult(ctx, participants, winner); err != nil {
			log.Printf("uno: record result for room %s: %v", roomID, err)
		}
	}
}

func (m *Module) bind(userID, roomID uuid.UUID) {
	m.mu.Lock()
	if m.userRoom != nil {
		m.userRoom[userID] = roomID
	}
	m.mu.Unlock()
	m.transport.BindRoom(userID, roomID)
}

func (m *Module) currentRoomID(userID uuid.UUID) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userRoom[userID]
}

func (m *Module) broadcastRooms() {
	reg := m.reg()
	if reg == nil {
		return
	}
	m.transport.SendToAll(host.Event{
		Type: EventRoomsList,
		Data: RoomsListData{Rooms: reg.Summaries()},
	})
}

func (m *Module) record(userID uuid.UUID, action string) {
	if m.historian == nil {
		return
	}
	roomID := m.currentRoomID(userID)
	if roomID == uuid.Nil {
		return
	}
	m.historian.RecordAction(roomID, userID, action)
}
