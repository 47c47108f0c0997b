// internal/tictactoe/module.go
package tictactoe

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"partyhub/internal/host"
)

// ModuleID is the name the game host knows this module by.
const ModuleID = "tictactoe"

// Action wire names.
const (
	ActionCreateRoom   = "create-room"
	ActionJoinRoom     = "join-room"
	ActionSpectateRoom = "spectate-room"
	ActionLeaveRoom    = "leave-room"
	ActionListRooms    = "get-rooms"
	ActionMakeMove     = "make-move"
	ActionRematch      = "rematch"
	ActionChatMessage  = "chat-message"
)

type createRoomAction struct {
	Name     string     `json:"name"`
	Settings RoomConfig `json:"settings"`
}

type joinRoomAction struct {
	RoomID uuid.UUID `json:"roomId"`
}

type makeMoveAction struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type chatMessageAction struct {
	Text string `json:"message"`
}

var _ host.Module = (*Module)(nil)

// Module implements host.Module for two-player tic-tac-toe on a
// configurable board.
type Module struct {
	mu        sync.Mutex
	transport host.Transport
	rooms     map[uuid.UUID]*Room
	userRoom  map[uuid.UUID]uuid.UUID
}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) ID() string { return ModuleID }

func (m *Module) OnLoad(t host.Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transport = t
	m.rooms = make(map[uuid.UUID]*Room)
	m.userRoom = make(map[uuid.UUID]uuid.UUID)
}

func (m *Module) OnUnload() {
	m.mu.Lock()
	m.transport = nil
	m.rooms = nil
	m.userRoom = nil
	m.mu.Unlock()
}

func (m *Module) HandleConnection(user host.Identity) {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()
	if t != nil {
		t.SendToUser(user.ID, host.Event{Type: EventRoomsList, Data: RoomsListData{Rooms: m.Summaries()}})
	}
}

func (m *Module) HandleDisconnection(user host.Identity) {
	m.leaveCurrent(user.ID)
}

func (m *Module) HandleAction(user host.Identity, action string, payload json.RawMessage) error {
	switch action {
	case ActionCreateRoom:
		var a createRoomAction
		if err := decode(payload, &a); err != nil {
			return err
		}
		if a.Name != "" {
			a.Settings.Name = a.Name
		}
		return m.createRoom(user, a.Settings)
	case ActionJoinRoom:
		var a joinRoomAction
		if err := decode(payload, &a); err != nil {
			return err
		}
		return m.joinRoom(user, a.RoomID, false)
	case ActionSpectateRoom:
		var a joinRoomAction
		if err := decode(payload, &a); err != nil {
			return err
		}
		return m.joinRoom(user, a.RoomID, true)
	case ActionLeaveRoom:
		m.leaveCurrent(user.ID)
		return nil
	case ActionListRooms:
		m.HandleConnection(user)
		return nil
	case ActionMakeMove:
		var a makeMoveAction
		if err := decode(payload, &a); err != nil {
			return err
		}
		return m.inRoom(user.ID, func(r *Room) error {
			return r.Move(user.ID, a.Row, a.Col)
		})
	case ActionRematch:
		return m.inRoom(user.ID, func(r *Room) error {
			return r.Rematch(user.ID)
		})
	case ActionChatMessage:
		var a chatMessageAction
		if err := decode(payload, &a); err != nil {
			return err
		}
		return m.inRoom(user.ID, func(r *Room) error {
			r.Chat(playerFromIdentity(user), a.Text)
			return nil
		})
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (m *Module) State() map[string]interface{} {
	return map[string]interface{}{
		"module": ModuleID,
		"rooms":  m.Summaries(),
	}
}

func (m *Module) AdminStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	playing := 0
	for _, r := range m.rooms {
		r.Mu.Lock()
		if r.State == StatePlaying {
			playing++
		}
		r.Mu.Unlock()
	}
	return map[string]interface{}{
		"roomCount":    len(m.rooms),
		"activeGames":  playing,
		"usersInRooms": len(m.userRoom),
	}
}

// Summaries lists all rooms, oldest first.
func (m *Module) Summaries() []RoomSummary {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.Mu.Lock()
		out = append(out, r.summaryLocked())
		r.Mu.Unlock()
	}
	return out
}

func (m *Module) createRoom(user host.Identity, cfg RoomConfig) error {
	m.leaveCurrent(user.ID)

	r := NewRoom(playerFromIdentity(user), cfg)
	m.mu.Lock()
	t := m.transport
	if m.rooms == nil {
		m.mu.Unlock()
		return fmt.Errorf("module not loaded")
	}
	m.rooms[r.ID] = r
	m.userRoom[user.ID] = r.ID
	m.mu.Unlock()

	if t != nil {
		r.BroadcastFn = func(ev host.Event) { t.SendToRoom(r.ID, ev) }
		r.SendToFn = func(userID uuid.UUID, ev host.Event) { t.SendToUser(userID, ev) }
		t.BindRoom(user.ID, r.ID)
		t.SendToUser(user.ID, host.Event{Type: EventRoomCreated, Data: RoomData{Room: r.Snapshot()}})
		t.SendToUser(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
			Room:        r.Snapshot(),
			Role:        RolePlayer,
			PlayerIndex: 0,
			ChatHistory: nil,
		}})
	}
	m.broadcastRooms()
	return nil
}

func (m *Module) joinRoom(user host.Identity, roomID uuid.UUID, spectate bool) error {
	m.mu.Lock()
	r := m.rooms[roomID]
	t := m.transport
	current, hasCurrent := m.userRoom[user.ID]
	m.mu.Unlock()
	if r == nil {
		return ErrRoomNotFound
	}
	if hasCurrent && current != roomID {
		m.leaveCurrent(user.ID)
	}

	if spectate {
		r.JoinSpectator(playerFromIdentity(user))
	} else if err := r.JoinPlayer(playerFromIdentity(user)); err != nil {
		return err
	}

	m.mu.Lock()
	if m.userRoom != nil {
		m.userRoom[user.ID] = roomID
	}
	m.mu.Unlock()
	if t != nil {
		t.BindRoom(user.ID, roomID)
	}
	m.broadcastRooms()
	return nil
}

func (m *Module) leaveCurrent(userID uuid.UUID) {
	m.mu.Lock()
	roomID, ok := m.userRoom[userID]
	var r *Room
	if ok {
		delete(m.userRoom, userID)
		r = m.rooms[roomID]
	}
	t := m.transport
	m.mu.Unlock()
	if !ok || r == nil {
		return
	}

	if t != nil {
		t.UnbindRoom(userID)
	}
	if _, empty := r.Leave(userID); empty {
		m.mu.Lock()
		if m.rooms != nil {
			delete(m.rooms, roomID)
		}
		m.mu.Unlock()
	}
	m.broadcastRooms()
}

func (m *Module) inRoom(userID uuid.UUID, fn func(r *Room) error) error {
	m.mu.Lock()
	roomID, ok := m.userRoom[userID]
	var r *Room
	if ok {
		r = m.rooms[roomID]
	}
	m.mu.Unlock()
	if r == nil {
		return ErrNotInRoom
	}
	return fn(r)
}

func (m *Module) broadcastRooms() {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()
	if t != nil {
		t.SendToAll(host.Event{Type: EventRoomsList, Data: RoomsListData{Rooms: m.Summaries()}})
	}
}

func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

func playerFromIdentity(user host.Identity) Player {
	return Player{ID: user.ID, Nickname: user.Nickname, Avatar: user.Avatar}
}
