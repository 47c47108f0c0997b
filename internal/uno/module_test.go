// internal/uno/module_test.go
package uno

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyhub/internal/host"
)

var _ host.Transport = (*fakeTransport)(nil)

// fakeTransport records deliveries and room bindings in memory.
type fakeTransport struct {
	mu         sync.Mutex
	all        []host.Event
	userEvents map[uuid.UUID][]host.Event
	roomEvents map[uuid.UUID][]host.Event
	bindings   map[uuid.UUID]uuid.UUID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		userEvents: make(map[uuid.UUID][]host.Event),
		roomEvents: make(map[uuid.UUID][]host.Event),
		bindings:   make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeTransport) SendToUser(userID uuid.UUID, ev host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEvents[userID] = append(f.userEvents[userID], ev)
}

func (f *fakeTransport) SendToRoom(roomID uuid.UUID, ev host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomEvents[roomID] = append(f.roomEvents[roomID], ev)
}

func (f *fakeTransport) SendToAll(ev host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = append(f.all, ev)
}

func (f *fakeTransport) BindRoom(userID, roomID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings[userID] = roomID
}

func (f *fakeTransport) UnbindRoom(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bindings, userID)
}

func (f *fakeTransport) boundRoom(userID uuid.UUID) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bindings[userID]
}

func (f *fakeTransport) lastUserEvent(userID uuid.UUID) *host.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.userEvents[userID]
	if len(events) == 0 {
		return nil
	}
	ev := events[len(events)-1]
	return &ev
}

// stubHistorian records action receipts.
type stubHistorian struct {
	mu   sync.Mutex
	recs []string
}

func (s *stubHistorian) RecordAction(roomID, userID uuid.UUID, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, action)
}

func (s *stubHistorian) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// stubResults captures finished-game reports.
type stubResults struct {
	mu           sync.Mutex
	participants [][]uuid.UUID
	winners      []uuid.UUID
}

func (s *stubResults) RecordGameResult(ctx context.Context, participants []uuid.UUID, winner uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, participants)
	s.winners = append(s.winners, winner)
	return nil
}

func (s *stubResults) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.winners)
}

func (s *stubResults) last() (winner uuid.UUID, participants []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.winners)
	return s.winners[n-1], s.participants[n-1]
}

func loadedModule(t *testing.T) (*Module, *fakeTransport, *stubHistorian) {
	t.Helper()
	ft := newFakeTransport()
	hist := &stubHistorian{}
	m := NewModule(hist, nil)
	m.OnLoad(ft)
	t.Cleanup(m.OnUnload)
	return m, ft, hist
}

func ident(nick string) host.Identity {
	return host.Identity{ID: uuid.New(), Nickname: nick}
}

func TestModuleCreateAndJoinRoom(t *testing.T) {
	m, ft, hist := loadedModule(t)

	alice := ident("alice")
	noClock := `{"name":"table one","settings":{"turnTimer":0}}`
	require.NoError(t, m.HandleAction(alice, ActionCreateRoom, json.RawMessage(noClock)))

	rooms := m.Summaries()
	require.Len(t, rooms, 1)
	assert.Equal(t, "table one", rooms[0].Name)
	assert.Equal(t, rooms[0].ID, ft.boundRoom(alice.ID))

	bob := ident("bob")
	joinPayload, _ := json.Marshal(JoinRoomAction{RoomID: rooms[0].ID})
	require.NoError(t, m.HandleAction(bob, ActionJoinRoom, joinPayload))
	assert.Equal(t, 2, m.Summaries()[0].PlayerCount)

	assert.GreaterOrEqual(t, hist.count(), 2, "accepted actions reach the historian")
}

func TestModuleJoinMissingRoom(t *testing.T) {
	m, _, _ := loadedModule(t)

	payload, _ := json.Marshal(JoinRoomAction{RoomID: uuid.New()})
	assert.ErrorIs(t, m.HandleAction(ident("alice"), ActionJoinRoom, payload), ErrRoomNotFound)
}

func TestModuleUnknownAction(t *testing.T) {
	m, _, _ := loadedModule(t)
	assert.Error(t, m.HandleAction(ident("alice"), "warp-drive", nil))
}

func TestModuleGameActionRequiresRoom(t *testing.T) {
	m, _, _ := loadedModule(t)
	assert.ErrorIs(t, m.HandleAction(ident("alice"), ActionDrawCard, nil), ErrNotInRoom)
}

func TestModuleDisconnectionEmptiesRoom(t *testing.T) {
	m, ft, _ := loadedModule(t)

	alice := ident("alice")
	require.NoError(t, m.HandleAction(alice, ActionCreateRoom, json.RawMessage(`{"settings":{"turnTimer":0}}`)))
	require.Len(t, m.Summaries(), 1)

	m.HandleDisconnection(alice)

	assert.Empty(t, m.Summaries(), "an empty room is deleted")
	assert.Equal(t, uuid.Nil, ft.boundRoom(alice.ID))
}

func TestModuleConnectionSendsDirectory(t *testing.T) {
	m, ft, _ := loadedModule(t)

	alice := ident("alice")
	m.HandleConnection(alice)

	ev := ft.lastUserEvent(alice.ID)
	require.NotNil(t, ev)
	assert.Equal(t, EventRoomsList, ev.Type)
}

func TestModuleFullGameOverTransport(t *testing.T) {
	m, ft, _ := loadedModule(t)

	alice := ident("alice")
	bob := ident("bob")
	require.NoError(t, m.HandleAction(alice, ActionCreateRoom, json.RawMessage(`{"settings":{"turnTimer":0}}`)))
	roomID := m.Summaries()[0].ID

	joinPayload, _ := json.Marshal(JoinRoomAction{RoomID: roomID})
	require.NoError(t, m.HandleAction(bob, ActionJoinRoom, joinPayload))
	require.NoError(t, m.HandleAction(alice, ActionStartGame, nil))

	room := m.Get(roomID)
	require.NotNil(t, room)
	assert.Equal(t, StatePlaying, room.State)

	// Whoever holds the turn draws; the other is rejected.
	room.Mu.Lock()
	current := room.Seats[room.Current].ID
	room.Mu.Unlock()
	other := alice
	actor := bob
	if current == alice.ID {
		actor, other = alice, bob
	}
	require.NoError(t, m.HandleAction(actor, ActionDrawCard, nil))
	assert.Error(t, m.HandleAction(actor, ActionDrawCard, nil), "turn passed after drawing")
	_ = other

	require.NoError(t, m.HandleAction(alice, ActionChatMessage, json.RawMessage(`{"text":"good luck"}`)))
	assert.NotEmpty(t, ft.roomEvents[roomID])
}

func TestModuleStateAndStats(t *testing.T) {
	m, _, _ := loadedModule(t)

	require.NoError(t, m.HandleAction(ident("alice"), ActionCreateRoom, json.RawMessage(`{"settings":{"turnTimer":0}}`)))

	state := m.State()
	require.NotNil(t, state)
	assert.Equal(t, ModuleID, state["module"])
	assert.Len(t, state["rooms"].([]RoomSummary), 1)

	stats := m.AdminStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats["rooms"])
	assert.Equal(t, 1, stats["players"])
}

func TestModuleRecordsGameResults(t *testing.T) {
	ft := newFakeTransport()
	res := &stubResults{}
	m := NewModule(nil, res)
	m.OnLoad(ft)
	t.Cleanup(m.OnUnload)

	alice := ident("alice")
	bob := ident("bob")
	require.NoError(t, m.HandleAction(alice, ActionCreateRoom, json.RawMessage(`{"settings":{"turnTimer":0}}`)))
	roomID := m.Summaries()[0].ID
	joinPayload, _ := json.Marshal(JoinRoomAction{RoomID: roomID})
	require.NoError(t, m.HandleAction(bob, ActionJoinRoom, joinPayload))
	require.NoError(t, m.HandleAction(alice, ActionStartGame, nil))

	r := m.Get(roomID)
	require.NotNil(t, r)
	last := mkCard(ColorRed, KindNumber, 3)
	rig(r, 0, mkCard(ColorRed, KindNumber, 5), ColorRed, map[int][]Card{
		0: {last},
		1: {mkCard(ColorGreen, KindNumber, 9)},
	})
	require.NoError(t, r.PlayCard(alice.ID, last.ID, ""))

	require.Eventually(t, func() bool { return res.count() == 1 }, time.Second, 10*time.Millisecond)
	winner, participants := res.last()
	assert.Equal(t, alice.ID, winner)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, participants)
}

func TestModuleUnloadDropsState(t *testing.T) {
	ft := newFakeTransport()
	m := NewModule(nil, nil)
	m.OnLoad(ft)

	require.NoError(t, m.HandleAction(ident("alice"), ActionCreateRoom, json.RawMessage(`{"settings":{"turnTimer":0}}`)))
	require.Len(t, m.Summaries(), 1)

	m.OnUnload()
	assert.Empty(t, m.Summaries())

	m.OnLoad(ft)
	assert.Empty(t, m.Summaries(), "reload starts from scratch")
}
