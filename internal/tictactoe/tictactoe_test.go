// internal/tictactoe/tictactoe_test.go
package tictactoe

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyhub/internal/host"
)

type mockBroadcaster struct {
	mu         sync.Mutex
	roomEvents []host.Event
	userEvents map[uuid.UUID][]host.Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{userEvents: make(map[uuid.UUID][]host.Event)}
}

func (mb *mockBroadcaster) broadcast(ev host.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.roomEvents = append(mb.roomEvents, ev)
}

func (mb *mockBroadcaster) sendTo(userID uuid.UUID, ev host.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.userEvents[userID] = append(mb.userEvents[userID], ev)
}

func (mb *mockBroadcaster) lastOfType(eventType string) (host.Event, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.roomEvents) - 1; i >= 0; i-- {
		if mb.roomEvents[i].Type == eventType {
			return mb.roomEvents[i], true
		}
	}
	return host.Event{}, false
}

func testPlayer(name string) Player {
	return Player{ID: uuid.New(), Nickname: name}
}

func newTestRoom(t *testing.T, cfg RoomConfig) (*Room, *mockBroadcaster, Player, Player) {
	t.Helper()
	mb := newMockBroadcaster()
	alice := testPlayer("alice")
	bob := testPlayer("bob")
	r := NewRoom(alice, cfg)
	r.BroadcastFn = mb.broadcast
	r.SendToFn = mb.sendTo
	require.NoError(t, r.JoinPlayer(bob))
	require.Equal(t, StatePlaying, r.State)
	return r, mb, alice, bob
}

func TestRoomConfigClamping(t *testing.T) {
	r := NewRoom(testPlayer("alice"), RoomConfig{BoardSize: 50, WinLength: 9})
	assert.Equal(t, 10, r.BoardSize)
	assert.Equal(t, 5, r.WinLength)

	r = NewRoom(testPlayer("alice"), RoomConfig{BoardSize: 1, WinLength: 1})
	assert.Equal(t, 3, r.BoardSize)
	assert.Equal(t, 3, r.WinLength)

	// Win length can never exceed the board.
	r = NewRoom(testPlayer("alice"), RoomConfig{BoardSize: 4, WinLength: 5})
	assert.Equal(t, 4, r.WinLength)
}

func TestAutoStartOnSecondPlayer(t *testing.T) {
	mb := newMockBroadcaster()
	r := NewRoom(testPlayer("alice"), RoomConfig{})
	r.BroadcastFn = mb.broadcast
	r.SendToFn = mb.sendTo
	assert.Equal(t, StateWaiting, r.State)

	require.NoError(t, r.JoinPlayer(testPlayer("bob")))
	assert.Equal(t, StatePlaying, r.State)
	_, ok := mb.lastOfType(EventGameStarted)
	assert.True(t, ok)

	assert.ErrorIs(t, r.JoinPlayer(testPlayer("carol")), ErrGameInProgress)
}

func TestMoveValidation(t *testing.T) {
	r, _, alice, bob := newTestRoom(t, RoomConfig{})

	assert.ErrorIs(t, r.Move(bob.ID, 0, 0), ErrNotYourTurn)
	assert.ErrorIs(t, r.Move(uuid.New(), 0, 0), ErrNotAPlayer)
	assert.ErrorIs(t, r.Move(alice.ID, 3, 0), ErrOutOfBounds)
	assert.ErrorIs(t, r.Move(alice.ID, -1, 0), ErrOutOfBounds)

	require.NoError(t, r.Move(alice.ID, 1, 1))
	assert.ErrorIs(t, r.Move(bob.ID, 1, 1), ErrCellOccupied)
}

func TestWinDetection(t *testing.T) {
	r, mb, alice, bob := newTestRoom(t, RoomConfig{})

	// Alice takes the top row, bob fills elsewhere.
	require.NoError(t, r.Move(alice.ID, 0, 0))
	require.NoError(t, r.Move(bob.ID, 1, 0))
	require.NoError(t, r.Move(alice.ID, 0, 1))
	require.NoError(t, r.Move(bob.ID, 1, 1))
	require.NoError(t, r.Move(alice.ID, 0, 2))

	assert.Equal(t, StateFinished, r.State)
	ev, ok := mb.lastOfType(EventGameOver)
	require.True(t, ok)
	data := ev.Data.(GameOverData)
	require.NotNil(t, data.Winner)
	assert.Equal(t, alice.ID, data.Winner.ID)
	assert.Len(t, data.WinningLine, 3)

	assert.ErrorIs(t, r.Move(bob.ID, 2, 2), ErrNotPlaying)
}

func TestDiagonalWinOnLargeBoard(t *testing.T) {
	r, mb, alice, bob := newTestRoom(t, RoomConfig{BoardSize: 5, WinLength: 4})

	// Alice marks the main diagonal, completing it from the middle so
	// the scan must extend in both directions.
	for i, cell := range [][2]int{{0, 0}, {1, 1}, {3, 3}} {
		require.NoError(t, r.Move(alice.ID, cell[0], cell[1]))
		require.NoError(t, r.Move(bob.ID, 4, i))
	}
	require.NoError(t, r.Move(alice.ID, 2, 2))

	assert.Equal(t, StateFinished, r.State)
	ev, ok := mb.lastOfType(EventGameOver)
	require.True(t, ok)
	assert.Len(t, ev.Data.(GameOverData).WinningLine, 4)
}

func TestDrawOnFullBoard(t *testing.T) {
	r, mb, alice, bob := newTestRoom(t, RoomConfig{})

	// A known drawn sequence on a 3x3 board.
	moves := []struct {
		p        Player
		row, col int
	}{
		{alice, 0, 0}, {bob, 1, 1}, {alice, 2, 2}, {bob, 0, 1},
		{alice, 2, 1}, {bob, 2, 0}, {alice, 0, 2}, {bob, 1, 2},
		{alice, 1, 0},
	}
	for _, mv := range moves {
		require.NoError(t, r.Move(mv.p.ID, mv.row, mv.col))
	}

	assert.Equal(t, StateFinished, r.State)
	ev, ok := mb.lastOfType(EventGameOver)
	require.True(t, ok)
	data := ev.Data.(GameOverData)
	assert.True(t, data.Draw)
	assert.Nil(t, data.Winner)
}

func TestLeaveDuringGameForfeits(t *testing.T) {
	r, mb, alice, bob := newTestRoom(t, RoomConfig{})

	found, empty := r.Leave(alice.ID)
	assert.True(t, found)
	assert.False(t, empty)
	assert.Equal(t, StateFinished, r.State)

	ev, ok := mb.lastOfType(EventGameEnded)
	require.True(t, ok)
	data := ev.Data.(GameEndedData)
	assert.Equal(t, "Player left", data.Reason)
	require.NotNil(t, data.Winner)
	assert.Equal(t, bob.ID, data.Winner.ID)
	assert.Equal(t, bob.ID, r.HostID)
}

func TestRematchResetsBoard(t *testing.T) {
	r, mb, alice, bob := newTestRoom(t, RoomConfig{})

	assert.ErrorIs(t, r.Rematch(alice.ID), ErrNotPlaying)

	require.NoError(t, r.Move(alice.ID, 0, 0))
	require.NoError(t, r.Move(bob.ID, 1, 0))
	require.NoError(t, r.Move(alice.ID, 0, 1))
	require.NoError(t, r.Move(bob.ID, 1, 1))
	require.NoError(t, r.Move(alice.ID, 0, 2))
	require.Equal(t, StateFinished, r.State)

	require.NoError(t, r.Rematch(bob.ID))
	assert.Equal(t, StatePlaying, r.State)
	assert.Equal(t, 0, r.Current)
	assert.Equal(t, uuid.Nil, r.Winner)
	assert.Nil(t, r.WinningLine)
	for _, row := range r.Board {
		for _, cell := range row {
			assert.Equal(t, -1, cell)
		}
	}
	_, ok := mb.lastOfType(EventGameStarted)
	assert.True(t, ok)
}

func TestSpectatorJoinAndLeave(t *testing.T) {
	r, _, _, _ := newTestRoom(t, RoomConfig{})
	carol := testPlayer("carol")

	r.JoinSpectator(carol)
	r.JoinSpectator(carol)
	view := r.Snapshot()
	assert.Len(t, view.Spectators, 1)

	found, empty := r.Leave(carol.ID)
	assert.True(t, found)
	assert.False(t, empty)
}

func TestChatTruncatesOnRuneBoundary(t *testing.T) {
	r, mb, alice, _ := newTestRoom(t, RoomConfig{})

	r.Chat(alice, strings.Repeat("世", chatMessageMax))
	ev, ok := mb.lastOfType(EventChatMessage)
	require.True(t, ok)
	got := ev.Data.(ChatMessage).Message
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), chatMessageMax)
}

var _ host.Transport = (*fakeTransport)(nil)

type fakeTransport struct {
	mu     sync.Mutex
	sent   map[uuid.UUID][]host.Event
	global []host.Event
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[uuid.UUID][]host.Event)}
}

func (f *fakeTransport) SendToUser(userID uuid.UUID, ev host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[userID] = append(f.sent[userID], ev)
}

func (f *fakeTransport) SendToRoom(roomID uuid.UUID, ev host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = append(f.global, ev)
}

func (f *fakeTransport) SendToAll(ev host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = append(f.global, ev)
}

func (f *fakeTransport) BindRoom(userID, roomID uuid.UUID) {}
func (f *fakeTransport) UnbindRoom(userID uuid.UUID)       {}

func (f *fakeTransport) lastUserEvent(userID uuid.UUID, eventType string) (host.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	evs := f.sent[userID]
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == eventType {
			return evs[i], true
		}
	}
	return host.Event{}, false
}

func ident(name string) host.Identity {
	return host.Identity{ID: uuid.New(), Nickname: name}
}

func TestModuleFullGame(t *testing.T) {
	ft := newFakeTransport()
	m := NewModule()
	m.OnLoad(ft)

	alice := ident("alice")
	bob := ident("bob")

	require.NoError(t, m.HandleAction(alice, ActionCreateRoom, json.RawMessage(`{"settings":{"name":"grid"}}`)))
	ev, ok := ft.lastUserEvent(alice.ID, EventRoomCreated)
	require.True(t, ok)
	roomID := ev.Data.(RoomData).Room.ID

	payload, _ := json.Marshal(joinRoomAction{RoomID: roomID})
	require.NoError(t, m.HandleAction(bob, ActionJoinRoom, payload))

	move := func(u host.Identity, row, col int) error {
		p, _ := json.Marshal(makeMoveAction{Row: row, Col: col})
		return m.HandleAction(u, ActionMakeMove, p)
	}
	require.NoError(t, move(alice, 0, 0))
	require.NoError(t, move(bob, 1, 0))
	require.NoError(t, move(alice, 0, 1))
	require.NoError(t, move(bob, 1, 1))
	require.NoError(t, move(alice, 0, 2))

	state := m.State()
	assert.Equal(t, ModuleID, state["module"])
	assert.Len(t, state["rooms"].([]RoomSummary), 1)

	stats := m.AdminStats()
	assert.Equal(t, 1, stats["roomCount"])
	assert.Equal(t, 0, stats["activeGames"])
}

func TestModuleRequiresRoomForMoves(t *testing.T) {
	m := NewModule()
	m.OnLoad(newFakeTransport())

	err := m.HandleAction(ident("alice"), ActionMakeMove, json.RawMessage(`{"row":0,"col":0}`))
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestModuleDisconnectionEmptiesRoom(t *testing.T) {
	ft := newFakeTransport()
	m := NewModule()
	m.OnLoad(ft)

	alice := ident("alice")
	require.NoError(t, m.HandleAction(alice, ActionCreateRoom, nil))
	require.Len(t, m.Summaries(), 1)

	m.HandleDisconnection(alice)
	assert.Empty(t, m.Summaries())
}
