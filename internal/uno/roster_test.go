// internal/uno/roster_test.go
package uno

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWaitingRoom(t *testing.T, cfg RoomConfig) (*Room, Player, *mockBroadcaster) {
	t.Helper()
	if cfg.TurnTimer == nil {
		noClock := 0
		cfg.TurnTimer = &noClock
	}
	hostUser := Player{ID: uuid.New(), Nickname: "host"}
	r := NewRoom(hostUser, cfg)
	mb := newMockBroadcaster()
	r.BroadcastFn = mb.broadcast
	r.SendToFn = mb.sendTo
	t.Cleanup(r.Shutdown)
	return r, hostUser, mb
}

func TestJoinPlayerFillsSeats(t *testing.T) {
	r, hostUser, mb := newWaitingRoom(t, RoomConfig{MaxPlayers: 2})

	p2 := Player{ID: uuid.New(), Nickname: "p2"}
	require.NoError(t, r.JoinPlayer(p2))

	joined := mb.lastUserEvent(p2.ID)
	require.NotNil(t, joined)
	assert.Equal(t, EventRoomJoined, joined.Type)
	assert.Equal(t, RolePlayer, joined.Data.(RoomJoinedData).Role)

	p3 := Player{ID: uuid.New(), Nickname: "p3"}
	assert.ErrorIs(t, r.JoinPlayer(p3), ErrRoomFull)

	// The host's repeat join is a state resend, not an error.
	require.NoError(t, r.JoinPlayer(hostUser))
	assert.Equal(t, 2, r.Summary().PlayerCount)
}

func TestJoinPlayerDuringGame(t *testing.T) {
	// A spare seat keeps the full check out of the way.
	noClock := 0
	r, players, _ := setupTestRoom(t, 2, &RoomConfig{MaxPlayers: 3, TurnTimer: &noClock})

	late := Player{ID: uuid.New(), Nickname: "late"}
	assert.ErrorIs(t, r.JoinPlayer(late), ErrGameInProgress)

	// Spectating a running game is always allowed.
	require.NoError(t, r.JoinSpectator(late))
	assert.Equal(t, 1, r.Summary().SpectatorCount)
	_ = players

	// With every seat taken the capacity error wins over the
	// in-progress one.
	full, _, _ := setupTestRoom(t, 2, nil)
	assert.ErrorIs(t, full.JoinPlayer(late), ErrRoomFull)
}

func TestRejoinDuringGameResendsHand(t *testing.T) {
	r, players, mb := setupTestRoom(t, 2, nil)

	require.NoError(t, r.JoinPlayer(players[1]))
	ev := mb.lastUserEvent(players[1].ID)
	require.NotNil(t, ev)
	data := ev.Data.(RoomJoinedData)
	assert.Equal(t, RolePlayer, data.Role)
	assert.NotEmpty(t, data.Hand, "a reconnecting player gets their hand back")
}

func TestSpectatorJoinIsIdempotent(t *testing.T) {
	r, _, _ := newWaitingRoom(t, RoomConfig{})

	spect := Player{ID: uuid.New(), Nickname: "watcher"}
	require.NoError(t, r.JoinSpectator(spect))
	require.NoError(t, r.JoinSpectator(spect))
	assert.Equal(t, 1, r.Summary().SpectatorCount)
}

func TestPlayerToSpectatorVacatesSeatWhileWaiting(t *testing.T) {
	r, _, _ := newWaitingRoom(t, RoomConfig{})

	p2 := Player{ID: uuid.New(), Nickname: "p2"}
	require.NoError(t, r.JoinPlayer(p2))
	require.NoError(t, r.JoinSpectator(p2))

	s := r.Summary()
	assert.Equal(t, 1, s.PlayerCount)
	assert.Equal(t, 1, s.SpectatorCount)
}

func TestLeaveTransfersHost(t *testing.T) {
	r, hostUser, mb := newWaitingRoom(t, RoomConfig{})

	p2 := Player{ID: uuid.New(), Nickname: "p2"}
	require.NoError(t, r.JoinPlayer(p2))

	require.True(t, r.Leave(hostUser.ID))
	assert.Equal(t, p2.ID, r.HostID)

	ev := mb.lastOfType(EventPlayerLeft)
	require.NotNil(t, ev)
	assert.Equal(t, p2.ID, ev.Data.(LeftData).NewHost)
}

func TestLeaveMidGameVacatesSeat(t *testing.T) {
	r, players, _ := setupTestRoom(t, 3, nil)

	rig(r, 1, mkCard(ColorRed, KindNumber, 5), ColorRed, map[int][]Card{})

	require.True(t, r.Leave(players[1].ID))

	r.Mu.Lock()
	assert.Nil(t, r.Seats[1], "mid-game departure leaves the seat vacated, not removed")
	assert.Len(t, r.Seats, 3)
	assert.Equal(t, StatePlaying, r.State, "two occupied seats keep the game alive")
	assert.Equal(t, 2, r.Current, "turn moved on from the departed player")
	r.Mu.Unlock()
}

func TestLeaveMidGameBelowTwoEndsGame(t *testing.T) {
	r, players, mb := setupTestRoom(t, 2, nil)

	require.True(t, r.Leave(players[1].ID))

	assert.Equal(t, StateFinished, r.State)
	ev := mb.lastOfType(EventGameWon)
	require.NotNil(t, ev)
	assert.Nil(t, ev.Data.(GameWonData).Winner, "a collapsed game has no winner")
	assert.Equal(t, 0, ev.Data.(GameWonData).Score)
}

func TestLastLeaveInvokesOnEmpty(t *testing.T) {
	r, hostUser, _ := newWaitingRoom(t, RoomConfig{})

	var emptied []uuid.UUID
	r.OnEmpty = func(id uuid.UUID) { emptied = append(emptied, id) }

	spect := Player{ID: uuid.New(), Nickname: "watcher"}
	require.NoError(t, r.JoinSpectator(spect))

	require.True(t, r.Leave(hostUser.ID))
	assert.Empty(t, emptied, "a remaining spectator keeps the room alive")

	require.True(t, r.Leave(spect.ID))
	require.Len(t, emptied, 1)
	assert.Equal(t, r.ID, emptied[0])
}

func TestLeaveUnknownUser(t *testing.T) {
	r, _, _ := newWaitingRoom(t, RoomConfig{})
	assert.False(t, r.Leave(uuid.New()))
}

func TestChatRingAndTruncation(t *testing.T) {
	r, hostUser, mb := newWaitingRoom(t, RoomConfig{})

	long := make([]byte, chatMessageMax+50)
	for i := range long {
		long[i] = 'a'
	}
	r.Chat(hostUser, string(long))

	ev := mb.lastOfType(EventChatMessage)
	require.NotNil(t, ev)
	assert.Len(t, ev.Data.(ChatMessage).Message, chatMessageMax)

	// The cut lands on a rune boundary, never mid-sequence.
	r.Chat(hostUser, strings.Repeat("世", chatMessageMax))
	ev = mb.lastOfType(EventChatMessage)
	require.NotNil(t, ev)
	got := ev.Data.(ChatMessage).Message
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), chatMessageMax)

	for i := 0; i < chatHistoryCap+10; i++ {
		r.Chat(hostUser, "hello")
	}
	assert.Len(t, r.ChatHistory(), chatHistoryCap)
}
