// internal/uno/view_test.go
package uno

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHidesHands(t *testing.T) {
	r, players, _ := setupTestRoom(t, 2, nil)

	secret := mkCard(ColorRed, KindNumber, 7)
	rig(r, 0, mkCard(ColorRed, KindNumber, 5), ColorRed, map[int][]Card{
		0: {secret, mkCard(ColorBlue, KindNumber, 1)},
	})

	view := r.Snapshot()
	raw, err := json.Marshal(view)
	require.NoError(t, err)

	assert.False(t, strings.Contains(string(raw), secret.ID.String()),
		"public projection must not carry hand contents")
	assert.Equal(t, 2, view.HandSizes[players[0].ID.String()])
	assert.Equal(t, len(r.Hand(players[1].ID)), view.HandSizes[players[1].ID.String()])
	assert.Greater(t, view.DeckSize, 0)
	require.NotNil(t, view.TopCard)
	require.NotNil(t, view.CurrentPlayer)
	assert.Equal(t, players[0].ID, *view.CurrentPlayer)
}

func TestSnapshotWaitingRoomOmitsGameState(t *testing.T) {
	r, _, _ := newWaitingRoom(t, RoomConfig{})

	view := r.Snapshot()
	assert.Equal(t, StateWaiting, view.State)
	assert.Nil(t, view.TopCard)
	assert.Nil(t, view.CurrentPlayer)
	assert.Empty(t, view.HandSizes)
}

func TestSpectatorJoinGetsNoHand(t *testing.T) {
	r, _, mb := setupTestRoom(t, 2, nil)

	spect := Player{ID: uuid.New(), Nickname: "watcher"}
	require.NoError(t, r.JoinSpectator(spect))

	ev := mb.lastUserEvent(spect.ID)
	require.NotNil(t, ev)
	data := ev.Data.(RoomJoinedData)
	assert.Equal(t, RoleSpectator, data.Role)
	assert.Empty(t, data.Hand)
}

func TestSummaryCounts(t *testing.T) {
	r, hostUser, _ := newWaitingRoom(t, RoomConfig{Name: "fives", MaxPlayers: 3})

	require.NoError(t, r.JoinPlayer(Player{ID: uuid.New(), Nickname: "p2"}))
	require.NoError(t, r.JoinSpectator(Player{ID: uuid.New(), Nickname: "s1"}))

	s := r.Summary()
	assert.Equal(t, "fives", s.Name)
	assert.Equal(t, hostUser.Nickname, s.Host)
	assert.Equal(t, 2, s.PlayerCount)
	assert.Equal(t, 3, s.MaxPlayers)
	assert.Equal(t, 1, s.SpectatorCount)
	assert.Equal(t, StateWaiting, s.State)
}
