// internal/uno/registry_test.go
package uno

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddGetRemove(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Len())

	r := NewRoom(Player{ID: uuid.New(), Nickname: "host"}, RoomConfig{})
	reg.Add(r)
	assert.Equal(t, 1, reg.Len())
	assert.Same(t, r, reg.Get(r.ID))
	assert.Nil(t, reg.Get(uuid.New()))

	assert.True(t, reg.Remove(r.ID))
	assert.False(t, reg.Remove(r.ID))
	assert.Nil(t, reg.Get(r.ID))
}

func TestRegistrySummariesOrdering(t *testing.T) {
	reg := NewRegistry()

	var rooms []*Room
	for i := 0; i < 3; i++ {
		r := NewRoom(Player{ID: uuid.New(), Nickname: "host"}, RoomConfig{})
		r.CreatedAt = time.Now().Add(time.Duration(3-i) * time.Minute)
		rooms = append(rooms, r)
		reg.Add(r)
	}

	sums := reg.Summaries()
	require.Len(t, sums, 3)
	assert.Equal(t, rooms[2].ID, sums[0].ID, "summaries ordered oldest first")
	assert.Equal(t, rooms[0].ID, sums[2].ID)
}

func TestRegistryShutdownEmpties(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 3; i++ {
		reg.Add(NewRoom(Player{ID: uuid.New(), Nickname: "host"}, RoomConfig{}))
	}

	reg.Shutdown()
	assert.Equal(t, 0, reg.Len())
}
