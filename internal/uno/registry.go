// internal/uno/registry.go
package uno

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry owns every live room. It is the only path from a room ID to a
// *Room; rooms never reference each other.
type Registry struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[uuid.UUID]*Room)}
}

// Add registers a room under its ID.
func (s *Registry) Add(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// Get returns the room for id, or nil.
func (s *Registry) Get(id uuid.UUID) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

// Delete removes the room for id without stopping it.
func (s *Registry) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// Remove removes and shuts down the room for id, returning whether it
// existed. The room is stopped outside the registry lock.
func (s *Registry) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if ok {
		r.Shutdown()
	}
	return ok
}

// Len returns the number of live rooms.
func (s *Registry) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Rooms returns a snapshot slice of every live room.
func (s *Registry) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// Summaries returns lobby-list projections of every live room, ordered by
// creation time for stable listings.
func (s *Registry) Summaries() []RoomSummary {
	rooms := s.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Shutdown stops every room's timers and empties the registry. Rooms are
// collected under the registry lock but stopped outside it, since
// stopping takes each room's own lock.
func (s *Registry) Shutdown() {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.rooms = make(map[uuid.UUID]*Room)
	s.mu.Unlock()

	for _, r := range rooms {
		r.Shutdown()
	}
}
