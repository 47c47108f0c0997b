// internal/uno/view.go
package uno

import (
	"time"

	"github.com/google/uuid"
)

// RoomSummary is the lobby-list projection of a room.
type RoomSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Host           string    `json:"host"`
	State          Lifecycle `json:"state"`
	PlayerCount    int       `json:"playerCount"`
	MaxPlayers     int       `json:"maxPlayers"`
	SpectatorCount int       `json:"spectatorCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RoomView is the public projection of a room: everything any member may
// see. Hands appear only as counts; the deck only as its size. Private
// hands travel solely through per-user events.
type RoomView struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	HostID        uuid.UUID         `json:"hostId"`
	State         Lifecycle         `json:"state"`
	Settings      Settings          `json:"settings"`
	Players       []*Player         `json:"players"`
	Spectators    []Player          `json:"spectators"`
	CurrentPlayer *uuid.UUID        `json:"currentPlayer,omitempty"`
	Direction     int               `json:"turnDirection"`
	CurrentColor  Color             `json:"currentColor,omitempty"`
	TopCard       *Card             `json:"topCard,omitempty"`
	DeckSize      int               `json:"deckSize"`
	PendingDraw   int               `json:"drawStack"`
	HandSizes     map[string]int    `json:"handSizes,omitempty"`
	UnoCalled     map[string]bool   `json:"unoCalled,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Summary returns the lobby-list projection.
func (r *Room) Summary() RoomSummary {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.summaryLocked()
}

func (r *Room) summaryLocked() RoomSummary {
	hostName := ""
	for _, p := range r.Seats {
		if p != nil && p.ID == r.HostID {
			hostName = p.Nickname
			break
		}
	}
	return RoomSummary{
		ID:             r.ID,
		Name:           r.Name,
		Host:           hostName,
		State:          r.State,
		PlayerCount:    r.seatedCountLocked(),
		MaxPlayers:     r.Settings.MaxPlayers,
		SpectatorCount: len(r.Spectators),
		CreatedAt:      r.CreatedAt,
	}
}

// Snapshot returns the public projection.
func (r *Room) Snapshot() RoomView {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.snapshotLocked()
}

// snapshotLocked builds the public projection. Assumes lock is held.
func (r *Room) snapshotLocked() RoomView {
	v := RoomView{
		ID:         r.ID,
		Name:       r.Name,
		HostID:     r.HostID,
		State:      r.State,
		Settings:   r.Settings,
		Players:    make([]*Player, len(r.Seats)),
		Spectators: r.spectatorsLocked(),
		Direction:  r.Direction,
		DeckSize:   len(r.Deck),
		CreatedAt:  r.CreatedAt,
	}
	for i, p := range r.Seats {
		if p != nil {
			cp := *p
			v.Players[i] = &cp
		}
	}
	if r.State != StateWaiting {
		v.CurrentColor = r.ActiveColor
		v.TopCard = r.topDiscardLocked()
		v.PendingDraw = r.PendingDraw
		if cur := r.currentPlayerLocked(); cur != nil && r.State == StatePlaying {
			id := cur.ID
			v.CurrentPlayer = &id
		}
		v.HandSizes = make(map[string]int, len(r.Hands))
		v.UnoCalled = make(map[string]bool, len(r.Hands))
		for id, hand := range r.Hands {
			v.HandSizes[id.String()] = len(hand)
			v.UnoCalled[id.String()] = r.Called[id]
		}
	}
	return v
}

// Hand returns a copy of a player's private hand.
func (r *Room) Hand(userID uuid.UUID) []Card {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	hand, ok := r.Hands[userID]
	if !ok {
		return nil
	}
	out := make([]Card, len(hand))
	copy(out, hand)
	return out
}
