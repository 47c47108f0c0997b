// internal/uno/roster.go
package uno

import (
	"github.com/google/uuid"

	"partyhub/internal/host"
)

// JoinPlayer seats a user in the room. A user who already occupies a
// (non-nil) seat is treated as already-present and gets their state
// resent (reconnection); a vacated mid-game seat cannot be reclaimed
// until the room is back in the waiting state.
func (r *Room) JoinPlayer(user Player) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if idx := r.seatIndexLocked(user.ID); idx >= 0 {
		// Rejoin: same seat, resend scoped state including the hand.
		r.fireTo(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
			Room:        r.snapshotLocked(),
			Role:        RolePlayer,
			ChatHistory: r.chat,
			Hand:        r.Hands[user.ID],
		}})
		return nil
	}

	if r.seatedCountLocked() >= r.Settings.MaxPlayers {
		return ErrRoomFull
	}
	if r.State == StatePlaying {
		return ErrGameInProgress
	}

	seated := false
	for i, p := range r.Seats {
		if p == nil {
			u := user
			r.Seats[i] = &u
			seated = true
			break
		}
	}
	if !seated {
		u := user
		r.Seats = append(r.Seats, &u)
	}
	delete(r.Spectators, user.ID)

	r.fireTo(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
		Room:        r.snapshotLocked(),
		Role:        RolePlayer,
		ChatHistory: r.chat,
	}})
	r.fire(host.Event{Type: EventPlayerJoined, Data: MembershipData{User: user, Players: r.Seats}})
	return nil
}

// JoinSpectator adds a user to the spectator set; repeat joins are
// no-ops. A seated user switching to spectating vacates their seat only
// while the room is waiting; during play the seat is preserved and the
// mid-game departure path is the disconnect handling in Leave.
func (r *Room) JoinSpectator(user Player) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Spectators[user.ID]; ok {
		return nil
	}

	if r.State != StatePlaying {
		if idx := r.seatIndexLocked(user.ID); idx >= 0 {
			r.removeSeatLocked(idx)
		}
	}

	r.Spectators[user.ID] = user
	r.fireTo(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
		Room:        r.snapshotLocked(),
		Role:        RoleSpectator,
		ChatHistory: r.chat,
	}})
	r.fire(host.Event{Type: EventSpectatorJoined, Data: MembershipData{User: user, Spectators: r.spectatorsLocked()}})
	return nil
}

// Leave removes a user from the room. While waiting, seated players are
// removed outright; during play the seat is set empty so the same user
// could have rejoined, and the game ends with no winner if fewer than two
// occupied seats remain. Reports whether the user was actually present.
func (r *Room) Leave(userID uuid.UUID) bool {
	r.Mu.Lock()

	present := false
	if _, ok := r.Spectators[userID]; ok {
		present = true
		delete(r.Spectators, userID)
		r.fire(host.Event{Type: EventSpectatorLeft, Data: LeftData{
			UserID:     userID,
			Spectators: r.spectatorsLocked(),
		}})
	}

	if idx := r.seatIndexLocked(userID); idx >= 0 {
		present = true
		var newHost uuid.UUID
		if r.State == StatePlaying {
			r.Seats[idx] = nil
			delete(r.Called, userID)
			if r.HostID == userID {
				newHost = r.transferHostLocked()
			}
			if r.seatedCountLocked() < 2 {
				r.endGameLocked(nil)
			} else if idx == r.Current {
				// Current player left: hand the turn on so play continues.
				r.stopTurnTimerLocked()
				r.advanceLocked()
				r.startTurnLocked()
			}
		} else {
			r.removeSeatLocked(idx)
			if r.HostID == userID {
				newHost = r.transferHostLocked()
			}
		}
		r.fire(host.Event{Type: EventPlayerLeft, Data: LeftData{
			UserID:  userID,
			Players: r.Seats,
			NewHost: newHost,
		}})
	}

	empty := r.isEmptyLocked()
	onEmpty := r.OnEmpty
	if empty {
		r.stopTurnTimerLocked()
	}
	r.Mu.Unlock()

	// The registry callback acquires its own lock; never call it while
	// holding the room's.
	if empty && onEmpty != nil {
		onEmpty(r.ID)
	}
	return present
}

// Participant roles reported in room-joined payloads.
const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// removeSeatLocked removes a seat entirely (waiting-room semantics).
// Assumes lock is held.
func (r *Room) removeSeatLocked(idx int) {
	r.Seats = append(r.Seats[:idx], r.Seats[idx+1:]...)
	if r.Current > idx {
		r.Current--
	}
	if r.Current >= len(r.Seats) {
		r.Current = 0
	}
}

// transferHostLocked reassigns the host role to the next occupied seat
// and returns the new host's ID, or uuid.Nil if no one remains. Assumes
// lock is held.
func (r *Room) transferHostLocked() uuid.UUID {
	for _, p := range r.Seats {
		if p != nil && p.ID != r.HostID {
			r.HostID = p.ID
			r.fire(host.Event{Type: EventHostChanged, Data: MembershipData{User: *p}})
			return p.ID
		}
	}
	return uuid.Nil
}

// spectatorsLocked returns the spectator set as a slice. Assumes lock is held.
func (r *Room) spectatorsLocked() []Player {
	out := make([]Player, 0, len(r.Spectators))
	for _, s := range r.Spectators {
		out = append(out, s)
	}
	return out
}
