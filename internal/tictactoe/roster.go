// internal/tictactoe/roster.go
package tictactoe

import (
	"github.com/google/uuid"

	"partyhub/internal/host"
)

// JoinPlayer seats a player, auto-starting the game when the second seat
// fills. Rooms with a game underway only accept spectators.
func (r *Room) JoinPlayer(user Player) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if idx := r.playerIndexLocked(user.ID); idx >= 0 {
		r.fireTo(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
			Room:        r.snapshotLocked(),
			Role:        RolePlayer,
			PlayerIndex: idx,
			ChatHistory: append([]ChatMessage(nil), r.chat...),
		}})
		return nil
	}
	if r.State != StateWaiting {
		return ErrGameInProgress
	}
	if len(r.Players) >= 2 {
		return ErrRoomFull
	}

	delete(r.Spectators, user.ID)
	r.Players = append(r.Players, user)
	idx := len(r.Players) - 1

	r.fireTo(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
		Room:        r.snapshotLocked(),
		Role:        RolePlayer,
		PlayerIndex: idx,
		ChatHistory: append([]ChatMessage(nil), r.chat...),
	}})
	r.fire(host.Event{Type: EventPlayerJoined, Data: MemberData{User: user, Room: r.snapshotLocked()}})

	if len(r.Players) == 2 {
		r.State = StatePlaying
		r.resetBoardLocked()
		r.fire(host.Event{Type: EventGameStarted, Data: RoomData{Room: r.snapshotLocked()}})
	}
	return nil
}

// JoinSpectator always succeeds; spectators are welcome at any stage.
func (r *Room) JoinSpectator(user Player) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Spectators[user.ID]; ok {
		return
	}
	r.Spectators[user.ID] = user
	r.fireTo(user.ID, host.Event{Type: EventRoomJoined, Data: RoomJoinedData{
		Room:        r.snapshotLocked(),
		Role:        RoleSpectator,
		PlayerIndex: -1,
		ChatHistory: append([]ChatMessage(nil), r.chat...),
	}})
	r.fire(host.Event{Type: EventSpectatorJoined, Data: MemberData{User: user, Room: r.snapshotLocked()}})
}

// Leave removes a participant. A player abandoning a live game forfeits
// it; the opponent wins. Returns whether the user was present and
// whether the room is now empty.
func (r *Room) Leave(userID uuid.UUID) (found, empty bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Spectators[userID]; ok {
		delete(r.Spectators, userID)
		return true, r.isEmptyLocked()
	}

	idx := r.playerIndexLocked(userID)
	if idx < 0 {
		return false, false
	}
	left := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if r.State == StatePlaying {
		r.State = StateFinished
		var winner *Player
		if len(r.Players) > 0 {
			r.Winner = r.Players[0].ID
			winner = &r.Players[0]
		}
		r.fire(host.Event{Type: EventGameEnded, Data: GameEndedData{
			Reason: "Player left",
			Winner: winner,
			Room:   r.snapshotLocked(),
		}})
	} else {
		r.fire(host.Event{Type: EventPlayerLeft, Data: MemberData{User: left, Room: r.snapshotLocked()}})
	}

	if r.HostID == userID && len(r.Players) > 0 {
		r.HostID = r.Players[0].ID
	}
	return true, r.isEmptyLocked()
}

func (r *Room) isEmptyLocked() bool {
	return len(r.Players) == 0 && len(r.Spectators) == 0
}
