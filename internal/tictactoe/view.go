// internal/tictactoe/view.go
package tictactoe

import (
	"github.com/google/uuid"
)

// Event names on the wire.
const (
	EventRoomCreated     = "room-created"
	EventRoomJoined      = "room-joined"
	EventRoomsList       = "rooms-list"
	EventPlayerJoined    = "player-joined"
	EventSpectatorJoined = "spectator-joined"
	EventPlayerLeft      = "player-left"
	EventGameStarted     = "game-started"
	EventMoveMade        = "move-made"
	EventGameOver        = "game-over"
	EventGameEnded       = "game-ended"
	EventChatMessage     = "chat-message"
	EventError           = "error"
)

const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// RoomView is the public projection of a room. The board is fully
// visible; there is no hidden state in this game.
type RoomView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Host        uuid.UUID `json:"host"`
	State       Lifecycle `json:"gameState"`
	BoardSize   int       `json:"boardSize"`
	WinLength   int       `json:"winCondition"`
	Players     []Player  `json:"players"`
	Spectators  []Player  `json:"spectators"`
	Board       [][]int   `json:"board"`
	CurrentTurn int       `json:"currentTurn"`
	Winner      *Player   `json:"winner,omitempty"`
	Draw        bool      `json:"draw,omitempty"`
	WinningLine []Cell    `json:"winningLine,omitempty"`
}

type RoomSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	State       Lifecycle `json:"gameState"`
	BoardSize   int       `json:"boardSize"`
	PlayerCount int       `json:"playerCount"`
}

type RoomData struct {
	Room RoomView `json:"room"`
}

type RoomJoinedData struct {
	Room        RoomView      `json:"room"`
	Role        string        `json:"role"`
	PlayerIndex int           `json:"playerIndex"`
	ChatHistory []ChatMessage `json:"chatHistory"`
}

type MemberData struct {
	User Player   `json:"user"`
	Room RoomView `json:"room"`
}

type MoveMadeData struct {
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Player   int      `json:"player"`
	NextTurn int      `json:"nextTurn"`
	Room     RoomView `json:"room"`
}

type GameOverData struct {
	Winner      *Player  `json:"winner,omitempty"`
	Draw        bool     `json:"draw,omitempty"`
	WinningLine []Cell   `json:"winningLine,omitempty"`
	Room        RoomView `json:"room"`
}

type GameEndedData struct {
	Reason string   `json:"reason"`
	Winner *Player  `json:"winner,omitempty"`
	Room   RoomView `json:"room"`
}

type RoomsListData struct {
	Rooms []RoomSummary `json:"rooms"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func (r *Room) Snapshot() RoomView {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() RoomView {
	players := make([]Player, len(r.Players))
	copy(players, r.Players)
	spectators := make([]Player, 0, len(r.Spectators))
	for _, s := range r.Spectators {
		spectators = append(spectators, s)
	}
	board := make([][]int, len(r.Board))
	for i, row := range r.Board {
		board[i] = append([]int(nil), row...)
	}

	view := RoomView{
		ID:          r.ID,
		Name:        r.Name,
		Host:        r.HostID,
		State:       r.State,
		BoardSize:   r.BoardSize,
		WinLength:   r.WinLength,
		Players:     players,
		Spectators:  spectators,
		Board:       board,
		CurrentTurn: r.Current,
		Draw:        r.Draw,
		WinningLine: append([]Cell(nil), r.WinningLine...),
	}
	if r.Winner != uuid.Nil {
		if i := r.playerIndexLocked(r.Winner); i >= 0 {
			w := r.Players[i]
			view.Winner = &w
		}
	}
	return view
}

func (r *Room) summaryLocked() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		State:       r.State,
		BoardSize:   r.BoardSize,
		PlayerCount: len(r.Players),
	}
}
