// internal/tictactoe/room.go
package tictactoe

import (
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"partyhub/internal/host"
)

const (
	minBoardSize = 3
	maxBoardSize = 10
	minWinLength = 3
	maxWinLength = 5

	chatHistoryCap = 50
	chatMessageMax = 200
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already in progress")
	ErrNotPlaying     = errors.New("no game in progress")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrOutOfBounds    = errors.New("invalid move position")
	ErrCellOccupied   = errors.New("cell already occupied")
	ErrNotInRoom      = errors.New("you are not in a room")
	ErrNotAPlayer     = errors.New("you are not a player in this game")
)

type Lifecycle string

const (
	StateWaiting  Lifecycle = "waiting"
	StatePlaying  Lifecycle = "playing"
	StateFinished Lifecycle = "finished"
)

type Player struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Avatar   string    `json:"avatar,omitempty"`
}

type ChatMessage struct {
	User      Player `json:"user"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Cell coordinates of one square in a winning line.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Room is one board and its participants. Board cells hold -1 for empty
// or the seat index of the mark's owner. Two seats exactly; the game
// starts when the second player sits down.
type Room struct {
	ID        uuid.UUID
	Name      string
	HostID    uuid.UUID
	BoardSize int
	WinLength int
	State     Lifecycle
	CreatedAt time.Time

	Players     []Player
	Spectators  map[uuid.UUID]Player
	Board       [][]int
	Current     int
	Winner      uuid.UUID
	Draw        bool
	WinningLine []Cell

	chat []ChatMessage

	BroadcastFn func(ev host.Event)
	SendToFn    func(userID uuid.UUID, ev host.Event)

	Mu sync.Mutex
}

type RoomConfig struct {
	Name      string `json:"name"`
	BoardSize int    `json:"boardSize"`
	WinLength int    `json:"winCondition"`
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewRoom creates a waiting room with the host seated as player zero.
func NewRoom(hostUser Player, cfg RoomConfig) *Room {
	name := cfg.Name
	if name == "" {
		name = hostUser.Nickname + "'s Game"
	}
	size := cfg.BoardSize
	if size == 0 {
		size = minBoardSize
	}
	size = clamp(size, minBoardSize, maxBoardSize)
	winLen := cfg.WinLength
	if winLen == 0 {
		winLen = minWinLength
	}
	winLen = clamp(winLen, minWinLength, maxWinLength)
	if winLen > size {
		winLen = size
	}

	r := &Room{
		ID:         uuid.New(),
		Name:       name,
		HostID:     hostUser.ID,
		BoardSize:  size,
		WinLength:  winLen,
		State:      StateWaiting,
		CreatedAt:  time.Now(),
		Players:    []Player{hostUser},
		Spectators: make(map[uuid.UUID]Player),
	}
	r.resetBoardLocked()
	return r
}

func (r *Room) resetBoardLocked() {
	r.Board = make([][]int, r.BoardSize)
	for i := range r.Board {
		row := make([]int, r.BoardSize)
		for j := range row {
			row[j] = -1
		}
		r.Board[i] = row
	}
	r.Current = 0
	r.Winner = uuid.Nil
	r.Draw = false
	r.WinningLine = nil
}

func (r *Room) fire(ev host.Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

func (r *Room) fireTo(userID uuid.UUID, ev host.Event) {
	if r.SendToFn != nil {
		r.SendToFn(userID, ev)
	}
}

func (r *Room) playerIndexLocked(userID uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

// Move places the acting player's mark and resolves win or draw. A win is
// checked only through the just-placed cell.
func (r *Room) Move(userID uuid.UUID, row, col int) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return ErrNotPlaying
	}
	idx := r.playerIndexLocked(userID)
	if idx < 0 {
		return ErrNotAPlayer
	}
	if idx != r.Current {
		return ErrNotYourTurn
	}
	if row < 0 || row >= r.BoardSize || col < 0 || col >= r.BoardSize {
		return ErrOutOfBounds
	}
	if r.Board[row][col] != -1 {
		return ErrCellOccupied
	}

	r.Board[row][col] = idx

	if line := r.winningLineLocked(row, col, idx); line != nil {
		r.State = StateFinished
		r.Winner = userID
		r.WinningLine = line
		r.fire(host.Event{Type: EventGameOver, Data: GameOverData{
			Winner:      &r.Players[idx],
			WinningLine: line,
			Room:        r.snapshotLocked(),
		}})
		return nil
	}
	if r.boardFullLocked() {
		r.State = StateFinished
		r.Draw = true
		r.fire(host.Event{Type: EventGameOver, Data: GameOverData{
			Draw: true,
			Room: r.snapshotLocked(),
		}})
		return nil
	}

	r.Current = (r.Current + 1) % 2
	r.fire(host.Event{Type: EventMoveMade, Data: MoveMadeData{
		Row:      row,
		Col:      col,
		Player:   idx,
		NextTurn: r.Current,
		Room:     r.snapshotLocked(),
	}})
	return nil
}

// winningLineLocked scans the four directions through (row, col) for a
// run of WinLength marks belonging to idx. Assumes lock is held.
func (r *Room) winningLineLocked(row, col, idx int) []Cell {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		line := []Cell{{Row: row, Col: col}}
		for _, sign := range []int{1, -1} {
			for step := 1; step < r.WinLength; step++ {
				nr := row + d[0]*step*sign
				nc := col + d[1]*step*sign
				if nr < 0 || nr >= r.BoardSize || nc < 0 || nc >= r.BoardSize {
					break
				}
				if r.Board[nr][nc] != idx {
					break
				}
				line = append(line, Cell{Row: nr, Col: nc})
			}
		}
		if len(line) >= r.WinLength {
			return line
		}
	}
	return nil
}

func (r *Room) boardFullLocked() bool {
	for _, row := range r.Board {
		for _, cell := range row {
			if cell == -1 {
				return false
			}
		}
	}
	return true
}

// Rematch clears a finished board and starts a fresh game with the same
// seats. Either player may ask.
func (r *Room) Rematch(userID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StateFinished {
		return ErrNotPlaying
	}
	if r.playerIndexLocked(userID) < 0 {
		return ErrNotAPlayer
	}

	r.resetBoardLocked()
	r.State = StatePlaying
	r.fire(host.Event{Type: EventGameStarted, Data: RoomData{Room: r.snapshotLocked()}})
	return nil
}

// Chat records and broadcasts a message from any participant. Long
// messages are cut at a rune boundary.
func (r *Room) Chat(user Player, text string) {
	if len(text) > chatMessageMax {
		cut := chatMessageMax
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	msg := ChatMessage{User: user, Message: text, Timestamp: time.Now().UnixMilli()}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.chat = append(r.chat, msg)
	if len(r.chat) > chatHistoryCap {
		r.chat = r.chat[len(r.chat)-chatHistoryCap:]
	}
	r.fire(host.Event{Type: EventChatMessage, Data: msg})
}
