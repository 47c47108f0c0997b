// internal/uno/room.go
package uno

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"partyhub/internal/host"
)

const (
	initialHandSize = 7
	catchPenalty    = 2
	chatHistoryCap  = 50
	chatMessageMax  = 200

	defaultMaxPlayers = 4
	defaultTurnTimer  = 30
)

// Player is the engine's view of an authenticated user: an identifier
// plus the display attributes needed for messages. Everything else about
// the account is opaque to the engine.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Avatar   string    `json:"avatar,omitempty"`
}

// PlayerFromIdentity copies the fields the engine keeps.
func PlayerFromIdentity(u host.Identity) Player {
	return Player{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar}
}

// Lifecycle is a room's coarse state.
type Lifecycle string

const (
	StateWaiting  Lifecycle = "waiting"
	StatePlaying  Lifecycle = "playing"
	StateFinished Lifecycle = "finished"
)

// Settings are the per-room configuration chosen at creation. Only
// StackingDraw changes engine behavior; the remaining ruleset toggles are
// stored and surfaced to clients as declared house rules.
type Settings struct {
	MaxPlayers        int  `json:"maxPlayers"`
	TurnTimer         int  `json:"turnTimer"` // seconds per turn, 0 disables the clock
	StackingDraw      bool `json:"stackingDraw"`
	DrawUntilPlayable bool `json:"drawUntilPlayable"`
	JumpIn            bool `json:"jumpIn"`
	SevenSwap         bool `json:"sevenSwap"`
	ZeroRotate        bool `json:"zeroRotate"`
	ForcedPlay        bool `json:"forcedPlay"`
}

// DefaultSettings returns the settings applied when a room config leaves
// fields unset.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers: defaultMaxPlayers,
		TurnTimer:  defaultTurnTimer,
	}
}

// RoomConfig is the creation request for a room. TurnTimer distinguishes
// "absent" (default applies) from an explicit 0 (clock disabled).
type RoomConfig struct {
	Name              string `json:"name"`
	MaxPlayers        int    `json:"maxPlayers"`
	TurnTimer         *int   `json:"turnTimer"`
	StackingDraw      bool   `json:"stackingDraw"`
	DrawUntilPlayable bool   `json:"drawUntilPlayable"`
	JumpIn            bool   `json:"jumpIn"`
	SevenSwap         bool   `json:"sevenSwap"`
	ZeroRotate        bool   `json:"zeroRotate"`
	ForcedPlay        bool   `json:"forcedPlay"`
}

func (c RoomConfig) settings() Settings {
	s := DefaultSettings()
	if c.MaxPlayers > 1 {
		s.MaxPlayers = c.MaxPlayers
	}
	if c.TurnTimer != nil && *c.TurnTimer >= 0 {
		s.TurnTimer = *c.TurnTimer
	}
	s.StackingDraw = c.StackingDraw
	s.DrawUntilPlayable = c.DrawUntilPlayable
	s.JumpIn = c.JumpIn
	s.SevenSwap = c.SevenSwap
	s.ZeroRotate = c.ZeroRotate
	s.ForcedPlay = c.ForcedPlay
	return s
}

// ChatMessage is one entry in a room's bounded chat log.
type ChatMessage struct {
	User      Player `json:"user"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Room is the aggregate root for one game session. All mutation goes
// through methods that hold Mu, so every action on a room is serialized;
// actions on different rooms never contend.
type Room struct {
	ID        uuid.UUID
	Name      string
	HostID    uuid.UUID
	State     Lifecycle
	Settings  Settings
	CreatedAt time.Time

	// Seats is the ordered player list. A nil entry is a seat vacated
	// mid-game (disconnect with rejoin semantics); seats are only
	// compacted outside of play.
	Seats []*Player
	// Spectators is unordered.
	Spectators map[uuid.UUID]Player

	// Game state, populated while State == StatePlaying.
	Deck        []Card
	Discard     []Card
	Hands       map[uuid.UUID][]Card
	Current     int
	Direction   int // +1 or -1
	ActiveColor Color
	PendingDraw int
	Called      map[uuid.UUID]bool

	chat []ChatMessage

	// BroadcastFn sends an event to every participant in the room.
	BroadcastFn func(ev host.Event)
	// SendToFn sends an event to a single participant.
	SendToFn func(userID uuid.UUID, ev host.Event)
	// OnEmpty is invoked (outside the room lock) after the last
	// participant leaves, typically to delete the room from its registry.
	OnEmpty func(roomID uuid.UUID)
	// OnGameEnd is invoked (on its own goroutine) when a game finishes,
	// with everyone still seated and the winner, or uuid.Nil for no winner.
	OnGameEnd func(participants []uuid.UUID, winner uuid.UUID)

	Mu         sync.Mutex
	turnTimer  *time.Timer
	turnSerial int
}

// NewRoom creates a waiting room with the host seated first.
func NewRoom(hostUser Player, cfg RoomConfig) *Room {
	name := cfg.Name
	if name == "" {
		name = hostUser.Nickname + "'s Room"
	}
	h := hostUser
	return &Room{
		ID:         uuid.New(),
		Name:       name,
		HostID:     hostUser.ID,
		State:      StateWaiting,
		Settings:   cfg.settings(),
		CreatedAt:  time.Now(),
		Seats:      []*Player{&h},
		Spectators: make(map[uuid.UUID]Player),
	}
}

// Shutdown cancels the room's outstanding timer. Called on module unload
// so no timer callback fires into cleared state.
func (r *Room) Shutdown() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.stopTurnTimerLocked()
}

// ChatHistory returns a copy of the chat log.
func (r *Room) ChatHistory() []ChatMessage {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	out := make([]ChatMessage, len(r.chat))
	copy(out, r.chat)
	return out
}

// fire broadcasts to the whole room. Assumes lock is held.
func (r *Room) fire(ev host.Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

// fireTo sends to one participant. Assumes lock is held.
func (r *Room) fireTo(userID uuid.UUID, ev host.Event) {
	if r.SendToFn != nil {
		r.SendToFn(userID, ev)
	}
}

// seatedCountLocked counts occupied seats. Assumes lock is held.
func (r *Room) seatedCountLocked() int {
	n := 0
	for _, p := range r.Seats {
		if p != nil {
			n++
		}
	}
	return n
}

// seatIndexLocked returns the seat index occupied by userID, or -1.
// Assumes lock is held.
func (r *Room) seatIndexLocked(userID uuid.UUID) int {
	for i, p := range r.Seats {
		if p != nil && p.ID == userID {
			return i
		}
	}
	return -1
}

// currentPlayerLocked returns the player whose turn it is, or nil if the
// current seat is empty. Assumes lock is held.
func (r *Room) currentPlayerLocked() *Player {
	if r.Current < 0 || r.Current >= len(r.Seats) {
		return nil
	}
	return r.Seats[r.Current]
}

// topDiscardLocked returns the top discard card, or nil. Assumes lock is held.
func (r *Room) topDiscardLocked() *Card {
	if len(r.Discard) == 0 {
		return nil
	}
	return &r.Discard[len(r.Discard)-1]
}

// isEmptyLocked reports whether no participant remains. Assumes lock is held.
func (r *Room) isEmptyLocked() bool {
	return r.seatedCountLocked() == 0 && len(r.Spectators) == 0
}

// appendChatLocked adds a message to the bounded chat ring, evicting the
// oldest beyond the cap. Assumes lock is held.
func (r *Room) appendChatLocked(msg ChatMessage) {
	r.chat = append(r.chat, msg)
	if len(r.chat) > chatHistoryCap {
		r.chat = r.chat[len(r.chat)-chatHistoryCap:]
	}
}

// truncateMessage caps s at max bytes without splitting a rune.
func truncateMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Chat records and broadcasts a chat message from any participant.
func (r *Room) Chat(user Player, text string) {
	text = truncateMessage(text, chatMessageMax)
	msg := ChatMessage{User: user, Message: text, Timestamp: time.Now().UnixMilli()}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.appendChatLocked(msg)
	r.fire(host.Event{Type: EventChatMessage, Data: msg})
}
