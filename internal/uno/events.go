// internal/uno/events.go
package uno

import "github.com/google/uuid"

// Outbound event kinds. These are the wire names clients switch on.
const (
	EventRoomCreated     = "room-created"
	EventRoomJoined      = "room-joined"
	EventPlayerJoined    = "player-joined"
	EventSpectatorJoined = "spectator-joined"
	EventPlayerLeft      = "player-left"
	EventSpectatorLeft   = "spectator-left"
	EventHostChanged     = "host-changed"
	EventRoomsList       = "rooms-list"
	EventGameStarted     = "game-started"
	EventCardPlayed      = "card-played"
	EventCardDrawn       = "card-drawn"  // public: card count only
	EventCardsDrawn      = "cards-drawn" // private: actual card contents
	EventTurnChanged     = "turn-changed"
	EventUnoCalled       = "uno-called"
	EventUnoCaught       = "uno-caught"
	EventTurnTimeout     = "turn-timeout"
	EventGameWon         = "game-won"
	EventGameReset       = "game-reset"
	EventChatMessage     = "chat-message"
	EventError           = "error"
)

// RoomCreatedData acknowledges room creation to the creator.
type RoomCreatedData struct {
	RoomID uuid.UUID `json:"roomId"`
}

// RoomJoinedData carries the joiner's scoped room snapshot. Hand is set
// only for a seated player rejoining an active game.
type RoomJoinedData struct {
	Room        RoomView      `json:"room"`
	Role        string        `json:"role"` // "player" or "spectator"
	ChatHistory []ChatMessage `json:"chatHistory"`
	Hand        []Card        `json:"hand,omitempty"`
}

// MembershipData announces a roster change.
type MembershipData struct {
	User       Player    `json:"user"`
	Players    []*Player `json:"players,omitempty"`
	Spectators []Player  `json:"spectators,omitempty"`
}

// LeftData announces a departure.
type LeftData struct {
	UserID     uuid.UUID `json:"userId"`
	Players    []*Player `json:"players,omitempty"`
	Spectators []Player  `json:"spectators,omitempty"`
	NewHost    uuid.UUID `json:"newHost,omitempty"`
}

// RoomsListData is the lobby directory broadcast.
type RoomsListData struct {
	Rooms []RoomSummary `json:"rooms"`
}

// GameStartedData is sent per participant at game start; Hand is omitted
// for spectators.
type GameStartedData struct {
	Room RoomView `json:"room"`
	Hand []Card   `json:"hand,omitempty"`
}

// CardPlayedData announces a successful play. Card.Color reflects the
// chosen color for wild kinds so clients can render the effective color.
type CardPlayedData struct {
	User         Player `json:"user"`
	Card         Card   `json:"card"`
	CurrentColor Color  `json:"currentColor"`
	HandSize     int    `json:"handSize"`
}

// CardDrawnData is the public notification of a draw; card contents stay
// private.
type CardDrawnData struct {
	User      Player `json:"user"`
	CardCount int    `json:"cardCount"`
	HandSize  int    `json:"handSize"`
	Penalty   bool   `json:"penalty,omitempty"`
	UnoCalled bool   `json:"unoCalled"`
}

// CardsDrawnData is the private notification carrying the drawn cards.
type CardsDrawnData struct {
	Cards []Card `json:"cards"`
}

// TurnChangedData announces whose turn begins.
type TurnChangedData struct {
	CurrentPlayer      uuid.UUID `json:"currentPlayer"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	TurnDirection      int       `json:"turnDirection"`
	PendingDraw        int       `json:"drawStack"`
	CurrentColor       Color     `json:"currentColor"`
	TopCard            *Card     `json:"topCard,omitempty"`
}

// UnoCalledData announces a successful final-card call.
type UnoCalledData struct {
	User Player `json:"user"`
}

// UnoCaughtData announces a successful missed-call accusation.
type UnoCaughtData struct {
	Accuser     Player `json:"accuser"`
	Target      Player `json:"target"`
	Penalty     int    `json:"penalty"`
	NewHandSize int    `json:"newHandSize"`
}

// TurnTimeoutData announces that the turn clock forced a draw.
type TurnTimeoutData struct {
	User      Player `json:"user"`
	HandSize  int    `json:"handSize"`
	UnoCalled bool   `json:"unoCalled"`
}

// GameWonData ends a game. Winner is nil when the game ended without one
// (too few players remained); Score is then 0.
type GameWonData struct {
	Winner *Player `json:"winner"`
	Score  int     `json:"score"`
}

// GameResetData announces a finished room returning to the waiting state.
type GameResetData struct {
	Room RoomView `json:"room"`
}

// ErrorData is the rejection payload sent only to the acting identity.
type ErrorData struct {
	Message string `json:"message"`
}
