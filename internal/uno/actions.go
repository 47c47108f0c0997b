// internal/uno/actions.go
package uno

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Wire names for client actions.
const (
	ActionCreateRoom   = "create-room"
	ActionJoinRoom     = "join-room"
	ActionSpectateRoom = "spectate-room"
	ActionLeaveRoom    = "leave-room"
	ActionListRooms    = "get-rooms"
	ActionStartGame    = "start-game"
	ActionPlayCard     = "play-card"
	ActionDrawCard     = "draw-card"
	ActionCallUno      = "call-uno"
	ActionCatchUno     = "catch-uno"
	ActionResetGame    = "reset-game"
	ActionChatMessage  = "chat-message"
)

// Action is the closed set of decoded client commands. Each wire name
// maps to exactly one concrete type; dispatch is a type switch, not a
// string comparison against raw payloads.
type Action interface {
	isAction()
}

type CreateRoomAction struct {
	Name     string     `json:"name"`
	Settings RoomConfig `json:"settings"`
}

type JoinRoomAction struct {
	RoomID uuid.UUID `json:"roomId"`
}

type SpectateRoomAction struct {
	RoomID uuid.UUID `json:"roomId"`
}

type LeaveRoomAction struct{}

type ListRoomsAction struct{}

type StartGameAction struct{}

type PlayCardAction struct {
	CardID      uuid.UUID `json:"cardId"`
	ChosenColor Color     `json:"chosenColor,omitempty"`
}

type DrawCardAction struct{}

type CallUnoAction struct{}

type CatchUnoAction struct {
	TargetID uuid.UUID `json:"targetId"`
}

type ResetGameAction struct{}

type ChatMessageAction struct {
	Text string `json:"text"`
}

func (CreateRoomAction) isAction()   {}
func (JoinRoomAction) isAction()     {}
func (SpectateRoomAction) isAction() {}
func (LeaveRoomAction) isAction()    {}
func (ListRoomsAction) isAction()    {}
func (StartGameAction) isAction()    {}
func (PlayCardAction) isAction()     {}
func (DrawCardAction) isAction()     {}
func (CallUnoAction) isAction()      {}
func (CatchUnoAction) isAction()     {}
func (ResetGameAction) isAction()    {}
func (ChatMessageAction) isAction()  {}

// DecodeAction parses a wire action name and its raw payload into the
// matching Action value. Unknown names and malformed payloads are
// rejected here so the room layer only ever sees well-formed commands.
func DecodeAction(name string, raw json.RawMessage) (Action, error) {
	decode := func(dst Action) (Action, error) {
		if len(raw) == 0 {
			return dst, nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", name, err)
		}
		return dst, nil
	}

	switch name {
	case ActionCreateRoom:
		return decode(&CreateRoomAction{})
	case ActionJoinRoom:
		return decode(&JoinRoomAction{})
	case ActionSpectateRoom:
		return decode(&SpectateRoomAction{})
	case ActionLeaveRoom:
		return &LeaveRoomAction{}, nil
	case ActionListRooms:
		return &ListRoomsAction{}, nil
	case ActionStartGame:
		return &StartGameAction{}, nil
	case ActionPlayCard:
		return decode(&PlayCardAction{})
	case ActionDrawCard:
		return &DrawCardAction{}, nil
	case ActionCallUno:
		return &CallUnoAction{}, nil
	case ActionCatchUno:
		return decode(&CatchUnoAction{})
	case ActionResetGame:
		return &ResetGameAction{}, nil
	case ActionChatMessage:
		return decode(&ChatMessageAction{})
	default:
		return nil, fmt.Errorf("unknown action %q", name)
	}
}
