package models

import "github.com/google/uuid"

type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Nickname string    `json:"nickname"`
	Avatar   string    `json:"avatar,omitempty"`

	// IsEphemeral marks auto-created guest accounts that may later be
	// claimed with real credentials.
	IsEphemeral bool `json:"is_ephemeral"`
	IsAdmin     bool `json:"is_admin"`

	GamesPlayed int `json:"games_played"`
	GamesWon    int `json:"games_won"`
}
