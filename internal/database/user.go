package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"partyhub/internal/auth"
	"partyhub/internal/models"
)

func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.HashPassword(user.Password, auth.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, email, password, nickname, avatar, is_ephemeral, is_admin)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Email, user.Password, user.Nickname, user.Avatar,
			user.IsEphemeral, user.IsAdmin,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, email, password, nickname, avatar, is_ephemeral, is_admin,
	       games_played, games_won
	FROM users
	WHERE email=$1
	`
	err := DB.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Password, &u.Nickname, &u.Avatar,
		&u.IsEphemeral, &u.IsAdmin,
		&u.GamesPlayed, &u.GamesWon,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, email, password, nickname, avatar, is_ephemeral, is_admin,
	       games_played, games_won
	FROM users
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Password, &u.Nickname, &u.Avatar,
		&u.IsEphemeral, &u.IsAdmin,
		&u.GamesPlayed, &u.GamesWon,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthenticateUser verifies credentials and issues a session token.
func AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.Password)
	if err != nil || !match {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := auth.IssueToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}

	return token, nil
}

// ClaimEphemeralUser promotes a guest account to a full one with
// credentials. Fails on accounts that are not ephemeral.
func ClaimEphemeralUser(ctx context.Context, id uuid.UUID, email, password, nickname string) error {
	hash, err := auth.HashPassword(password, auth.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	q := `
	UPDATE users
	SET email=$1, password=$2, nickname=COALESCE(NULLIF($3, ''), nickname), is_ephemeral=FALSE
	WHERE id=$4 AND is_ephemeral=TRUE
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(ctx, q, email, hash, nickname, id)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("user %s is not an ephemeral account", id)
		}
		return nil
	})
}

// RecordGameResult bumps the played counter for every participant and the
// won counter for the winner.
func RecordGameResult(ctx context.Context, participants []uuid.UUID, winner uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, id := range participants {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET games_played = games_played + 1 WHERE id=$1`, id); err != nil {
				return err
			}
		}
		if winner != uuid.Nil {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET games_won = games_won + 1 WHERE id=$1`, winner); err != nil {
				return err
			}
		}
		return nil
	})
}
