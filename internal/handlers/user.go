// internal/handlers/user.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/julienschmidt/httprouter"

	"partyhub/internal/auth"
	"partyhub/internal/database"
	"partyhub/internal/host"
	"partyhub/internal/models"
)

const authCookieName = "auth_token"

// extractCookieToken pulls a named cookie value out of a raw Cookie
// header, or returns empty.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
}

// EnsureIdentity resolves the request's identity, minting an ephemeral
// guest account (and setting its cookie) when no valid token arrives.
// This is the resolver handed to the WebSocket gateway.
func EnsureIdentity(w http.ResponseWriter, r *http.Request) (host.Identity, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), authCookieName)
	if token != "" {
		if userID, err := auth.VerifyToken(token); err == nil {
			user, err := database.GetUserByID(r.Context(), userID)
			if err != nil {
				return host.Identity{}, fmt.Errorf("token user lookup failed: %w", err)
			}
			return host.Identity{ID: user.ID, Nickname: user.Nickname, Avatar: user.Avatar}, nil
		}
		// Invalid or expired token: fall through to a fresh guest.
	}

	guest := models.User{
		Nickname:    "Guest",
		IsEphemeral: true,
	}
	if err := database.CreateUser(r.Context(), &guest); err != nil {
		return host.Identity{}, fmt.Errorf("failed to create ephemeral user: %w", err)
	}
	newToken, err := auth.IssueToken(guest.ID)
	if err != nil {
		return host.Identity{}, fmt.Errorf("failed to create ephemeral token: %w", err)
	}
	setAuthCookie(w, newToken)
	return host.Identity{ID: guest.ID, Nickname: guest.Nickname}, nil
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// CreateUserHandler registers a new full account and logs it in.
func CreateUserHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if req.Nickname == "" {
		req.Nickname = strings.SplitN(req.Email, "@", 2)[0]
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	}
	if err := database.CreateUser(r.Context(), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.IssueToken(user.ID)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, token)

	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler authenticates credentials and sets the session cookie.
func LoginHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	token, err := database.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}
	setAuthCookie(w, token)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type claimRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// ClaimHandler promotes the requesting guest account to a full account.
func ClaimHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := requireUser(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	if err := database.ClaimEphemeralUser(r.Context(), userID, req.Email, req.Password, req.Nickname); err != nil {
		http.Error(w, "failed to claim account", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "claimed"})
}

// MeHandler returns the authenticated user's own record.
func MeHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := requireUser(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// requireUser verifies the request's session token and returns the
// authenticated user ID.
func requireUser(r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), authCookieName)
	if token == "" {
		return uuid.Nil, errors.New("missing auth token")
	}
	return auth.VerifyToken(token)
}

// requireAdmin verifies the session and checks the admin flag.
func requireAdmin(ctx context.Context, r *http.Request) (*models.User, error) {
	userID, err := requireUser(r)
	if err != nil {
		return nil, err
	}
	user, err := database.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, errors.New("not an admin")
	}
	return user, nil
}
