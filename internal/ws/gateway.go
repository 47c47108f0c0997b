// internal/ws/gateway.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"partyhub/internal/host"
)

const (
	// BadSubprotocolError is the close code for clients speaking the wrong subprotocol.
	BadSubprotocolError = 3000

	writeTimeout  = 3 * time.Second
	outboundQueue = 32
)

// envelope is the inbound message frame: an action name plus its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// IdentityResolver authenticates an incoming upgrade request, possibly
// minting an ephemeral guest and setting its cookie on w.
type IdentityResolver func(w http.ResponseWriter, r *http.Request) (host.Identity, error)

// session is one live connection. Outbound traffic goes through out so a
// slow client never blocks game logic; a full queue drops the frame.
type session struct {
	user   host.Identity
	conn   *websocket.Conn
	out    chan []byte
	cancel context.CancelFunc
}

var _ host.Transport = (*Gateway)(nil)

// Gateway owns every WebSocket session and implements the outbound
// transport the game host hands to modules. One connection per user: a
// second connection for the same identity supersedes the first.
type Gateway struct {
	logger *logrus.Logger
	host   *host.Host

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	userRoom map[uuid.UUID]uuid.UUID
}

func NewGateway(logger *logrus.Logger) *Gateway {
	return &Gateway{
		logger:   logger,
		sessions: make(map[uuid.UUID]*session),
		userRoom: make(map[uuid.UUID]uuid.UUID),
	}
}

// AttachHost wires the game host the gateway routes inbound actions to.
// Must be called before serving; the host itself needs the gateway as its
// transport, hence the two-step construction.
func (g *Gateway) AttachHost(h *host.Host) {
	g.host = h
}

// Handler upgrades HTTP requests at the game endpoint to WebSocket
// sessions using the "game" subprotocol.
func (g *Gateway) Handler(resolve IdentityResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			g.logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}

		user, err := resolve(w, r)
		if err != nil {
			g.logger.Warnf("authentication failed for %s: %v", r.RemoteAddr, err)
			c.Close(websocket.StatusPolicyViolation, "Authentication failed.")
			return
		}
		g.logger.Infof("user %s (%s) connected from %s", user.ID, user.Nickname, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := &session{
			user:   user,
			conn:   c,
			out:    make(chan []byte, outboundQueue),
			cancel: cancel,
		}
		g.register(sess)

		go g.writePump(ctx, sess)
		g.host.HandleConnection(user)

		g.readPump(ctx, sess)

		// Only tear down shared state if this session is still the live
		// one; a superseding connection owns it now.
		if g.unregister(sess) {
			g.host.HandleDisconnection(user)
		}
		g.logger.Infof("user %s disconnected", user.ID)
	}
}

// readPump reads frames until the connection dies, routing each action to
// the host. Rejections go back to the actor only.
func (g *Gateway) readPump(ctx context.Context, sess *session) {
	for {
		typ, data, err := sess.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				g.logger.Infof("websocket closed normally for user %s", sess.user.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				// Superseded or server shutdown; nothing to log.
			} else {
				g.logger.Warnf("read error for user %s: %v (status %d)", sess.user.ID, err, status)
			}
			return
		}
		if typ != websocket.MessageText {
			g.logger.Warnf("ignoring non-text message from user %s", sess.user.ID)
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.logger.Warnf("invalid JSON from user %s: %v", sess.user.ID, err)
			g.sendError(sess, "invalid JSON format")
			continue
		}

		if env.Event == "ping" {
			g.enqueue(sess, host.Event{Type: "pong"})
			continue
		}

		if err := g.host.HandleAction(sess.user, env.Event, env.Data); err != nil {
			g.logger.Debugf("action %q from user %s rejected: %v", env.Event, sess.user.ID, err)
			g.sendError(sess, err.Error())
		}
	}
}

// writePump drains the session's outbound queue onto the wire.
func (g *Gateway) writePump(ctx context.Context, sess *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sess.out:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := sess.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				g.logger.Warnf("write to user %s failed: %v", sess.user.ID, err)
				sess.cancel()
				return
			}
		}
	}
}

func (g *Gateway) register(sess *session) {
	g.mu.Lock()
	prev := g.sessions[sess.user.ID]
	g.sessions[sess.user.ID] = sess
	g.mu.Unlock()
	if prev != nil {
		g.logger.Infof("user %s reconnected, superseding previous session", sess.user.ID)
		prev.cancel()
	}
}

// unregister removes sess if it is still the user's live session and
// reports whether it was.
func (g *Gateway) unregister(sess *session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessions[sess.user.ID] != sess {
		return false
	}
	delete(g.sessions, sess.user.ID)
	delete(g.userRoom, sess.user.ID)
	return true
}

// enqueue marshals and queues one event for a session, dropping the frame
// when the client cannot keep up.
func (g *Gateway) enqueue(sess *session, ev host.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		g.logger.Errorf("failed to marshal event %q: %v", ev.Type, err)
		return
	}
	select {
	case sess.out <- data:
	default:
		g.logger.Warnf("outbound queue full for user %s, dropping %q", sess.user.ID, ev.Type)
	}
}

func (g *Gateway) sendError(sess *session, msg string) {
	g.enqueue(sess, host.Event{Type: "error", Data: map[string]string{"message": msg}})
}

// SendToUser implements host.Transport.
func (g *Gateway) SendToUser(userID uuid.UUID, ev host.Event) {
	g.mu.Lock()
	sess := g.sessions[userID]
	g.mu.Unlock()
	if sess != nil {
		g.enqueue(sess, ev)
	}
}

// SendToRoom implements host.Transport, fanning out to every session
// bound to the room.
func (g *Gateway) SendToRoom(roomID uuid.UUID, ev host.Event) {
	g.mu.Lock()
	targets := make([]*session, 0, len(g.sessions))
	for userID, sess := range g.sessions {
		if g.userRoom[userID] == roomID {
			targets = append(targets, sess)
		}
	}
	g.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		g.logger.Errorf("failed to marshal room event %q: %v", ev.Type, err)
		return
	}
	for _, sess := range targets {
		select {
		case sess.out <- data:
		default:
			g.logger.Warnf("outbound queue full for user %s, dropping %q", sess.user.ID, ev.Type)
		}
	}
}

// SendToAll implements host.Transport.
func (g *Gateway) SendToAll(ev host.Event) {
	g.mu.Lock()
	targets := make([]*session, 0, len(g.sessions))
	for _, sess := range g.sessions {
		targets = append(targets, sess)
	}
	g.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		g.logger.Errorf("failed to marshal broadcast event %q: %v", ev.Type, err)
		return
	}
	for _, sess := range targets {
		select {
		case sess.out <- data:
		default:
			g.logger.Warnf("outbound queue full for user %s, dropping %q", sess.user.ID, ev.Type)
		}
	}
}

// BindRoom implements host.Transport.
func (g *Gateway) BindRoom(userID, roomID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userRoom[userID] = roomID
}

// UnbindRoom implements host.Transport.
func (g *Gateway) UnbindRoom(userID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.userRoom, userID)
}

// ConnectionCount reports live sessions for health and admin endpoints.
func (g *Gateway) ConnectionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}
