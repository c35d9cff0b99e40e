package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/coop-arena/internal/multiplayer"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// wsConn is one websocket client: a read loop on the handler goroutine and
// a write pump draining the client's event queue.
type wsConn struct {
	g       *Gateway
	conn    *websocket.Conn
	client  *multiplayer.ChannelClient
	codec   Codec
	subject string
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	codec, err := CodecFor(r.URL.Query().Get("encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	subject, err := g.auth.Validate(bearerToken(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", "player", subject, "error", err)
		return
	}

	c := &wsConn{
		g:       g,
		conn:    conn,
		client:  multiplayer.NewChannelClient(multiplayer.ClientID(uuid.NewString()), g.cfg.SendBuffer),
		codec:   codec,
		subject: subject,
	}
	g.clients.Register(c.client)
	g.logger.Debug("client connected", "client", c.client.ID(), "player", subject, "encoding", codec.Name())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readLoop()

	g.bindMu.Lock()
	if m, ok := g.clients.Unregister(c.client.ID()); ok && !g.clients.Bound(m) {
		if err := g.coord.Disconnect(m.SessionID, m.PlayerID); err != nil && !errors.Is(err, world.ErrSessionNotFound) && !errors.Is(err, world.ErrPlayerNotFound) {
			g.logger.Warn("disconnect failed", "session", m.SessionID, "player", m.PlayerID, "error", err)
		}
	}
	g.bindMu.Unlock()
	c.client.Close()
	<-writerDone
	conn.Close()
	g.logger.Debug("client disconnected", "client", c.client.ID(), "player", subject)
}

func (c *wsConn) readLoop() {
	c.conn.SetReadLimit(c.g.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.g.cfg.PongWait)) //nolint:errcheck // a failed deadline surfaces on read
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.g.cfg.PongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.g.logger.Debug("read failed", "client", c.client.ID(), "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.g.cfg.PongWait)) //nolint:errcheck // a failed deadline surfaces on read

		var msg ClientMessage
		if err := c.codec.Decode(payload, &msg); err != nil {
			c.g.logger.Debug("discarding malformed message", "client", c.client.ID(), "error", err)
			c.sendError(CodeBadRequest, "malformed message")
			continue
		}
		c.handle(msg)
	}
}

func (c *wsConn) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgJoin:
		c.handleJoin(msg)
	case MsgLeave:
		m, ok := c.g.clients.Unbind(c.client.ID())
		if !ok {
			c.sendError(CodeNotFound, "not in a session")
			return
		}
		if err := c.g.coord.LeaveSession(m.SessionID, m.PlayerID); err != nil {
			c.sendErr(err)
		}
	case MsgInput:
		m, ok := c.g.clients.Membership(c.client.ID())
		if !ok {
			c.sendError(CodeNotFound, "not in a session")
			return
		}
		if err := c.g.coord.QueueInput(m.SessionID, m.PlayerID, msg.Frame()); err != nil {
			if errors.Is(err, world.ErrStaleRequest) {
				c.g.logger.Debug("stale input", "player", m.PlayerID, "seq", msg.Seq)
				return
			}
			c.sendErr(err)
		}
	case MsgState:
		m, ok := c.g.clients.Membership(c.client.ID())
		if !ok {
			c.sendError(CodeNotFound, "not in a session")
			return
		}
		snap, err := c.g.coord.GetSessionSnapshot(m.SessionID)
		if err != nil {
			c.sendErr(err)
			return
		}
		c.client.Send(multiplayer.SnapshotEvent{Snapshot: snap.ForPlayer(m.PlayerID)})
	default:
		c.sendError(CodeBadRequest, "unknown message type "+msg.Type)
	}
}

// handleJoin joins the token's player to the requested session, or to a new
// one when no session id is given.
func (c *wsConn) handleJoin(msg ClientMessage) {
	if msg.PlayerID != "" && msg.PlayerID != c.subject {
		c.sendError(CodeUnauthorized, "player id does not match token")
		return
	}
	sessionID := msg.SessionID
	if sessionID == "" {
		id, err := c.g.coord.CreateSession()
		if err != nil {
			c.sendErr(err)
			return
		}
		sessionID = id
	}

	c.g.bindMu.Lock()
	if prev, ok := c.g.clients.Membership(c.client.ID()); ok && prev.SessionID != sessionID {
		c.g.clients.Unbind(c.client.ID())
	}
	snap, err := c.g.coord.JoinSession(sessionID, c.subject, msg.Name)
	if err != nil {
		c.g.bindMu.Unlock()
		c.sendErr(err)
		return
	}
	// The newest socket owns the player; older ones are closed without
	// disconnecting it.
	displaced := c.g.clients.Takeover(c.client.ID(), multiplayer.Membership{SessionID: sessionID, PlayerID: c.subject})
	c.g.bindMu.Unlock()

	for _, old := range displaced {
		c.g.logger.Debug("replacing client", "client", old.ID(), "player", c.subject, "session", sessionID)
		old.Close()
	}
	c.client.Send(multiplayer.SnapshotEvent{Snapshot: snap})
}

func (c *wsConn) sendErr(err error) {
	c.sendError(errorCode(err), err.Error())
}

func (c *wsConn) sendError(code, message string) {
	c.client.Send(multiplayer.ErrorEvent{Code: code, Message: message})
}

// writePump is the only writer on the connection.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.g.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt := <-c.client.Events():
			msg, ok := serverMessage(evt)
			if !ok {
				continue
			}
			data, err := c.codec.Encode(msg)
			if err != nil {
				c.g.logger.Error("encode failed", "client", c.client.ID(), "type", msg.Type, "error", err)
				continue
			}
			if err := c.write(c.codec.MessageType(), data); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		case <-c.client.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")) //nolint:errcheck // connection is closing
			c.conn.Close()
			return
		}
	}
}

func (c *wsConn) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.g.cfg.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
