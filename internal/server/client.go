package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stellar-server/internal/protocol"
	"stellar-server/internal/session"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// frame is one outgoing websocket message
type frame struct {
	binary bool
	data   []byte
}

// Client is one websocket connection bound to a session
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan frame
	done    chan struct{}
	once    sync.Once
	log     *zap.Logger
	ip      string
	binary  bool // msgpack encoding requested with ?enc=msgpack
	limiter *rate.Limiter
	session *session.Manager
}

// NewClient creates a Client; the session is attached by the caller
func NewClient(hub *Hub, conn *websocket.Conn, ip string, binary bool, log *zap.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan frame, sendBufSize),
		done:    make(chan struct{}),
		log:     log,
		ip:      ip,
		binary:  binary,
		limiter: rate.NewLimiter(rate.Limit(maxMessagesPerSec), maxMessagesPerSec),
	}
}

// Send encodes and queues a message; it never blocks, and drops the message
// when the client is slow or gone
func (c *Client) Send(msgType string, data any) {
	var f frame
	var err error
	if c.binary {
		f.binary = true
		f.data, err = protocol.EncodeBinary(msgType, data)
	} else {
		f.data, err = protocol.Encode(msgType, data)
	}
	if err != nil {
		c.log.Error("encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
	}
}

func (c *Client) stop() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump reads messages from the connection until it fails or the client
// misbehaves
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.log.Debug("client disconnected", zap.String("ip", c.ip), zap.String("player", c.session.PlayerID()))
		c.session.Close()
		c.hub.Release(c.ip)
		select {
		case c.hub.leaves <- c:
		case <-ctx.Done():
			c.stop()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("ws read error", zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			c.log.Warn("rate limit exceeded, disconnecting", zap.String("ip", c.ip))
			return
		}
		if err := c.handleMessage(ctx, message); err != nil {
			c.log.Warn("malformed message, disconnecting", zap.Error(err))
			return
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var err error
		select {
		case f := <-c.send:
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			err = c.write(kind, f.data)
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		case <-c.done:
			c.write(websocket.CloseMessage, []byte{})
			return
		}
		if err != nil {
			c.log.Debug("ws write failed", zap.Error(err))
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data)
}

var errBadPayload = errors.New("bad payload")

// handleMessage routes one incoming envelope. An error means the client sent
// something undecodable and the connection should be dropped.
func (c *Client) handleMessage(ctx context.Context, raw []byte) error {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	switch env.T {
	case protocol.MsgClientUpdate:
		u, err := protocol.DecodePayload[protocol.ClientUpdate](env)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", errBadPayload, env.T, err)
		}
		if reply, ok := c.session.HandleClientUpdate(ctx, u); ok {
			c.Send(protocol.MsgServerUpdate, reply)
		}
	case protocol.MsgAsk:
		a, err := protocol.DecodePayload[protocol.Ask](env)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", errBadPayload, env.T, err)
		}
		c.session.HandleAsk(ctx, a)
	case protocol.MsgToggleOrbit:
		c.session.HandleToggleOrbit(ctx)
	case protocol.MsgDisconnect:
		c.session.HandleDisconnect(ctx)
	case protocol.MsgReconnect:
		c.session.HandleReconnect(ctx)
	default:
		c.log.Debug("ignoring message", zap.String("type", env.T))
	}
	return nil
}
