package game

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendQueueFull    = errors.New("send queue full")
)

const (
	sendQueueSize = 256
	writeWait     = 10 * time.Second
	pingPayload   = "PING"
)

type frame struct {
	messageType int
	data        []byte
}

// WebsocketConnection is the internal.Connection of a browser client.
// Send and Ping only queue a frame; a single write pump owns the socket
// so writes never interleave and callers never block on the network.
type WebsocketConnection struct {
	id   string
	ws   *websocket.Conn
	send chan frame

	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection wraps ws and starts its write pump.
func NewConnection(ws *websocket.Conn) *WebsocketConnection {
	c := &WebsocketConnection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan frame, sendQueueSize),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *WebsocketConnection) ID() string { return c.id }

func (c *WebsocketConnection) Send(data []byte) error {
	return c.enqueue(frame{messageType: websocket.TextMessage, data: data})
}

func (c *WebsocketConnection) Ping() error {
	return c.enqueue(frame{messageType: websocket.PingMessage, data: []byte(pingPayload)})
}

// Close stops the write pump, which says goodbye to the client and closes
// the socket. Calling it more than once is fine.
func (c *WebsocketConnection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *WebsocketConnection) enqueue(f frame) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *WebsocketConnection) writePump() {
	defer c.ws.Close()

	for {
		select {
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection closed by server")
			if err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
				klog.V(2).Infof("[writePump] %s: close frame not sent: %v", c.id, err)
			}
			return
		case f := <-c.send:
			var err error
			deadline := time.Now().Add(writeWait)
			if f.messageType == websocket.PingMessage {
				err = c.ws.WriteControl(websocket.PingMessage, f.data, deadline)
			} else {
				_ = c.ws.SetWriteDeadline(deadline)
				err = c.ws.WriteMessage(f.messageType, f.data)
			}
			if err != nil {
				klog.Warningf("[writePump] %s: write failed: %v", c.id, err)
				c.Close()
				return
			}
		}
	}
}
