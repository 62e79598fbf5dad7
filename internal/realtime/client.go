package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"stocksync/internal/dto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

var (
	errInvalidPayload = errors.New("invalid payload")
	errInvalidSaleID  = errors.New("invalid sale_id")
)

// SaleOps is the subset of lifecycle operations invokable over the socket,
// request/response style with an acknowledgment per command.
type SaleOps interface {
	Create(ctx context.Context, actorID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	Approve(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, notes string) (*dto.SaleResponse, error)
	Reject(ctx context.Context, adminID uuid.UUID, saleID uuid.UUID, reason string) (*dto.SaleResponse, error)
	BulkApprove(ctx context.Context, adminID uuid.UUID, req dto.BulkApproveRequest) (*dto.BulkApprovalResponse, error)
}

// Command is one request sent by a connected client.
type Command struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Ack is the per-command acknowledgment.
type Ack struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Client is one websocket connection bound to an authenticated user.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	ops  SaleOps

	userID uuid.UUID
	role   string
	rooms  []string

	send      chan []byte
	closeOnce sync.Once
}

// NewClient wires a connection into the hub's room topology. Callers must
// start ReadPump and WritePump and register the client with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, ops SaleOps, userID uuid.UUID, role string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		ops:    ops,
		userID: userID,
		role:   role,
		rooms:  RoomsFor(userID, role),
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump consumes commands from the connection until it drops.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user_id", c.userID.String()).Msg("realtime: unexpected close")
			}
			return
		}
		c.handleCommand(ctx, raw)
	}
}

// WritePump flushes outbound messages and keeps the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleCommand(ctx context.Context, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.ack(Ack{Success: false, Error: "malformed command"})
		return
	}

	switch cmd.Action {
	case "create_sale":
		var req dto.CreateSaleRequest
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			c.ack(Ack{ID: cmd.ID, Success: false, Error: "invalid payload"})
			return
		}
		resp, err := c.ops.Create(ctx, c.userID, req)
		c.ackResult(cmd.ID, resp, err)

	case "approve_sale":
		if !c.requireAdmin(cmd.ID) {
			return
		}
		var req struct {
			SaleID string `json:"sale_id"`
			Notes  string `json:"notes"`
		}
		saleID, err := parseSaleID(cmd.Data, &req)
		if err != nil {
			c.ack(Ack{ID: cmd.ID, Success: false, Error: err.Error()})
			return
		}
		resp, err := c.ops.Approve(ctx, c.userID, saleID, req.Notes)
		c.ackResult(cmd.ID, resp, err)

	case "reject_sale":
		if !c.requireAdmin(cmd.ID) {
			return
		}
		var req struct {
			SaleID string `json:"sale_id"`
			Reason string `json:"reason"`
		}
		saleID, err := parseSaleID(cmd.Data, &req)
		if err != nil {
			c.ack(Ack{ID: cmd.ID, Success: false, Error: err.Error()})
			return
		}
		resp, err := c.ops.Reject(ctx, c.userID, saleID, req.Reason)
		c.ackResult(cmd.ID, resp, err)

	case "bulk_approve":
		if !c.requireAdmin(cmd.ID) {
			return
		}
		var req dto.BulkApproveRequest
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			c.ack(Ack{ID: cmd.ID, Success: false, Error: "invalid payload"})
			return
		}
		resp, err := c.ops.BulkApprove(ctx, c.userID, req)
		c.ackResult(cmd.ID, resp, err)

	default:
		c.ack(Ack{ID: cmd.ID, Success: false, Error: "unknown action: " + cmd.Action})
	}
}

func (c *Client) requireAdmin(cmdID string) bool {
	if c.role != "admin" {
		c.ack(Ack{ID: cmdID, Success: false, Error: "insufficient permissions"})
		return false
	}
	return true
}

func (c *Client) ackResult(cmdID string, data interface{}, err error) {
	if err != nil {
		c.ack(Ack{ID: cmdID, Success: false, Error: err.Error()})
		return
	}
	c.ack(Ack{ID: cmdID, Success: true, Data: data})
}

func (c *Client) ack(a Ack) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
		log.Warn().Str("user_id", c.userID.String()).Msg("realtime: ack dropped, send buffer full")
	}
}

// parseSaleID unmarshals the command payload into dst (which must contain a
// SaleID field as its first JSON member) and parses the sale id.
func parseSaleID(data json.RawMessage, dst interface{}) (uuid.UUID, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return uuid.Nil, errInvalidPayload
	}
	var probe struct {
		SaleID string `json:"sale_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return uuid.Nil, errInvalidPayload
	}
	id, err := uuid.Parse(probe.SaleID)
	if err != nil {
		return uuid.Nil, errInvalidSaleID
	}
	return id, nil
}
