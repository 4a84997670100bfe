package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

const (
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessageRoundUpdate   = "ROUND_UPDATE"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeWait      = 10 * time.Second
	clientSendSize = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type   string          `json:"type"`
	UserID int64           `json:"user_id,omitempty"`
	Game   models.GameType `json:"game,omitempty"`
	Data   interface{}     `json:"data"`
}

type Client struct {
	UserID int64
	conn   *websocket.Conn
	send   chan *Message
}

// WebSocketHub fans settled rounds and balance changes out to every open
// connection of the user they belong to. One goroutine owns the client set.
type WebSocketHub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx ends, then closes every connection.
func (hub *WebSocketHub) Run(ctx context.Context) {
	defer close(hub.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range hub.clients {
				for client := range set {
					client.conn.Close()
				}
			}
			return

		case client := <-hub.register:
			set, ok := hub.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				hub.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			logger.Debug("websocket client registered", zap.Int64("user_id", client.UserID), zap.Int("connections", len(set)))

		case client := <-hub.unregister:
			if set, ok := hub.clients[client.UserID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
				}
				if len(set) == 0 {
					delete(hub.clients, client.UserID)
				}
			}

		case message := <-hub.broadcast:
			hub.deliver(message)
		}
	}
}

func (hub *WebSocketHub) deliver(message *Message) {
	for client := range hub.clients[message.UserID] {
		select {
		case client.send <- message:
		default:
			logger.Warn("websocket client too slow, dropping message",
				zap.Int64("user_id", client.UserID), zap.String("type", message.Type))
		}
	}
}

func (hub *WebSocketHub) publish(message *Message) {
	select {
	case hub.broadcast <- message:
	default:
		logger.Warn("websocket hub backlog full, dropping message",
			zap.Int64("user_id", message.UserID), zap.String("type", message.Type))
	}
}

func (hub *WebSocketHub) BroadcastRound(userID int64, game models.GameType, payload any) {
	hub.publish(&Message{
		Type:   MessageRoundUpdate,
		UserID: userID,
		Game:   game,
		Data:   payload,
	})
}

func (hub *WebSocketHub) BroadcastBalance(userID int64, balance decimal.Decimal) {
	hub.publish(&Message{
		Type:   MessageBalanceUpdate,
		UserID: userID,
		Data: gin.H{
			"balance":   balance,
			"timestamp": time.Now().Unix(),
		},
	})
}

var _ services.Broadcaster = (*WebSocketHub)(nil)

type WebSocketHandler struct {
	hub    *WebSocketHub
	wallet *services.WalletService
}

func NewWebSocketHandler(hub *WebSocketHub, wallet *services.WalletService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, wallet: wallet}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan *Message, clientSendSize),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}
	go client.writePump()

	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.done:
			conn.Close()
		}
	}()

	h.sendBalance(c.Request.Context(), client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", zap.Int64("user_id", userID), zap.Error(err))
			}
			return
		}

		if msg.Type == MessagePing {
			client.enqueue(&Message{
				Type: MessagePong,
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (h *WebSocketHandler) sendBalance(ctx context.Context, client *Client) {
	bal, err := h.wallet.Balance(ctx, client.UserID)
	if err != nil {
		logger.WarnCtx(ctx, "websocket balance lookup failed", zap.Int64("user_id", client.UserID), zap.Error(err))
		return
	}
	client.enqueue(&Message{Type: MessageBalanceUpdate, UserID: client.UserID, Data: bal})
}

// enqueue is only called from the connection's own handler goroutine, which
// unregisters (and so closes send) after its last call.
func (c *Client) enqueue(msg *Message) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
