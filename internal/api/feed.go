package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fastfood/internal/order"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // kitchen displays are served from other origins on the LAN
	},
}

// KitchenFeed pushes order events to connected kitchen displays
type KitchenFeed struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	logger  *zap.Logger
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewKitchenFeed creates an empty feed
func NewKitchenFeed(logger *zap.Logger) *KitchenFeed {
	return &KitchenFeed{clients: make(map[*feedClient]struct{}), logger: logger}
}

// Notify broadcasts an order event. Slow displays drop events rather than
// holding up the order path.
func (f *KitchenFeed) Notify(_ context.Context, event order.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("failed to encode kitchen event", zap.Error(err))
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			f.logger.Warn("kitchen display buffer full, dropping event", zap.String("type", event.Type))
		}
	}
}

// Clients returns the number of connected displays
func (f *KitchenFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Close disconnects every display
func (f *KitchenFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		close(c.send)
		delete(f.clients, c)
	}
}

func (f *KitchenFeed) register(c *feedClient) {
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()
}

func (f *KitchenFeed) unregister(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
}

// handleWebSocket upgrades a kitchen display connection
func (f *KitchenFeed) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.logger.Warn("failed to upgrade kitchen connection", zap.Error(err))
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, 64)}
	f.register(client)

	go f.writePump(client)
	go f.readPump(client)
}

// readPump only watches for the display going away; displays send nothing
func (f *KitchenFeed) readPump(c *feedClient) {
	defer func() {
		f.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				f.logger.Warn("kitchen connection error", zap.Error(err))
			}
			return
		}
	}
}

func (f *KitchenFeed) writePump(c *feedClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
