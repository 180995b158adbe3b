package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"MarketSim/internal/domain/market"
	models "MarketSim/internal/domain/models"
	xlogger "MarketSim/pkg/logger"
)

const (
	streamSendBuffer = 64
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
	streamPongWait   = 2 * streamPingPeriod
)

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.send) })
}

// PriceStream pushes every committed tick to websocket subscribers. A client that
// falls behind by more than its send buffer is disconnected; the price book never waits.
type PriceStream struct {
	logger   *xlogger.Logger
	book     *market.PriceBook
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

func NewPriceStream(logger *xlogger.Logger, book *market.PriceBook) *PriceStream {
	return &PriceStream{
		logger: logger,
		book:   book,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

func (s *PriceStream) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/prices", s.Serve)
}

// Observe matches market.Observer.
func (s *PriceStream) Observe(t models.PriceTick) {
	msg, err := json.Marshal(models.StreamMessage{Type: "tick", Tick: &t})
	if err != nil {
		s.logger.Error("encode stream tick", xlogger.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			delete(s.clients, c)
			c.close()
			s.logger.Warn("dropping slow stream client", xlogger.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

// Clients reports the number of connected subscribers.
func (s *PriceStream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (s *PriceStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}

// Serve upgrades the request, sends a snapshot frame, then streams ticks until
// the peer goes away.
func (s *PriceStream) Serve(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	client := &streamClient{conn: conn, send: make(chan []byte, streamSendBuffer)}
	snapshot, err := json.Marshal(models.StreamMessage{Type: "snapshot", Quotes: s.book.Snapshot()})
	if err != nil {
		conn.Close()
		return err
	}
	client.send <- snapshot

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go s.writePump(client)
	s.readPump(client)
	return nil
}

func (s *PriceStream) unregister(c *streamClient) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
	s.mu.Unlock()
}

// readPump discards inbound frames; it exists to notice disconnects and pongs.
func (s *PriceStream) readPump(c *streamClient) {
	defer s.unregister(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *PriceStream) writePump(c *streamClient) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
