package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/domain/market"
	models "MarketSim/internal/domain/models"
	xlogger "MarketSim/pkg/logger"
)

func dialStream(t *testing.T) (*websocket.Conn, *PriceStream, *market.PriceBook) {
	t.Helper()
	book := market.NewPriceBook(models.DefaultInstruments())
	stream := NewPriceStream(xlogger.Nop(), book)
	book.Subscribe(stream.Observe)

	e := echo.New()
	stream.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/prices", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, stream, book
}

func readFrame(t *testing.T, conn *websocket.Conn) models.StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg models.StreamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestPriceStream_SnapshotThenTicks(t *testing.T) {
	conn, stream, book := dialStream(t)

	snap := readFrame(t, conn)
	assert.Equal(t, "snapshot", snap.Type)
	require.Len(t, snap.Quotes, 8)
	require.Eventually(t, func() bool { return stream.Clients() == 1 }, time.Second, 5*time.Millisecond)

	_, err := book.Set("MICX", 300)
	require.NoError(t, err)

	msg := readFrame(t, conn)
	assert.Equal(t, "tick", msg.Type)
	require.NotNil(t, msg.Tick)
	assert.Equal(t, "MICX", msg.Tick.Symbol)
	assert.Equal(t, 300.0, msg.Tick.Price)
	assert.Equal(t, 268.45, msg.Tick.Previous)
}

func TestPriceStream_CloseDisconnects(t *testing.T) {
	conn, stream, _ := dialStream(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return stream.Clients() == 1 }, time.Second, 5*time.Millisecond)

	stream.Close()
	assert.Zero(t, stream.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestPriceStream_ClientDisconnectUnregisters(t *testing.T) {
	conn, stream, _ := dialStream(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return stream.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return stream.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
