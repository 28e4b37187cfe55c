package messaging

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
)

func dialRoom(t *testing.T, srvURL, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srvURL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt Event
	require.NoError(t, json.Unmarshal(payload, &evt))
	return evt
}

func TestServeRoomHandshake(t *testing.T) {
	hub := NewHub()
	e := echo.New()
	e.GET("/ws/wallet/:address", func(c echo.Context) error {
		return hub.ServeRoom(c, WalletRoom(c.Param("address")))
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialRoom(t, srv.URL, "/ws/wallet/0xabc")
	defer conn.Close()

	hello := readEvent(t, conn)
	assert.Equal(t, EventConnected, hello.Type)

	sub := readEvent(t, conn)
	assert.Equal(t, EventSubscribed, sub.Type)
	data, ok := sub.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "wallet:0xabc", data["room"])
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	hub := NewHub()
	e := echo.New()
	e.GET("/ws/wallet/:address", func(c echo.Context) error {
		return hub.ServeRoom(c, WalletRoom(c.Param("address")))
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialRoom(t, srv.URL, "/ws/wallet/0xabc")
	defer conn.Close()

	// Drain the handshake; after it the connection is registered.
	readEvent(t, conn)
	readEvent(t, conn)

	hub.Broadcast(WalletRoom("0xother"), EventNewTransaction, echo.Map{"wallet_address": "0xother"})
	hub.Broadcast(WalletRoom("0xabc"), EventBalanceUpdated, echo.Map{
		"wallet_address": "0xabc",
		"balance":        "750",
	})

	evt := readEvent(t, conn)
	assert.Equal(t, EventBalanceUpdated, evt.Type)
	data, ok := evt.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "750", data["balance"])
}

func TestBroadcastToEmptyRoomIsHarmless(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(RatesRoom, EventRateUpdated, echo.Map{"rate": 1.0})
}
