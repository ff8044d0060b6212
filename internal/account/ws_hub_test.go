package account_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/portfolio-engine/internal/account"
	"github.com/foliotrack/portfolio-engine/internal/metrics"
)

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWSHub_DeliversOnlyToSubscribedUser(t *testing.T) {
	hub := account.NewWSHub(zerolog.Nop())
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	alice := dialWS(t, srv, "alice")
	bob := dialWS(t, srv, "bob")

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.WebSocketClients) == 2
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(account.WSMessage{Type: account.EventPortfolioSynced, UserID: "alice", Broker: "zerodha", SyncID: "s-1"})

	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var msg account.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, account.EventPortfolioSynced, msg.Type)
	assert.Equal(t, "zerodha", msg.Broker)
	assert.Equal(t, "s-1", msg.SyncID)

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err)
}

func TestWSHub_RequiresUserID(t *testing.T) {
	hub := account.NewWSHub(zerolog.Nop())

	w := httptest.NewRecorder()
	hub.HandleWS(w, httptest.NewRequest("GET", "/ws", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
