package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescrm/internal/pkg/jwt"
)

type staticTokens map[string]int64

func (s staticTokens) ValidateToken(token string) (*jwt.Claims, error) {
	id, ok := s[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &jwt.Claims{UserID: id}, nil
}

func newSocketServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSocketRoutes(r.Group("/api/v1"), NewWSHandler(hub, staticTokens{"alice-token": 2}, nil, zerolog.Nop()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/reminders?token=" + token
}

func TestWS_RejectsBadToken(t *testing.T) {
	srv := newSocketServer(t, NewHub())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "nope"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubNotifier_PushesToEveryConnection(t *testing.T) {
	hub := NewHub()
	srv := newSocketServer(t, hub)

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		c, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "alice-token"), nil)
		require.NoError(t, err)
		defer c.Close()
		conns = append(conns, c)
	}
	require.Eventually(t, func() bool { return hub.Connected(2) == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, NewHubNotifier(hub).Notify(context.Background(), sampleMessage()))

	for _, c := range conns {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := c.ReadMessage()
		require.NoError(t, err)

		var ev struct {
			Type    string `json:"type"`
			Payload struct {
				LeadID int64  `json:"lead_id"`
				Text   string `json:"text"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventReminder, ev.Type)
		assert.Equal(t, int64(7), ev.Payload.LeadID)
		assert.Equal(t, "@alice 2026-03-01 10:30 张三 待跟进", ev.Payload.Text)
	}

	conns[0].Close()
	require.Eventually(t, func() bool { return hub.Connected(2) == 1 }, time.Second, 10*time.Millisecond)
}

func TestHubNotifier_OfflineOwnerIsNotAnError(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, NewHubNotifier(hub).Notify(context.Background(), sampleMessage()))
	assert.Equal(t, 0, hub.SendToUser(2, &Event{Type: EventReminder}))

	msg := sampleMessage()
	msg.OwnerID = 0
	assert.ErrorIs(t, NewHubNotifier(hub).Notify(context.Background(), msg), ErrNoRecipient)
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://crm.example.com")

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker([]string{"https://crm.example.com"})(req))
	assert.False(t, originChecker([]string{"https://other.example.com"})(req))
}
