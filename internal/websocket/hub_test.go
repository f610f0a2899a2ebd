package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", cancel
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub, url, _ := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers()[TopicHealth] == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(EventHealthUpdated, map[string]string{"id": "tmdb"}))

	ev := readEvent(t, conn)
	assert.Equal(t, EventHealthUpdated, ev.Type)
	assert.NotEmpty(t, ev.Timestamp)
}

func TestHub_TopicFilter(t *testing.T) {
	hub, url, _ := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?topics=health", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		counts := hub.Subscribers()
		return counts[TopicHealth] == 1 && counts[TopicLogs] == 0
	}, time.Second, 10*time.Millisecond)

	// Events are fanned out in order, so a delivered log line would arrive first.
	require.NoError(t, hub.Broadcast(EventLogEntry, map[string]string{"message": "Aggregated title"}))
	require.NoError(t, hub.Broadcast(EventHealthUpdated, map[string]string{"id": "omdb"}))

	assert.Equal(t, EventHealthUpdated, readEvent(t, conn).Type)
}

func TestHub_UnknownTopicRejected(t *testing.T) {
	_, url, _ := startHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?topics=health,ratings", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHub_StopReleasesSubscribers(t *testing.T) {
	hub, url, stop := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers()[TopicLogs] == 1 }, time.Second, 10*time.Millisecond)

	stop()

	// The server side says goodbye instead of leaving the socket open.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	require.Eventually(t, func() bool {
		return hub.Broadcast(EventLogEntry, "late") == ErrHubStopped
	}, time.Second, 10*time.Millisecond)

	// Leaving after the hub stopped must not wait for a Run loop that is gone.
	left := make(chan struct{})
	go func() {
		hub.remove(&subscriber{hub: hub})
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("remove blocked after hub stopped")
	}

	// New connections are refused rather than parked on the join channel.
	dialer := websocket.Dialer{HandshakeTimeout: time.Second}
	_, resp, err := dialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_BroadcastDoesNotBlockWithoutRunLoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	var err error
	for i := 0; i <= queueSize; i++ {
		err = hub.Broadcast(EventLogEntry, i)
	}
	assert.ErrorIs(t, err, ErrBroadcastQueueFull)
}

func TestParseTopics(t *testing.T) {
	topics, err := parseTopics(" Logs , health,")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{TopicLogs: true, TopicHealth: true}, topics)

	topics, err = parseTopics("")
	require.NoError(t, err)
	assert.Empty(t, topics)

	_, err = parseTopics("ratings")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}
