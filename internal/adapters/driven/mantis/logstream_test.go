package mantis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

var upgrader = websocket.Upgrader{}

// wsBase converts an httptest server URL into a websocket base URL.
func wsBase(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// countMessages counts stream messages with the given text.
func countMessages(stream driven.LogStream, text string) int {
	n := 0
	for _, msg := range stream.Messages() {
		if msg.Message == text {
			n++
		}
	}
	return n
}

func TestLogStream_ReceivesFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/synthesis_progress/space-1/", r.URL.Path)

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "progress", "message": "Synthesising layer 1", "level": "INFO",
		}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"log": "legacy frame without a type",
		}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"unrelated": true,
		}))

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(server.URL, wsBase(server), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := client.OpenLogStream(ctx, "space-1")
	defer stream.Close()

	require.Eventually(t, func() bool {
		return len(stream.Messages()) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	messages := stream.Messages()
	assert.Equal(t, "Connected to log stream", messages[0].Message)
	assert.Equal(t, "INFO", messages[0].Level)
	assert.Equal(t, domain.LogTypeLog, messages[0].Type)

	assert.Equal(t, domain.LogTypeProgress, messages[1].Type)
	assert.Equal(t, "Synthesising layer 1", messages[1].Message)

	assert.Equal(t, domain.LogTypeLog, messages[2].Type)
	assert.Equal(t, "legacy frame without a type", messages[2].Message)

	assert.Equal(t, domain.StreamConnected, stream.Status())
}

func TestLogStream_ReconnectPreservesMessages(t *testing.T) {
	// The first connection delivers one frame and drops immediately. The
	// stream must report disconnected, reconnect after the delay, and keep
	// the earlier messages.
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		if connections.Add(1) == 1 {
			conn.WriteJSON(map[string]any{"type": "log", "message": "first life"})
			conn.Close()
			return
		}

		defer conn.Close()
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(server.URL, wsBase(server), nil, WithReconnectDelay(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := client.OpenLogStream(ctx, "space-1")
	defer stream.Close()

	require.Eventually(t, func() bool {
		return connections.Load() >= 2 && stream.Status() == domain.StreamConnected
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, countMessages(stream, "Connected to log stream"),
		"each connection adds its own synthetic entry")
	assert.Equal(t, 1, countMessages(stream, "first life"),
		"messages from before the drop must be preserved")
}

func TestLogStream_CloseStopsReconnect(t *testing.T) {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		connections.Add(1)
		conn.Close()
	}))
	defer server.Close()

	client := NewClient(server.URL, wsBase(server), nil, WithReconnectDelay(10*time.Millisecond))

	stream := client.OpenLogStream(context.Background(), "space-1")

	require.Eventually(t, func() bool {
		return connections.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, stream.Close())

	// The update channel closes once the loop exits.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-stream.Updates():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	settled := connections.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, connections.Load(), "no reconnect after Close")
	assert.Equal(t, domain.StreamDisconnected, stream.Status())
}

func TestLogStream_ContextCancelStopsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(server.URL, wsBase(server), nil)

	ctx, cancel := context.WithCancel(context.Background())
	stream := client.OpenLogStream(ctx, "space-1")

	require.Eventually(t, func() bool {
		return stream.Status() == domain.StreamConnected
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		return stream.Status() == domain.StreamDisconnected
	}, 2*time.Second, 10*time.Millisecond)
}
