package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func dial(t *testing.T, srv *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, query), header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_StreamsTagEvents(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	conn := dial(t, srv, "?tag_id=tag-a", nil)
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(&Message{TagID: "tag-b", Data: []byte(`{"tag_id":"tag-b"}`)})
	hub.Publish(&Message{TagID: "tag-a", Data: []byte(`{"tag_id":"tag-a"}`)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag_id":"tag-a"}`, string(data))
}

func TestServer_WildcardWithoutTagID(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	conn := dial(t, srv, "", http.Header{"X-User-Role": []string{"admin"}})
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(&Message{TagID: "tag-z", Data: []byte(`{"tag_id":"tag-z"}`)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag_id":"tag-z"}`, string(data))
}

func TestServer_WildcardRequiresAdmin(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	for _, query := range []string{"", "?tag_id=*"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, query), http.Header{"X-User-Role": []string{"viewer"}})
		require.Error(t, err, query)
		require.NotNil(t, resp, query)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, query)
		resp.Body.Close()
	}
	assert.Equal(t, 0, hub.GetConnectionCount())
}

func TestServer_NonAdminReceivesSummary(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	conn := dial(t, srv, "?tag_id=tag-a", nil)
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	msg, err := route(`{"type":"tag.linked","tag_id":"tag-a","actor":"u1","changes":{"owner_id":"pet-7"},"occurred_at":"2026-03-01T12:00:00Z"}`)
	require.NoError(t, err)
	hub.Publish(msg)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "tag.linked")
	assert.NotContains(t, string(data), "pet-7")
	assert.NotContains(t, string(data), "u1")
}

func TestServer_DisconnectUnregisters(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	conn := dial(t, srv, "?tag_id=tag-a", nil)
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_RejectsLongTagID(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws?tag_id=" + strings.Repeat("x", maxTagIDLength+1))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(NewServer(hub, logger.Discard()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["connections"])
}
