package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lyzr/tagservice/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func subscribe(hub *Hub, topic string, buffer int) *Client {
	return subscribeAs(hub, topic, buffer, false)
}

func subscribeAs(hub *Hub, topic string, buffer int, admin bool) *Client {
	c := &Client{hub: hub, topic: topic, admin: admin, send: make(chan []byte, buffer)}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoutesByTag(t *testing.T) {
	hub := startHub(t)
	a := subscribe(hub, "tag-a", 4)
	b := subscribe(hub, "tag-b", 4)
	all := subscribe(hub, AllTags, 4)

	hub.Publish(&Message{TagID: "tag-a", Data: []byte(`{"tag_id":"tag-a"}`)})

	assert.Equal(t, `{"tag_id":"tag-a"}`, string(receive(t, a)))
	assert.Equal(t, `{"tag_id":"tag-a"}`, string(receive(t, all)))
	assertNothing(t, b)
}

func TestHub_Counts(t *testing.T) {
	hub := startHub(t)
	a1 := subscribe(hub, "tag-a", 1)
	subscribe(hub, "tag-a", 1)
	subscribe(hub, AllTags, 1)

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, hub.GetTopicCount())

	hub.unregister <- a1
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 2 }, time.Second, 5*time.Millisecond)

	_, open := <-a1.send
	assert.False(t, open)
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := startHub(t)
	c := subscribe(hub, "tag-a", 1)

	hub.unregister <- c
	hub.unregister <- c

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.GetTopicCount())
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := subscribe(hub, "tag-a", 1)
	fast := subscribe(hub, "tag-a", 4)

	hub.Publish(&Message{TagID: "tag-a", Data: []byte("1")})
	hub.Publish(&Message{TagID: "tag-a", Data: []byte("2")})

	assert.Equal(t, "1", string(receive(t, fast)))
	assert.Equal(t, "2", string(receive(t, fast)))

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, "1", string(<-slow.send))
	_, open := <-slow.send
	assert.False(t, open)

	// A late unregister from the read pump is harmless
	hub.unregister <- slow
	hub.Publish(&Message{TagID: "tag-a", Data: []byte("3")})
	assert.Equal(t, "3", string(receive(t, fast)))
}

func TestHub_ClosesClientsOnStop(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := subscribe(hub, AllTags, 1)
	cancel()
	<-done

	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.GetConnectionCount())
}

func TestHub_SummaryForNonAdmins(t *testing.T) {
	hub := startHub(t)
	viewer := subscribe(hub, "tag-a", 1)
	admin := subscribeAs(hub, "tag-a", 1, true)
	all := subscribeAs(hub, AllTags, 1, true)

	hub.Publish(&Message{TagID: "tag-a", Data: []byte("full"), Summary: []byte("summary")})

	assert.Equal(t, "summary", string(receive(t, viewer)))
	assert.Equal(t, "full", string(receive(t, admin)))
	assert.Equal(t, "full", string(receive(t, all)))
}

func TestHub_CallsAfterStopDoNotBlock(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &Client{hub: hub, topic: "tag-a", send: make(chan []byte, 1)}
	require.True(t, hub.Register(c))
	cancel()
	<-done

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Publish(&Message{TagID: "tag-a", Data: []byte("late")})
		}
		hub.Unregister(c)
		assert.False(t, hub.Register(&Client{hub: hub, topic: "tag-b", send: make(chan []byte, 1)}))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after stop")
	}
}

func TestRoute(t *testing.T) {
	msg, err := route(`{"type":"tag.revoked","tag_id":"tag-a","actor":"admin-1","changes":{"revocation_reason":"lost"},"occurred_at":"2026-03-01T12:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, "tag-a", msg.TagID)
	assert.Contains(t, string(msg.Data), "lost")

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Summary, &summary))
	assert.Equal(t, "tag.revoked", summary["type"])
	assert.NotContains(t, summary, "changes")
	assert.NotContains(t, summary, "actor")

	_, err = route(`not json`)
	assert.Error(t, err)

	_, err = route(`{"type":"tag.created"}`)
	assert.Error(t, err)
}
