package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/user"
)

type fakePresence struct {
	mu      sync.Mutex
	beats   int
	running int
}

func (p *fakePresence) Heartbeat(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beats++
	return nil
}

func (p *fakePresence) Run(ctx context.Context, _ string, _ time.Duration) {
	p.mu.Lock()
	p.running++
	p.mu.Unlock()

	<-ctx.Done()

	p.mu.Lock()
	p.running--
	p.mu.Unlock()
}

func (p *fakePresence) snapshot() (beats, running int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats, p.running
}

type server struct {
	hub      *Hub
	bus      *fanout.Bus
	presence *fakePresence
	url      string
}

func newServer(t *testing.T, u *user.User, poll time.Duration) *server {
	t.Helper()

	s := &server{hub: NewHub(), bus: fanout.NewBus(nil), presence: &fakePresence{}}
	go s.hub.Run()

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(s.hub, conn, u, Options{
			Bus:               s.bus,
			Presence:          s.presence,
			PollInterval:      poll,
			HeartbeatInterval: time.Hour,
		}).Serve()
	}))

	t.Cleanup(func() {
		s.hub.Stop()
		ts.Close()
		s.bus.Close()
	})

	s.url = "ws" + strings.TrimPrefix(ts.URL, "http")
	return s
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestClientReceivesChanges(t *testing.T) {
	s := newServer(t, nil, time.Hour)
	conn := dial(t, s.url)

	hello := readFrame(t, conn)
	assert.Equal(t, FrameHello, hello.Type)
	assert.Positive(t, hello.Timestamp)

	assert.Equal(t, FrameTick, readFrame(t, conn).Type, "initial refresh")
	assert.Eventually(t, func() bool {
		return s.bus.Subscribers() == 1 && s.hub.Count() == 1
	}, time.Second, 5*time.Millisecond)

	s.bus.Publish(fanout.DirectMessages)
	assert.Equal(t, FrameType("dm"), readFrame(t, conn).Type)

	s.bus.Publish(fanout.Posts)
	assert.Equal(t, FrameType("posts"), readFrame(t, conn).Type)
}

func TestClientPollTicks(t *testing.T) {
	s := newServer(t, nil, 20*time.Millisecond)
	conn := dial(t, s.url)

	require.Equal(t, FrameHello, readFrame(t, conn).Type)
	for i := 0; i < 3; i++ {
		assert.Equal(t, FrameTick, readFrame(t, conn).Type)
	}
}

func TestSignedInClientKeepsPresence(t *testing.T) {
	neo := &user.User{ID: "neo", Nickname: "Neo"}
	s := newServer(t, neo, time.Hour)
	conn := dial(t, s.url)

	hello := readFrame(t, conn)
	require.Equal(t, FrameHello, hello.Type)
	data, ok := hello.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "neo", data["userId"])

	assert.Eventually(t, func() bool {
		_, running := s.presence.snapshot()
		return running == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "heartbeat"}))
	assert.Eventually(t, func() bool {
		beats, _ := s.presence.snapshot()
		return beats == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		_, running := s.presence.snapshot()
		return running == 0 && s.hub.Count() == 0 && s.bus.Subscribers() == 0
	}, time.Second, 5*time.Millisecond, "disconnect tears down heartbeat and watch loops")
}

func TestHubStopClosesClients(t *testing.T) {
	s := newServer(t, nil, time.Hour)
	conn := dial(t, s.url)
	require.Equal(t, FrameHello, readFrame(t, conn).Type)
	assert.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	s.hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			break
		}
	}
	assert.Equal(t, 0, s.hub.Count())
}
