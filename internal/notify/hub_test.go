package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gelift/internal/services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	mu      sync.Mutex
	got     []interface{}
	fail    bool
	closed  bool
	written chan struct{}
}

func newFakeConn() *fakeConn { return &fakeConn{written: make(chan struct{}, 10)} }

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.written <- struct{}{} }()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.got = append(c.got, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messages() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}(nil), c.got...)
}

func waitWrite(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case <-c.written:
	case <-time.After(time.Second):
		t.Fatal("no write")
	}
}

func TestTimerChangedSkipsActor(t *testing.T) {
	h := NewHub()
	defer h.Close()
	actor, mate := newFakeConn(), newFakeConn()
	h.Register(TeamChannel(1), 10, actor)
	h.Register(TeamChannel(1), 11, mate)

	h.TimerChanged(1, 10, true)
	waitWrite(t, mate)

	require.Len(t, mate.messages(), 1)
	assert.Equal(t, true, mate.messages()[0].(map[string]interface{})["timer_started"])
	assert.Empty(t, actor.messages())
}

func TestBreadcrumbAddedGoesToEventChannel(t *testing.T) {
	h := NewHub()
	defer h.Close()
	viewer, other := newFakeConn(), newFakeConn()
	h.Register(EventChannel(3), 0, viewer)
	h.Register(EventChannel(4), 0, other)

	h.BreadcrumbAdded(services.TrackPoint{EventID: 3, TeamID: 7, Segment: 1})
	waitWrite(t, viewer)

	assert.Len(t, viewer.messages(), 1)
	assert.Empty(t, other.messages())
}

func TestFailingConnIsDropped(t *testing.T) {
	h := NewHub()
	defer h.Close()
	bad := newFakeConn()
	bad.fail = true
	h.Register(TeamChannel(2), 5, bad)

	h.Publish(TeamChannel(2), 0, "hello")
	waitWrite(t, bad)

	assert.Eventually(t, func() bool { return h.Subscribers(TeamChannel(2)) == 0 }, time.Second, 5*time.Millisecond)
	bad.mu.Lock()
	assert.True(t, bad.closed)
	bad.mu.Unlock()
}

func TestCloseClosesConnections(t *testing.T) {
	h := NewHub()
	c := newFakeConn()
	h.Register(TeamChannel(1), 1, c)

	h.Close()
	h.Close()
	h.Publish(TeamChannel(1), 0, "after close")

	assert.True(t, c.closed)
	assert.Zero(t, h.Subscribers(TeamChannel(1)))
}
