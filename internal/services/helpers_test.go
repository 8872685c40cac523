package services

import (
	"context"
	"sync"
	"time"

	"gelift/internal/storage"
)

type recordingNotifier struct {
	mu      sync.Mutex
	timers  []bool
	crumbs  []TrackPoint
	byUsers []uint
}

func (n *recordingNotifier) TimerChanged(_, byUserID uint, started bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timers = append(n.timers, started)
	n.byUsers = append(n.byUsers, byUserID)
}

func (n *recordingNotifier) BreadcrumbAdded(p TrackPoint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.crumbs = append(n.crumbs, p)
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) Save(_ context.Context, name string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return nil
}

func (m *memStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, name)
	return nil
}

func (m *memStore) URL(name string) string { return "/media/" + name }

func (m *memStore) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[name]
	return ok
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct{ sent []sentMail }

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// set makes the next reading t.
func (c *stepClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = t
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
