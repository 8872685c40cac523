package timer

import "sync"

// Locks hands out one mutex per team. Entries are dropped when unused.
type Locks struct {
	mu    sync.Mutex
	teams map[uint]*teamLock
}

type teamLock struct {
	sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{teams: make(map[uint]*teamLock)}
}

// Lock blocks until the team's mutex is held and returns its release func.
func (l *Locks) Lock(teamID uint) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.teams[teamID]
	if !ok {
		tl = &teamLock{}
		l.teams[teamID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			tl.Unlock()
			l.mu.Lock()
			tl.refs--
			if tl.refs == 0 {
				delete(l.teams, teamID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.teams)
}
