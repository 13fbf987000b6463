package session

import "sync"

// Locks hands out one mutex per chat so a conversation runs a single
// pipeline at a time without blocking other chats.
type Locks struct {
	mu    sync.Mutex
	chats map[int64]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{chats: make(map[int64]*sync.Mutex)}
}

func (l *Locks) get(chatID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.chats[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.chats[chatID] = m
	}
	return m
}

// Lock blocks until chatID is free and returns the matching unlock func.
func (l *Locks) Lock(chatID int64) func() {
	m := l.get(chatID)
	m.Lock()
	return m.Unlock
}

// TryLock reports whether chatID was free; on success the caller must call
// the returned unlock func.
func (l *Locks) TryLock(chatID int64) (func(), bool) {
	m := l.get(chatID)
	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}
