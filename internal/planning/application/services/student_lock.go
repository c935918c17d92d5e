package services

import (
	"sync"

	"github.com/google/uuid"
)

// StudentLock serializes reschedules per student. Concurrent requests for the
// same student queue; requests for different students proceed in parallel.
type StudentLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*studentEntry
}

type studentEntry struct {
	mu   sync.Mutex
	refs int
}

// NewStudentLock creates an empty lock table.
func NewStudentLock() *StudentLock {
	return &StudentLock{locks: make(map[uuid.UUID]*studentEntry)}
}

// Lock acquires the student's lock, creating it on first use.
func (l *StudentLock) Lock(studentID uuid.UUID) {
	l.mu.Lock()
	entry, ok := l.locks[studentID]
	if !ok {
		entry = &studentEntry{}
		l.locks[studentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the student's lock and drops the entry once nobody waits.
func (l *StudentLock) Unlock(studentID uuid.UUID) {
	l.mu.Lock()
	entry, ok := l.locks[studentID]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, studentID)
		}
	}
	l.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
