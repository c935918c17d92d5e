package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStudentLockSerializesSameStudent(t *testing.T) {
	l := NewStudentLock()
	studentID := uuid.New()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock(studentID)
			defer l.Unlock(studentID)

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "critical section must never run concurrently")
}

func TestStudentLockIndependentStudents(t *testing.T) {
	l := NewStudentLock()
	a := uuid.New()
	b := uuid.New()

	l.Lock(a)
	done := make(chan struct{})
	go func() {
		l.Lock(b)
		l.Unlock(b)
		close(done)
	}()
	<-done // completes while a is still held
	l.Unlock(a)
}

func TestStudentLockDropsIdleEntries(t *testing.T) {
	l := NewStudentLock()
	studentID := uuid.New()

	l.Lock(studentID)
	l.Unlock(studentID)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}
