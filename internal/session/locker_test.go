package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockerSerializesSameKey(t *testing.T) {
	t.Parallel()

	l := NewLocker()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("a")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxActive)
	}
	if l.size() != 0 {
		t.Fatalf("locks not released, %d left", l.size())
	}
}

func TestLockerIndependentKeys(t *testing.T) {
	t.Parallel()

	l := NewLocker()
	unlockA := l.Lock("a")

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked by a")
	}

	unlockA()
	unlockA()
	if l.size() != 0 {
		t.Fatalf("locks not released, %d left", l.size())
	}
}
