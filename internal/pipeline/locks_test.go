package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerialisesSameInstrument(t *testing.T) {
	l := NewLocalLocker()
	unlock := l.lock("005930")

	acquired := make(chan struct{})
	go func() {
		u := l.lock("005930")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second run entered while the first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	other := l.lock("000660")
	other()

	unlock()
	<-acquired
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.locks) == 0
	}, time.Second, 10*time.Millisecond)
}
