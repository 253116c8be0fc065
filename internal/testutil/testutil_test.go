package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_Sequence(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	c.Reset()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	c := NewDeterministicClock()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), c.Current())
}

func TestSteppingTime_Advances(t *testing.T) {
	st := NewSteppingTime()
	first := st.Now()
	second := st.Now()
	assert.Equal(t, Epoch, first)
	assert.Equal(t, time.Second, second.Sub(first))
}

func TestFixedSession(t *testing.T) {
	assert.Equal(t, DefaultSession, FixedSession("").Generate())
	assert.Equal(t, "s-1", FixedSession("s-1").Generate())
}

func TestLogSink_CapturesRecords(t *testing.T) {
	logger, sink := NewLogger(t)
	logger.Debug("hello", "k", 1)
	logger.Warn("careful")

	records := sink.Records(t)
	require.Len(t, records, 2)
	assert.Equal(t, "hello", records[0].Msg())
	assert.Equal(t, "DEBUG", records[0].Level())
	assert.Equal(t, float64(1), records[0]["k"])
	assert.Len(t, sink.WithMessage(t, "careful"), 1)
}
