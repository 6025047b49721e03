package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpStoreWrite, 10*time.Millisecond)
	c.RecordTiming(OpStoreWrite, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.StoreWrite)
	assert.Equal(t, int64(2), snap.StoreWrite.Count)
	assert.Equal(t, int64(10), snap.StoreWrite.MinTimeMs)
	assert.Equal(t, int64(30), snap.StoreWrite.MaxTimeMs)
	assert.Equal(t, int64(40), snap.StoreWrite.TotalTimeMs)

	assert.Nil(t, snap.StoreRead)
	assert.Nil(t, snap.LLMStream)
}

func TestCollector_RecordStream(t *testing.T) {
	c := NewCollector()

	c.RecordStream(100*time.Millisecond, 5)
	c.RecordStream(200*time.Millisecond, 15)

	snap := c.Snapshot()
	require.NotNil(t, snap.LLMStream)
	assert.Equal(t, int64(2), snap.LLMStream.Count)
	require.NotNil(t, snap.LLMStream.TotalDeltas)
	assert.Equal(t, int64(20), *snap.LLMStream.TotalDeltas)
	require.NotNil(t, snap.LLMStream.MinDeltas)
	assert.Equal(t, int64(5), *snap.LLMStream.MinDeltas)
	require.NotNil(t, snap.LLMStream.MaxDeltas)
	assert.Equal(t, int64(15), *snap.LLMStream.MaxDeltas)
	require.NotNil(t, snap.LLMStream.AvgDeltas)
	assert.InDelta(t, 10.0, *snap.LLMStream.AvgDeltas, 0.001)
}

func TestCollector_NilIsNoOp(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpStoreRead, time.Millisecond)
	c.RecordStream(time.Millisecond, 1)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpStoreRead, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.NotNil(t, snap.StoreRead)
	assert.Equal(t, int64(800), snap.StoreRead.Count)
}
