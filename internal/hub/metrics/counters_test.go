package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersIncAndSnapshot(t *testing.T) {
	c := New()
	c.Inc(CategoryTelemetry)
	c.Inc(CategoryTelemetry)
	c.Inc(CategoryCommand)
	c.IncQueueOverflow()
	c.IncRateLimited()

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap[CategoryTelemetry])
	assert.Equal(t, int64(1), snap[CategoryCommand])
	assert.Equal(t, int64(1), snap["queue_overflow"])
	assert.Equal(t, int64(1), snap["rate_limited"])
}

func TestCountersSnapshotIsIndependentCopy(t *testing.T) {
	c := New()
	c.Inc(CategoryHeartbeat)
	snap := c.Snapshot()
	snap[CategoryHeartbeat] = 99
	assert.NotEqual(t, int64(99), c.Snapshot()[CategoryHeartbeat])
}
