package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickLogsAfterInterval(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(10 * time.Millisecond))

	assert.False(t, p.Tick())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, p.Tick())
}

func TestAvgFPSAccumulates(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(5 * time.Millisecond))
	assert.Zero(t, p.AvgFPS())

	for range 50 {
		p.Tick()
		time.Sleep(time.Millisecond)
	}
	assert.Greater(t, p.AvgFPS(), 0.0)
}
