package signalhandler

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcsFor(t *testing.T) {
	assert.Equal(t, 1, ProcsFor(0))
	assert.Equal(t, 1, ProcsFor(-4))
	assert.Equal(t, 1, ProcsFor(1))
	assert.Equal(t, 16, ProcsFor(16))
}

func TestGetOptimalProcs(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), GetOptimalProcs())
	assert.GreaterOrEqual(t, GetOptimalProcs(), 1)
}
