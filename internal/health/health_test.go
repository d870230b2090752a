package health

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReporterSample(t *testing.T) {
	r := NewReporter()
	snap := r.Sample()
	require.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
	require.Greater(t, snap.CPU.NumCPU, 0)
	require.False(t, snap.StartTime.IsZero())
}
