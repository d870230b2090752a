package recursive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNameserverHealthCooldown(t *testing.T) {
	h := newNameserverHealth()
	require.True(t, h.canTry("ns1"))

	h.markFailed("ns1")
	require.False(t, h.canTry("ns1"))

	h.markHealthy("ns1")
	require.True(t, h.canTry("ns1"))
}

func TestOrderedCandidatesPrefersHealthy(t *testing.T) {
	h := newNameserverHealth()
	h.markFailed("ns1")
	ordered := h.orderedCandidates([]string{"ns1", "ns2"})
	require.Equal(t, []string{"ns2", "ns1"}, ordered)
}

func TestOrderedCandidatesAllUnhealthyKeepsOrder(t *testing.T) {
	h := newNameserverHealth()
	h.markFailed("ns1")
	h.markFailed("ns2")
	ordered := h.orderedCandidates([]string{"ns1", "ns2"})
	require.Equal(t, []string{"ns1", "ns2"}, ordered)
}

func TestRecoveryAfterCooldown(t *testing.T) {
	h := newNameserverHealth()
	h.mu.Lock()
	h.failedAt["ns1"] = time.Now().Add(-2 * recoveryDuration)
	h.mu.Unlock()
	require.True(t, h.canTry("ns1"))
}
