package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterSelectsLowestPriority(t *testing.T) {
	reg := NewRegistry()
	low := newFakeBackend("low", 10)
	high := newFakeBackend("high", 1)

	require.NoError(t, reg.Register(low))
	require.NoError(t, reg.Register(high))

	selected, ok := reg.Selected()
	require.True(t, ok)
	require.Equal(t, "high", selected.Name())
}

func TestRegistryDuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newFakeBackend("a", 1)))
	err := reg.Register(newFakeBackend("a", 2))
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestRegistryNoName(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(newFakeBackend("", 1))
	require.ErrorIs(t, err, ErrNoName)
}

func TestRegistryMissingCapability(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(&capabilityLimitedBackend{fakeBackend: newFakeBackend("partial", 1)})
	require.ErrorIs(t, err, ErrMissingCapability)
}

func TestRegistryUnregisterThenEmpty(t *testing.T) {
	reg := NewRegistry()
	b := newFakeBackend("only", 1)
	require.NoError(t, reg.Register(b))
	reg.Unregister(b)
	_, ok := reg.Selected()
	require.False(t, ok)
}

func TestRegistrySchedulerLazyStart(t *testing.T) {
	reg := NewRegistry()
	require.Nil(t, reg.Scheduler())
	require.NoError(t, reg.Register(newFakeBackend("a", 1)))
	require.NotNil(t, reg.Scheduler())
}

type capabilityLimitedBackend struct {
	*fakeBackend
}

func (c *capabilityLimitedBackend) Capabilities() (resolve, cancel bool) { return true, false }
