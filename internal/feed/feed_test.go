package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drained(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return false
	default:
		return true
	}
}

func TestSubscriptionStartsSignalled(t *testing.T) {
	f := New("a")
	s := f.Subscribe()
	defer s.Close()

	require.False(t, drained(s.Changed()))
	assert.Equal(t, "a", s.Current())
	assert.True(t, drained(s.Changed()))
}

func TestPublishCoalesces(t *testing.T) {
	f := New(0)
	s := f.Subscribe()
	<-s.Changed()

	f.Publish(1)
	f.Publish(2)
	f.Publish(3)

	require.False(t, drained(s.Changed()))
	assert.True(t, drained(s.Changed()), "three publishes collapse into one signal")
	assert.Equal(t, 3, s.Current())
	assert.Equal(t, uint64(3), f.Version())
}

func TestCloseDetaches(t *testing.T) {
	f := New(0)
	s := f.Subscribe()
	require.Equal(t, 1, f.Subscribers())

	s.Close()
	s.Close()
	assert.Equal(t, 0, f.Subscribers())

	<-s.Changed()
	f.Publish(1)
	assert.True(t, drained(s.Changed()), "closed subscriptions are not signalled")
}
