package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/devregistry/pkg/store"
)

func TestRemoteCacheConnectionProbeReady(t *testing.T) {
	m := store.NewMockStore()
	probes := NewProbeRegistry()
	RegisterRemoteCacheConnectionProbe(probes, m)

	status := probes.Run(context.Background(), RemoteCacheConnectionProbe)
	assert.True(t, status.Ready)
	assert.NoError(t, status.Err)
	assert.Equal(t, "in-memory", status.Stats.Backend)
}

func TestUnknownProbeFails(t *testing.T) {
	probes := NewProbeRegistry()

	status := probes.Run(context.Background(), "nonexistent")
	assert.False(t, status.Ready)
	assert.Error(t, status.Err)
}

type failingStore struct{ store.Store }

func (failingStore) CheckAvailability(context.Context) (store.Stats, error) {
	return store.Stats{}, errors.New("backend unreachable")
}

func TestRemoteCacheConnectionProbeNotReadyOnFailure(t *testing.T) {
	probes := NewProbeRegistry()
	RegisterRemoteCacheConnectionProbe(probes, failingStore{})

	status := probes.Run(context.Background(), RemoteCacheConnectionProbe)
	assert.False(t, status.Ready)
	assert.Error(t, status.Err)
}
