package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devregistry/pkg/devkey"
	"github.com/carverauto/devregistry/pkg/store"
)

func newTestRegistry() (*Registry, *store.MockStore) {
	m := store.NewMockStore()
	return New(m), m
}

// S1
func TestScenarioSetThenGetGateway(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetLastKnownGatewayForDevice(ctx, "T1", "dev-1", "gw-1"))

	res, err := r.GetLastKnownGatewayForDevice(ctx, "T1", "dev-1")
	require.NoError(t, err)
	assert.Equal(t, GatewayResult{GatewayID: "gw-1"}, res)
}

// S2
func TestScenarioGetGatewayAbsentIsNotFound(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	_, err := r.GetLastKnownGatewayForDevice(ctx, "T1", "absent")
	assert.ErrorIs(t, err, KindNotFound)
}

// S3
func TestScenarioSetInstanceThenGetInstancesNoGateways(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "adapter-A"))

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", nil)
	require.NoError(t, err)
	assert.Equal(t, AdapterInstancesResult{
		AdapterInstances: []AdapterInstanceMapping{{DeviceID: "dev-1", AdapterInstanceID: "adapter-A"}},
	}, res)
}

// S4
func TestScenarioLastKnownGatewaySelectsExactlyOne(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "gw-1", "adapter-A"))
	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "gw-2", "adapter-B"))
	require.NoError(t, r.SetLastKnownGatewayForDevice(ctx, "T1", "dev-1", "gw-2"))

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", []string{"gw-1", "gw-2"})
	require.NoError(t, err)
	require.Len(t, res.AdapterInstances, 1)
	assert.Equal(t, AdapterInstanceMapping{DeviceID: "gw-2", AdapterInstanceID: "adapter-B"}, res.AdapterInstances[0])
}

// S5
func TestScenarioNoLastKnownGatewayReturnsAll(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "gw-1", "adapter-A"))
	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "gw-2", "adapter-B"))

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", []string{"gw-1", "gw-2"})
	require.NoError(t, err)
	assert.Len(t, res.AdapterInstances, 2)

	seen := map[string]string{}
	for _, m := range res.AdapterInstances {
		seen[m.DeviceID] = m.AdapterInstanceID
	}

	assert.Equal(t, "adapter-A", seen["gw-1"])
	assert.Equal(t, "adapter-B", seen["gw-2"])
}

// S6
func TestScenarioRemoveWrongValueIsPreconditionFailed(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "A"))

	err := r.RemoveCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "B")
	assert.ErrorIs(t, err, KindPreconditionFail)

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", res.AdapterInstances[0].AdapterInstanceID)
}

// S7: with a large (>3) gateway set and a usable last-known gateway,
// exactly two store calls are made: one Get (last-known lookup) and one
// GetAll of size 2.
func TestScenarioLargeGatewaySetMakesExactlyTwoStoreCalls(t *testing.T) {
	ctx := context.Background()

	// Seed the backing store directly so the setup writes aren't
	// counted against the measured operation's call budget.
	measured := store.NewMockStore()

	adapterKey := mustAdapterKey(t, "T1", "gw-3")
	gatewayKey := mustGatewayKey(t, "T1", "dev-1")

	require.NoError(t, measured.Put(ctx, adapterKey, []byte("adapter-C")))
	require.NoError(t, measured.Put(ctx, gatewayKey, []byte("gw-3")))

	before := measured.TotalCalls()

	reg := New(measured)
	res, err := reg.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", []string{"gw-1", "gw-2", "gw-3", "gw-4", "gw-5"})
	require.NoError(t, err)
	assert.Equal(t, "adapter-C", res.AdapterInstances[0].AdapterInstanceID)

	calls := measured.TotalCalls() - before
	assert.Equal(t, 2, calls, "expected exactly one Get plus one GetAll")
	assert.Equal(t, 1, measured.CallCount("Get"))
	assert.Equal(t, 1, measured.CallCount("GetAll"))
}

func TestDeviceSelfPrecedenceOverridesGateways(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "adapter-self"))
	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "gw-1", "adapter-gw"))

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", []string{"gw-1"})
	require.NoError(t, err)
	require.Len(t, res.AdapterInstances, 1)
	assert.Equal(t, "dev-1", res.AdapterInstances[0].DeviceID)
	assert.Equal(t, "adapter-self", res.AdapterInstances[0].AdapterInstanceID)
}

func TestDeviceSelfPrecedenceInLargeGatewaySet(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "adapter-self"))
	require.NoError(t, r.SetLastKnownGatewayForDevice(ctx, "T1", "dev-1", "gw-1"))

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", []string{"gw-1", "gw-2", "gw-3", "gw-4"})
	require.NoError(t, err)
	require.Len(t, res.AdapterInstances, 1)
	assert.Equal(t, "dev-1", res.AdapterInstances[0].DeviceID)
}

func TestGetInstancesNoGatewaysNotFound(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	_, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", nil)
	assert.ErrorIs(t, err, KindNotFound)
}

func TestInvalidArgumentRejectedBeforeStoreCall(t *testing.T) {
	ctx := context.Background()
	r, m := newTestRegistry()

	err := r.SetLastKnownGatewayForDevice(ctx, "", "dev-1", "gw-1")
	assert.ErrorIs(t, err, KindInvalidArgument)
	assert.Zero(t, m.TotalCalls())

	err = r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "")
	assert.ErrorIs(t, err, KindInvalidArgument)
	assert.Zero(t, m.TotalCalls())
}

func TestIdempotentSetObservesSameState(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "A"))
	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "A"))

	res, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", res.AdapterInstances[0].AdapterInstanceID)
}

func TestRemoveThenGetIsNotFound(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	require.NoError(t, r.SetCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "A"))
	require.NoError(t, r.RemoveCommandHandlingAdapterInstance(ctx, "T1", "dev-1", "A"))

	_, err := r.GetCommandHandlingAdapterInstances(ctx, "T1", "dev-1", nil)
	assert.ErrorIs(t, err, KindNotFound)
}

func mustGatewayKey(t *testing.T, tenant, device string) string {
	t.Helper()

	k, err := devkey.GatewayKey(tenant, device)
	require.NoError(t, err)

	return k
}

func mustAdapterKey(t *testing.T, tenant, device string) string {
	t.Helper()

	k, err := devkey.AdapterKey(tenant, device)
	require.NoError(t, err)

	return k
}
